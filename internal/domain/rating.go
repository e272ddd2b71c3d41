package domain

import "time"

// CourseFavorite — закладка, максимум одна на пару (user, course).
type CourseFavorite struct {
	UserID   UserID    `json:"userId"`
	CourseID CourseID  `json:"courseId"`
	AddedAt  time.Time `json:"addedAt"`
}

// CourseRating — оценка 1-5 с опциональным отзывом.
// Одна запись на пару (user, course), повторная оценка перезаписывает.
type CourseRating struct {
	ID                 string    `json:"id"`
	UserID             UserID    `json:"userId"`
	CourseID           CourseID  `json:"courseId"`
	Rating             int       `json:"rating"`
	Review             string    `json:"review,omitempty"`
	IsVerifiedPurchase bool      `json:"isVerifiedPurchase"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}
