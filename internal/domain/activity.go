package domain

import "time"

type ActivityType string

const (
	ActivityCourseEnrolled  ActivityType = "course_enrolled"
	ActivityCourseCompleted ActivityType = "course_completed"
	ActivityCourseDropped   ActivityType = "course_dropped"
	ActivityLessonCompleted ActivityType = "lesson_completed"
	ActivityRatingGiven     ActivityType = "rating_given"
	ActivityFavoriteAdded   ActivityType = "favorite_added"
)

// UserActivity — запись ленты действий, только для отображения.
type UserActivity struct {
	ID        string            `json:"id"`
	UserID    UserID            `json:"userId"`
	Type      ActivityType      `json:"type"`
	CourseID  CourseID          `json:"courseId,omitempty"`
	LessonID  LessonID          `json:"lessonId,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type RecommendationReason string

const (
	ReasonSameCategory     RecommendationReason = "same_category"
	ReasonPopular          RecommendationReason = "popular"
	ReasonContinueLearning RecommendationReason = "continue_learning"
)

// CourseRecommendation живет только в памяти, не попадает в снапшот.
type CourseRecommendation struct {
	CourseID    CourseID             `json:"courseId"`
	Score       float64              `json:"score"` // 0..1
	Reason      RecommendationReason `json:"reason"`
	Explanation string               `json:"explanation"`
}
