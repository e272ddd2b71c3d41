package domain

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")

	ErrCourseNotFound = errors.New("course not found")
	ErrLessonNotFound = errors.New("lesson not found")

	ErrAlreadyEnrolled    = errors.New("active enrollment already exists")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrInvalidTransition  = errors.New("invalid enrollment status transition")

	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
	ErrRatingNotFound = errors.New("rating not found")
	ErrNotRatingOwner = errors.New("rating belongs to another user")

	ErrNegativeDuration = errors.New("time spent delta must be non-negative")
)
