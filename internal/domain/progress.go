package domain

import (
	"math"
	"time"
)

type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "not-started"
	ProgressInProgress ProgressStatus = "in-progress"
	ProgressCompleted  ProgressStatus = "completed"
)

// LessonProgress — состояние одного урока для одного пользователя.
type LessonProgress struct {
	UserID       UserID         `json:"userId"`
	LessonID     LessonID       `json:"lessonId"`
	CourseID     CourseID       `json:"courseId"`
	ModuleID     ModuleID       `json:"moduleId"`
	Status       ProgressStatus `json:"status"`
	StartedAt    *time.Time     `json:"startedAt,omitempty"`
	CompletedAt  *time.Time     `json:"completedAt,omitempty"`
	TimeSpentSec int64          `json:"timeSpentSec"`

	// Поля квизов, UI их пока не использует
	Score    *float64 `json:"score,omitempty"`
	Attempts int      `json:"attempts,omitempty"`
}

// ModuleProgress — rollup по модулю внутри курса.
type ModuleProgress struct {
	ModuleID           ModuleID       `json:"moduleId"`
	TotalLessons       int            `json:"totalLessons"`
	CompletedLessons   int            `json:"completedLessons"`
	ProgressPercentage int            `json:"progressPercentage"`
	Status             ProgressStatus `json:"status"`
}

// CourseProgress — rollup по курсу. Счетчики первичны,
// ProgressPercentage всегда пересчитывается из них.
type CourseProgress struct {
	UserID             UserID           `json:"userId"`
	CourseID           CourseID         `json:"courseId"`
	Status             ProgressStatus   `json:"status"`
	TotalLessons       int              `json:"totalLessons"`
	CompletedLessons   int              `json:"completedLessons"`
	ProgressPercentage int              `json:"progressPercentage"`
	TimeSpentSec       int64            `json:"timeSpentSec"`
	EnrolledAt         time.Time        `json:"enrolledAt"`
	LastAccessedAt     time.Time        `json:"lastAccessedAt"`
	CompletedAt        *time.Time       `json:"completedAt,omitempty"`
	Modules            []ModuleProgress `json:"modules"`
}

// OverallProgress — сводка по всем курсам пользователя.
type OverallProgress struct {
	TotalCourses     int   `json:"totalCourses"`
	CompletedCourses int   `json:"completedCourses"`
	InProgress       int   `json:"inProgress"`
	CompletedLessons int   `json:"completedLessons"`
	TimeSpentSec     int64 `json:"timeSpentSec"`
}

// Percentage = round(completed/total*100); при total <= 0 возвращает 0.
func Percentage(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}
