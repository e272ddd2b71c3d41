package domain

import "time"

type EnrollmentStatus string

const (
	EnrollmentPending   EnrollmentStatus = "pending"
	EnrollmentEnrolled  EnrollmentStatus = "enrolled"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentDropped   EnrollmentStatus = "dropped"
)

type EnrollmentSource string

const (
	SourceDirect         EnrollmentSource = "direct"
	SourceRecommendation EnrollmentSource = "recommendation"
	SourceRequirement    EnrollmentSource = "requirement"
)

// Enrollment — запись о подписке пользователя на курс.
type Enrollment struct {
	ID          string           `json:"id"`
	UserID      UserID           `json:"userId"`
	CourseID    CourseID         `json:"courseId"`
	Status      EnrollmentStatus `json:"status"`
	Source      EnrollmentSource `json:"source"`
	Progress    int              `json:"progress"` // 0-100, дублирует rollup для списков
	EnrolledAt  time.Time        `json:"enrolledAt"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
	DroppedAt   *time.Time       `json:"droppedAt,omitempty"`
}

// Active — считается ли запись действующей подпиской.
func (e *Enrollment) Active() bool {
	return e.Status != EnrollmentDropped
}

// Terminal — из completed и dropped выхода нет.
func (s EnrollmentStatus) Terminal() bool {
	return s == EnrollmentCompleted || s == EnrollmentDropped
}

// CanTransitionTo проверяет переход по машине состояний
// pending -> enrolled -> {completed, dropped}.
func (s EnrollmentStatus) CanTransitionTo(next EnrollmentStatus) bool {
	if s.Terminal() {
		return false
	}
	switch s {
	case EnrollmentPending:
		return next == EnrollmentEnrolled || next == EnrollmentDropped
	case EnrollmentEnrolled:
		return next == EnrollmentCompleted || next == EnrollmentDropped
	}
	return false
}
