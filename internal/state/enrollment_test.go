package state

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/waste3d/learnplatform-api/internal/domain"
)

func newEnrollmentStore(t *testing.T) (*EnrollmentStore, *MemorySlot) {
	t.Helper()
	slot := NewMemorySlot()
	return NewEnrollmentStore(slot, zap.NewNop()), slot
}

func TestEnroll_AndQueries(t *testing.T) {
	s, _ := newEnrollmentStore(t)
	ctx := context.Background()

	e, err := s.Enroll(ctx, testUser, testCourse, domain.SourceDirect)
	require.NoError(t, err)
	assert.Equal(t, domain.EnrollmentEnrolled, e.Status)
	assert.Equal(t, 0, e.Progress)

	assert.True(t, s.IsEnrolled(testUser, testCourse))
	status, ok := s.EnrollmentStatus(testUser, testCourse)
	require.True(t, ok)
	assert.Equal(t, domain.EnrollmentEnrolled, status)

	// Вторая действующая подписка не создается
	_, err = s.Enroll(ctx, testUser, testCourse, domain.SourceDirect)
	assert.ErrorIs(t, err, domain.ErrAlreadyEnrolled)

	require.NoError(t, s.UpdateStatus(ctx, e.ID, domain.EnrollmentDropped))
	assert.False(t, s.IsEnrolled(testUser, testCourse))

	// После drop можно записаться заново
	_, err = s.Enroll(ctx, testUser, testCourse, domain.SourceDirect)
	assert.NoError(t, err)
}

func TestUpdateStatus_StateMachine(t *testing.T) {
	s, _ := newEnrollmentStore(t)
	ctx := context.Background()

	e, err := s.Enroll(ctx, testUser, testCourse, domain.SourceDirect)
	require.NoError(t, err)

	require.NoError(t, s.UpdateStatus(ctx, e.ID, domain.EnrollmentCompleted))

	got, ok := s.ActiveEnrollment(testUser, testCourse)
	require.True(t, ok)
	assert.Equal(t, domain.EnrollmentCompleted, got.Status)
	assert.NotNil(t, got.CompletedAt)
	assert.Equal(t, 100, got.Progress)

	// Из терминального состояния выхода нет
	err = s.UpdateStatus(ctx, e.ID, domain.EnrollmentDropped)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	assert.ErrorIs(t, s.UpdateStatus(ctx, "missing", domain.EnrollmentDropped), domain.ErrEnrollmentNotFound)
}

func TestFavorites_RoundTrip(t *testing.T) {
	s, _ := newEnrollmentStore(t)
	ctx := context.Background()

	assert.False(t, s.IsFavorited(testUser, testCourse))

	s.AddFavorite(ctx, testUser, testCourse)
	assert.True(t, s.IsFavorited(testUser, testCourse))

	// Повторное добавление не плодит записей
	s.AddFavorite(ctx, testUser, testCourse)
	assert.Len(t, s.UserFavorites(testUser), 1)

	s.RemoveFavorite(ctx, testUser, testCourse)
	assert.False(t, s.IsFavorited(testUser, testCourse))

	// Удаление отсутствующего — no-op
	s.RemoveFavorite(ctx, testUser, testCourse)
}

func TestRateCourse_OverwriteSemantics(t *testing.T) {
	s, _ := newEnrollmentStore(t)
	ctx := context.Background()

	first, err := s.RateCourse(ctx, testUser, testCourse, 3, "ok")
	require.NoError(t, err)
	assert.False(t, first.IsVerifiedPurchase, "no enrollment, not a verified purchase")

	_, err = s.Enroll(ctx, testUser, testCourse, domain.SourceDirect)
	require.NoError(t, err)

	second, err := s.RateCourse(ctx, testUser, testCourse, 5, "great")
	require.NoError(t, err)

	// Ровно одна запись на пару (user, course), с последними значениями
	ratings := s.CourseRatings(testCourse)
	require.Len(t, ratings, 1)
	assert.Equal(t, 5, ratings[0].Rating)
	assert.Equal(t, "great", ratings[0].Review)
	assert.True(t, ratings[0].IsVerifiedPurchase)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	_, err = s.RateCourse(ctx, testUser, testCourse, 6, "")
	assert.ErrorIs(t, err, domain.ErrInvalidRating)
}

func TestRating_OwnershipEnforced(t *testing.T) {
	s, _ := newEnrollmentStore(t)
	ctx := context.Background()

	r, err := s.RateCourse(ctx, testUser, testCourse, 4, "")
	require.NoError(t, err)

	other := domain.UserID("u2")
	assert.ErrorIs(t, s.UpdateRating(ctx, other, r.ID, 1, "spite"), domain.ErrNotRatingOwner)
	assert.ErrorIs(t, s.DeleteRating(ctx, other, r.ID), domain.ErrNotRatingOwner)

	require.NoError(t, s.UpdateRating(ctx, testUser, r.ID, 2, "meh"))
	got, ok := s.CourseRating(testUser, testCourse)
	require.True(t, ok)
	assert.Equal(t, 2, got.Rating)

	require.NoError(t, s.DeleteRating(ctx, testUser, r.ID))
	_, ok = s.CourseRating(testUser, testCourse)
	assert.False(t, ok)
}

func TestRecentActivity_OrderAndCap(t *testing.T) {
	s, _ := newEnrollmentStore(t)
	ctx := context.Background()

	for i := 0; i < maxRecentActivity+20; i++ {
		s.RecordActivity(ctx, domain.UserActivity{
			UserID:   testUser,
			Type:     domain.ActivityLessonCompleted,
			LessonID: domain.LessonID(fmt.Sprintf("l%d", i)),
		})
	}

	all := s.RecentActivity(testUser, 0)
	assert.Len(t, all, maxRecentActivity)
	// Новые записи первыми
	assert.Equal(t, domain.LessonID(fmt.Sprintf("l%d", maxRecentActivity+19)), all[0].LessonID)

	limited := s.RecentActivity(testUser, 5)
	assert.Len(t, limited, 5)
}

func TestEnrollmentStore_SnapshotRoundTrip(t *testing.T) {
	s, slot := newEnrollmentStore(t)
	ctx := context.Background()

	e, err := s.Enroll(ctx, testUser, testCourse, domain.SourceDirect)
	require.NoError(t, err)
	s.AddFavorite(ctx, testUser, testCourse)
	_, err = s.RateCourse(ctx, testUser, testCourse, 4, "solid")
	require.NoError(t, err)
	s.SetRecommendations([]domain.CourseRecommendation{{CourseID: "c9", Score: 0.5}})

	restored := NewEnrollmentStore(slot, zap.NewNop())
	require.NoError(t, restored.Rehydrate(ctx))

	got, ok := restored.ActiveEnrollment(testUser, testCourse)
	require.True(t, ok)
	assert.Equal(t, e.ID, got.ID)
	assert.True(t, restored.IsFavorited(testUser, testCourse))

	r, ok := restored.CourseRating(testUser, testCourse)
	require.True(t, ok)
	assert.Equal(t, 4, r.Rating)

	activity := restored.RecentActivity(testUser, 0)
	assert.NotEmpty(t, activity)

	// Рекомендации эфемерны и не переживают рестарт
	assert.Empty(t, restored.Recommendations())
}
