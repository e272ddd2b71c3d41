package state

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/waste3d/learnplatform-api/internal/domain"
)

const enrollmentSnapshotVersion = 1

// Лента ограничена кольцом последних записей, чтобы не расти бесконечно.
const maxRecentActivity = 100

// Рекомендации и per-call ошибки в снапшот не входят.
type enrollmentSnapshot struct {
	Version        int                     `json:"version"`
	Enrollments    []domain.Enrollment     `json:"enrollments"`
	Favorites      []domain.CourseFavorite `json:"favorites"`
	Ratings        []domain.CourseRating   `json:"ratings"`
	RecentActivity []domain.UserActivity   `json:"recentActivity"`
}

// EnrollmentStore хранит подписки, избранное, оценки и ленту действий.
// Вложенные map-ы вместо строковых составных ключей.
type EnrollmentStore struct {
	mu          sync.RWMutex
	enrollments map[string]*domain.Enrollment // по ID записи
	favorites   map[domain.UserID]map[domain.CourseID]domain.CourseFavorite
	ratings     map[domain.UserID]map[domain.CourseID]*domain.CourseRating

	recentActivity  []domain.UserActivity         // новые в начале
	recommendations []domain.CourseRecommendation // эфемерные

	slot Slot
	log  *zap.Logger
}

func NewEnrollmentStore(slot Slot, log *zap.Logger) *EnrollmentStore {
	return &EnrollmentStore{
		enrollments: make(map[string]*domain.Enrollment),
		favorites:   make(map[domain.UserID]map[domain.CourseID]domain.CourseFavorite),
		ratings:     make(map[domain.UserID]map[domain.CourseID]*domain.CourseRating),
		slot:        slot,
		log:         log,
	}
}

// Rehydrate адаптирует снапшот как текущее состояние. Эфемерные поля
// (рекомендации) всегда стартуют пустыми.
func (s *EnrollmentStore) Rehydrate(ctx context.Context) error {
	data, err := s.slot.Load(ctx, EnrollmentSnapshotKey)
	if err != nil {
		if err == ErrNoSnapshot {
			return nil
		}
		return err
	}

	var snap enrollmentSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	if snap.Version != enrollmentSnapshotVersion {
		s.log.Warn("discarding enrollment snapshot of unknown version",
			zap.Int("version", snap.Version))
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range snap.Enrollments {
		e := snap.Enrollments[i]
		s.enrollments[e.ID] = &e
	}
	for _, f := range snap.Favorites {
		if s.favorites[f.UserID] == nil {
			s.favorites[f.UserID] = make(map[domain.CourseID]domain.CourseFavorite)
		}
		s.favorites[f.UserID][f.CourseID] = f
	}
	for i := range snap.Ratings {
		r := snap.Ratings[i]
		if s.ratings[r.UserID] == nil {
			s.ratings[r.UserID] = make(map[domain.CourseID]*domain.CourseRating)
		}
		s.ratings[r.UserID][r.CourseID] = &r
	}
	s.recentActivity = snap.RecentActivity
	return nil
}

// Enroll создает подписку со статусом enrolled. Вторая действующая
// подписка на ту же пару (user, course) не создается.
func (s *EnrollmentStore) Enroll(ctx context.Context, user domain.UserID, course domain.CourseID, source domain.EnrollmentSource) (*domain.Enrollment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e := s.activeLocked(user, course); e != nil {
		return nil, domain.ErrAlreadyEnrolled
	}

	e := &domain.Enrollment{
		ID:         uuid.NewString(),
		UserID:     user,
		CourseID:   course,
		Status:     domain.EnrollmentEnrolled,
		Source:     source,
		EnrolledAt: time.Now(),
	}
	s.enrollments[e.ID] = e
	s.appendActivityLocked(domain.UserActivity{
		UserID:   user,
		Type:     domain.ActivityCourseEnrolled,
		CourseID: course,
	})
	s.persistLocked(ctx)

	out := *e
	return &out, nil
}

// UpdateStatus переводит подписку по машине состояний
// pending -> enrolled -> {completed, dropped}. Из терминальных выхода нет.
func (s *EnrollmentStore) UpdateStatus(ctx context.Context, enrollmentID string, status domain.EnrollmentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.enrollments[enrollmentID]
	if !ok {
		return domain.ErrEnrollmentNotFound
	}
	if !e.Status.CanTransitionTo(status) {
		return domain.ErrInvalidTransition
	}

	now := time.Now()
	e.Status = status
	switch status {
	case domain.EnrollmentCompleted:
		e.CompletedAt = &now
		e.Progress = 100
		s.appendActivityLocked(domain.UserActivity{
			UserID:   e.UserID,
			Type:     domain.ActivityCourseCompleted,
			CourseID: e.CourseID,
		})
	case domain.EnrollmentDropped:
		e.DroppedAt = &now
		s.appendActivityLocked(domain.UserActivity{
			UserID:   e.UserID,
			Type:     domain.ActivityCourseDropped,
			CourseID: e.CourseID,
		})
	}
	s.persistLocked(ctx)
	return nil
}

// SetProgress синхронизирует процент на записи подписки (для списков).
func (s *EnrollmentStore) SetProgress(ctx context.Context, user domain.UserID, course domain.CourseID, progress int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.activeLocked(user, course)
	if e == nil {
		return
	}
	e.Progress = progress
	s.persistLocked(ctx)
}

// IsEnrolled — есть ли не-dropped подписка на курс.
func (s *EnrollmentStore) IsEnrolled(user domain.UserID, course domain.CourseID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeLocked(user, course) != nil
}

// EnrollmentStatus возвращает статус действующей подписки.
func (s *EnrollmentStore) EnrollmentStatus(user domain.UserID, course domain.CourseID) (domain.EnrollmentStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e := s.activeLocked(user, course); e != nil {
		return e.Status, true
	}
	return "", false
}

// ActiveEnrollment возвращает копию действующей подписки на курс.
func (s *EnrollmentStore) ActiveEnrollment(user domain.UserID, course domain.CourseID) (domain.Enrollment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e := s.activeLocked(user, course); e != nil {
		return *e, true
	}
	return domain.Enrollment{}, false
}

// UserEnrollments — все подписки пользователя, новые первыми.
// Линейный скан, как и в остальных запросах: таблица маленькая.
func (s *EnrollmentStore) UserEnrollments(user domain.UserID) []domain.Enrollment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Enrollment
	for _, e := range s.enrollments {
		if e.UserID == user {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EnrolledAt.After(out[j].EnrolledAt)
	})
	return out
}

// AddFavorite добавляет курс в избранное; повторный вызов перезаписывает.
func (s *EnrollmentStore) AddFavorite(ctx context.Context, user domain.UserID, course domain.CourseID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.favorites[user] == nil {
		s.favorites[user] = make(map[domain.CourseID]domain.CourseFavorite)
	}
	s.favorites[user][course] = domain.CourseFavorite{
		UserID:   user,
		CourseID: course,
		AddedAt:  time.Now(),
	}
	s.appendActivityLocked(domain.UserActivity{
		UserID:   user,
		Type:     domain.ActivityFavoriteAdded,
		CourseID: course,
	})
	s.persistLocked(ctx)
}

// RemoveFavorite — no-op, если курса в избранном нет.
func (s *EnrollmentStore) RemoveFavorite(ctx context.Context, user domain.UserID, course domain.CourseID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.favorites[user][course]; !ok {
		return
	}
	delete(s.favorites[user], course)
	s.persistLocked(ctx)
}

func (s *EnrollmentStore) IsFavorited(user domain.UserID, course domain.CourseID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.favorites[user][course]
	return ok
}

func (s *EnrollmentStore) UserFavorites(user domain.UserID) []domain.CourseFavorite {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.CourseFavorite
	for _, f := range s.favorites[user] {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].AddedAt.After(out[j].AddedAt)
	})
	return out
}

// RateCourse ставит оценку 1-5. Повторная оценка той же пары (user, course)
// перезаписывает запись (CreatedAt сохраняется). IsVerifiedPurchase
// выставляется только при действующей подписке на курс.
func (s *EnrollmentStore) RateCourse(ctx context.Context, user domain.UserID, course domain.CourseID, rating int, review string) (*domain.CourseRating, error) {
	if rating < 1 || rating > 5 {
		return nil, domain.ErrInvalidRating
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	r := s.ratings[user][course]
	if r == nil {
		r = &domain.CourseRating{
			ID:        uuid.NewString(),
			UserID:    user,
			CourseID:  course,
			CreatedAt: now,
		}
		if s.ratings[user] == nil {
			s.ratings[user] = make(map[domain.CourseID]*domain.CourseRating)
		}
		s.ratings[user][course] = r
	}
	r.Rating = rating
	r.Review = review
	r.IsVerifiedPurchase = s.activeLocked(user, course) != nil
	r.UpdatedAt = now

	s.appendActivityLocked(domain.UserActivity{
		UserID:   user,
		Type:     domain.ActivityRatingGiven,
		CourseID: course,
		Metadata: map[string]string{"rating": strconv.Itoa(rating)},
	})
	s.persistLocked(ctx)

	out := *r
	return &out, nil
}

// UpdateRating меняет оценку по ID. Чужую оценку менять нельзя —
// проверка владельца здесь, а не в UI.
func (s *EnrollmentStore) UpdateRating(ctx context.Context, user domain.UserID, ratingID string, rating int, review string) error {
	if rating < 1 || rating > 5 {
		return domain.ErrInvalidRating
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.ratingByIDLocked(ratingID)
	if r == nil {
		return domain.ErrRatingNotFound
	}
	if r.UserID != user {
		return domain.ErrNotRatingOwner
	}
	r.Rating = rating
	r.Review = review
	r.UpdatedAt = time.Now()
	s.persistLocked(ctx)
	return nil
}

// DeleteRating удаляет оценку по ID с той же проверкой владельца.
func (s *EnrollmentStore) DeleteRating(ctx context.Context, user domain.UserID, ratingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.ratingByIDLocked(ratingID)
	if r == nil {
		return domain.ErrRatingNotFound
	}
	if r.UserID != user {
		return domain.ErrNotRatingOwner
	}
	delete(s.ratings[r.UserID], r.CourseID)
	s.persistLocked(ctx)
	return nil
}

// CourseRatings — все оценки курса, без сортировки; среднее и гистограмму
// считают вызывающие.
func (s *EnrollmentStore) CourseRatings(course domain.CourseID) []domain.CourseRating {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.CourseRating
	for _, byCourse := range s.ratings {
		if r, ok := byCourse[course]; ok {
			out = append(out, *r)
		}
	}
	return out
}

func (s *EnrollmentStore) UserRatings(user domain.UserID) []domain.CourseRating {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.CourseRating
	for _, r := range s.ratings[user] {
		out = append(out, *r)
	}
	return out
}

func (s *EnrollmentStore) CourseRating(user domain.UserID, course domain.CourseID) (domain.CourseRating, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.ratings[user][course]; ok {
		return *r, true
	}
	return domain.CourseRating{}, false
}

// RecordActivity добавляет запись в ленту от имени вызывающего слоя
// (например lesson_completed из learning-усекейса).
func (s *EnrollmentStore) RecordActivity(ctx context.Context, a domain.UserActivity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendActivityLocked(a)
	s.persistLocked(ctx)
}

// RecentActivity — последние записи ленты пользователя, новые первыми.
func (s *EnrollmentStore) RecentActivity(user domain.UserID, limit int) []domain.UserActivity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.UserActivity
	for _, a := range s.recentActivity {
		if a.UserID != user {
			continue
		}
		out = append(out, a)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// SetRecommendations заменяет список целиком, без merge.
func (s *EnrollmentStore) SetRecommendations(recs []domain.CourseRecommendation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recommendations = recs
}

func (s *EnrollmentStore) Recommendations() []domain.CourseRecommendation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.CourseRecommendation(nil), s.recommendations...)
}

func (s *EnrollmentStore) activeLocked(user domain.UserID, course domain.CourseID) *domain.Enrollment {
	for _, e := range s.enrollments {
		if e.UserID == user && e.CourseID == course && e.Active() {
			return e
		}
	}
	return nil
}

func (s *EnrollmentStore) ratingByIDLocked(id string) *domain.CourseRating {
	for _, byCourse := range s.ratings {
		for _, r := range byCourse {
			if r.ID == id {
				return r
			}
		}
	}
	return nil
}

func (s *EnrollmentStore) appendActivityLocked(a domain.UserActivity) {
	a.ID = uuid.NewString()
	a.Timestamp = time.Now()
	s.recentActivity = append([]domain.UserActivity{a}, s.recentActivity...)
	if len(s.recentActivity) > maxRecentActivity {
		s.recentActivity = s.recentActivity[:maxRecentActivity]
	}
}

func (s *EnrollmentStore) persistLocked(ctx context.Context) {
	snap := enrollmentSnapshot{Version: enrollmentSnapshotVersion}
	for _, e := range s.enrollments {
		snap.Enrollments = append(snap.Enrollments, *e)
	}
	for _, byCourse := range s.favorites {
		for _, f := range byCourse {
			snap.Favorites = append(snap.Favorites, f)
		}
	}
	for _, byCourse := range s.ratings {
		for _, r := range byCourse {
			snap.Ratings = append(snap.Ratings, *r)
		}
	}
	snap.RecentActivity = s.recentActivity

	data, err := json.Marshal(snap)
	if err != nil {
		s.log.Error("marshal enrollment snapshot", zap.Error(err))
		return
	}
	if err := s.slot.Save(ctx, EnrollmentSnapshotKey, data); err != nil {
		s.log.Warn("persist enrollment snapshot", zap.Error(err))
	}
}
