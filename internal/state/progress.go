package state

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/waste3d/learnplatform-api/internal/domain"
)

const progressSnapshotVersion = 1

// В снапшот попадают только прогресс и время последней синхронизации.
type progressSnapshot struct {
	Version        int                     `json:"version"`
	LessonProgress []domain.LessonProgress `json:"lessonProgress"`
	CourseProgress []domain.CourseProgress `json:"courseProgress"`
	LastSyncAt     time.Time               `json:"lastSyncTime"`
}

// ModuleShell — заготовка модуля для инициализации rollup-а курса.
type ModuleShell struct {
	ModuleID     domain.ModuleID
	TotalLessons int
}

// ProgressStore хранит прогресс по урокам и его rollup по курсам.
// Rollup срабатывает только для курсов, у которых заведена
// CourseProgress-заготовка (создается при записи на курс).
type ProgressStore struct {
	mu      sync.RWMutex
	lessons map[domain.UserID]map[domain.LessonID]*domain.LessonProgress
	courses map[domain.UserID]map[domain.CourseID]*domain.CourseProgress

	lastSyncAt time.Time

	slot Slot
	log  *zap.Logger
}

func NewProgressStore(slot Slot, log *zap.Logger) *ProgressStore {
	return &ProgressStore{
		lessons: make(map[domain.UserID]map[domain.LessonID]*domain.LessonProgress),
		courses: make(map[domain.UserID]map[domain.CourseID]*domain.CourseProgress),
		slot:    slot,
		log:     log,
	}
}

// Rehydrate читает снапшот и делает его текущим состоянием стора.
// Снапшот незнакомой версии отбрасывается, стор стартует пустым.
func (s *ProgressStore) Rehydrate(ctx context.Context) error {
	data, err := s.slot.Load(ctx, ProgressSnapshotKey)
	if err != nil {
		if err == ErrNoSnapshot {
			return nil
		}
		return err
	}

	var snap progressSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	if snap.Version != progressSnapshotVersion {
		s.log.Warn("discarding progress snapshot of unknown version",
			zap.Int("version", snap.Version))
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range snap.LessonProgress {
		lp := snap.LessonProgress[i]
		if s.lessons[lp.UserID] == nil {
			s.lessons[lp.UserID] = make(map[domain.LessonID]*domain.LessonProgress)
		}
		s.lessons[lp.UserID][lp.LessonID] = &lp
	}
	for i := range snap.CourseProgress {
		cp := snap.CourseProgress[i]
		if s.courses[cp.UserID] == nil {
			s.courses[cp.UserID] = make(map[domain.CourseID]*domain.CourseProgress)
		}
		s.courses[cp.UserID][cp.CourseID] = &cp
	}
	s.lastSyncAt = snap.LastSyncAt
	return nil
}

// InitCourse заводит CourseProgress-заготовку. Без нее завершения уроков
// не попадают в rollup. Повторный вызов ничего не меняет.
func (s *ProgressStore) InitCourse(ctx context.Context, user domain.UserID, course domain.CourseID, modules []ModuleShell) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.courses[user] == nil {
		s.courses[user] = make(map[domain.CourseID]*domain.CourseProgress)
	}
	if _, ok := s.courses[user][course]; ok {
		return
	}

	now := time.Now()
	cp := &domain.CourseProgress{
		UserID:         user,
		CourseID:       course,
		Status:         domain.ProgressNotStarted,
		EnrolledAt:     now,
		LastAccessedAt: now,
	}
	for _, m := range modules {
		cp.TotalLessons += m.TotalLessons
		cp.Modules = append(cp.Modules, domain.ModuleProgress{
			ModuleID:     m.ModuleID,
			TotalLessons: m.TotalLessons,
			Status:       domain.ProgressNotStarted,
		})
	}
	s.courses[user][course] = cp
	s.persistLocked(ctx)
}

// StartLesson создает запись урока in-progress; для уже существующей
// записи только обновляет LastAccessedAt курса.
func (s *ProgressStore) StartLesson(ctx context.Context, user domain.UserID, course domain.CourseID, module domain.ModuleID, lesson domain.LessonID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lp := s.lessonLocked(user, lesson)
	if lp == nil {
		now := time.Now()
		lp = &domain.LessonProgress{
			UserID:    user,
			LessonID:  lesson,
			CourseID:  course,
			ModuleID:  module,
			Status:    domain.ProgressInProgress,
			StartedAt: &now,
		}
		if s.lessons[user] == nil {
			s.lessons[user] = make(map[domain.LessonID]*domain.LessonProgress)
		}
		s.lessons[user][lesson] = lp
	}
	if cp, ok := s.courses[user][course]; ok {
		cp.LastAccessedAt = time.Now()
		if cp.Status == domain.ProgressNotStarted {
			cp.Status = domain.ProgressInProgress
		}
	}
	s.persistLocked(ctx)
}

// MarkLessonComplete идемпотентно отмечает урок завершенным и синхронно
// пересчитывает rollup курса. TimeSpent записи сохраняется, CompletedAt
// обновляется на каждый вызов.
func (s *ProgressStore) MarkLessonComplete(ctx context.Context, user domain.UserID, course domain.CourseID, module domain.ModuleID, lesson domain.LessonID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	lp := s.lessonLocked(user, lesson)
	if lp == nil {
		lp = &domain.LessonProgress{
			UserID:    user,
			LessonID:  lesson,
			CourseID:  course,
			ModuleID:  module,
			StartedAt: &now,
		}
		if s.lessons[user] == nil {
			s.lessons[user] = make(map[domain.LessonID]*domain.LessonProgress)
		}
		s.lessons[user][lesson] = lp
	}
	if lp.StartedAt == nil {
		lp.StartedAt = &now
	}
	lp.Status = domain.ProgressCompleted
	lp.CompletedAt = &now

	s.recomputeCourseLocked(user, course, now)
	s.persistLocked(ctx)
}

// AddTimeSpent прибавляет delta к уже существующей записи урока.
// Без записи (урок не начат) вызов молча игнорируется.
func (s *ProgressStore) AddTimeSpent(ctx context.Context, user domain.UserID, lesson domain.LessonID, deltaSec int64) error {
	if deltaSec < 0 {
		return domain.ErrNegativeDuration
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	lp := s.lessonLocked(user, lesson)
	if lp == nil {
		return nil
	}
	lp.TimeSpentSec += deltaSec
	if cp, ok := s.courses[user][lp.CourseID]; ok {
		cp.TimeSpentSec += deltaSec
		cp.LastAccessedAt = time.Now()
	}
	s.persistLocked(ctx)
	return nil
}

// LessonProgress возвращает копию записи урока.
func (s *ProgressStore) LessonProgress(user domain.UserID, lesson domain.LessonID) (domain.LessonProgress, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lp := s.lessonLocked(user, lesson)
	if lp == nil {
		return domain.LessonProgress{}, false
	}
	return *lp, true
}

// CourseProgress возвращает глубокую копию rollup-а курса.
func (s *ProgressStore) CourseProgress(user domain.UserID, course domain.CourseID) (domain.CourseProgress, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp, ok := s.courses[user][course]
	if !ok {
		return domain.CourseProgress{}, false
	}
	out := *cp
	out.Modules = append([]domain.ModuleProgress(nil), cp.Modules...)
	return out, true
}

// UserCourses возвращает rollup-ы всех курсов пользователя.
func (s *ProgressStore) UserCourses(user domain.UserID) []domain.CourseProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.CourseProgress
	for _, cp := range s.courses[user] {
		c := *cp
		c.Modules = append([]domain.ModuleProgress(nil), cp.Modules...)
		out = append(out, c)
	}
	return out
}

// OverallProgress — сводка по всем курсам пользователя.
func (s *ProgressStore) OverallProgress(user domain.UserID) domain.OverallProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out domain.OverallProgress
	for _, cp := range s.courses[user] {
		out.TotalCourses++
		out.CompletedLessons += cp.CompletedLessons
		out.TimeSpentSec += cp.TimeSpentSec
		switch cp.Status {
		case domain.ProgressCompleted:
			out.CompletedCourses++
		case domain.ProgressInProgress:
			out.InProgress++
		}
	}
	return out
}

func (s *ProgressStore) lessonLocked(user domain.UserID, lesson domain.LessonID) *domain.LessonProgress {
	return s.lessons[user][lesson]
}

// recomputeCourseLocked пересчитывает счетчики курса и его модулей из
// записей уроков. Если заготовки курса нет, обновление пропускается.
func (s *ProgressStore) recomputeCourseLocked(user domain.UserID, course domain.CourseID, now time.Time) {
	cp, ok := s.courses[user][course]
	if !ok {
		return
	}

	completed := 0
	perModule := make(map[domain.ModuleID]int)
	for _, lp := range s.lessons[user] {
		if lp.CourseID == course && lp.Status == domain.ProgressCompleted {
			completed++
			perModule[lp.ModuleID]++
		}
	}

	cp.CompletedLessons = completed
	cp.ProgressPercentage = domain.Percentage(completed, cp.TotalLessons)
	cp.LastAccessedAt = now

	for i := range cp.Modules {
		m := &cp.Modules[i]
		m.CompletedLessons = perModule[m.ModuleID]
		m.ProgressPercentage = domain.Percentage(m.CompletedLessons, m.TotalLessons)
		switch {
		case m.TotalLessons > 0 && m.CompletedLessons == m.TotalLessons:
			m.Status = domain.ProgressCompleted
		case m.CompletedLessons > 0:
			m.Status = domain.ProgressInProgress
		default:
			m.Status = domain.ProgressNotStarted
		}
	}

	if cp.TotalLessons > 0 && completed == cp.TotalLessons {
		cp.Status = domain.ProgressCompleted
		if cp.CompletedAt == nil {
			cp.CompletedAt = &now
		}
	} else {
		cp.Status = domain.ProgressInProgress
		cp.CompletedAt = nil
	}
}

// persistLocked пишет снапшот в слот. Ошибка записи не валит мутацию,
// стор продолжает отдавать текущее состояние.
func (s *ProgressStore) persistLocked(ctx context.Context) {
	snap := progressSnapshot{Version: progressSnapshotVersion, LastSyncAt: time.Now()}
	for _, byLesson := range s.lessons {
		for _, lp := range byLesson {
			snap.LessonProgress = append(snap.LessonProgress, *lp)
		}
	}
	for _, byCourse := range s.courses {
		for _, cp := range byCourse {
			snap.CourseProgress = append(snap.CourseProgress, *cp)
		}
	}
	s.lastSyncAt = snap.LastSyncAt

	data, err := json.Marshal(snap)
	if err != nil {
		s.log.Error("marshal progress snapshot", zap.Error(err))
		return
	}
	if err := s.slot.Save(ctx, ProgressSnapshotKey, data); err != nil {
		s.log.Warn("persist progress snapshot", zap.Error(err))
	}
}
