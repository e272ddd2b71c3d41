package usecase

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/waste3d/learnplatform-api/internal/domain"
	"github.com/waste3d/learnplatform-api/internal/state"
)

// Catalog — то, что learning-слою нужно от каталога курсов.
type Catalog interface {
	GetWithContent(ctx context.Context, id uuid.UUID) (*domain.Course, error)
	List(ctx context.Context, search, category string, limit, offset int) ([]domain.Course, int64, error)
}

// LearningUseCase связывает каталог и сторы прогресса/подписок:
// запись на курс заводит rollup-заготовку, завершение последнего урока
// закрывает подписку.
type LearningUseCase struct {
	catalog     Catalog
	enrollments *state.EnrollmentStore
	progress    *state.ProgressStore
	log         *zap.Logger
}

func NewLearningUseCase(catalog Catalog, es *state.EnrollmentStore, ps *state.ProgressStore, log *zap.Logger) *LearningUseCase {
	return &LearningUseCase{
		catalog:     catalog,
		enrollments: es,
		progress:    ps,
		log:         log,
	}
}

// Dashboard — агрегат для главной страницы кабинета.
type Dashboard struct {
	Enrollments     []domain.Enrollment           `json:"enrollments"`
	Courses         []domain.CourseProgress       `json:"courses"`
	Favorites       []domain.CourseFavorite       `json:"favorites"`
	Ratings         []domain.CourseRating         `json:"ratings"`
	RecentActivity  []domain.UserActivity         `json:"recentActivity"`
	Recommendations []domain.CourseRecommendation `json:"recommendations"`
	Overall         domain.OverallProgress        `json:"overall"`
}

// Enroll записывает пользователя на курс. ID курса проверяется по каталогу,
// сторы остаются permissive и этим не занимаются.
func (uc *LearningUseCase) Enroll(ctx context.Context, user domain.UserID, courseID domain.CourseID, source domain.EnrollmentSource) (*domain.Enrollment, error) {
	course, err := uc.lookupCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	e, err := uc.enrollments.Enroll(ctx, user, courseID, source)
	if err != nil {
		return nil, err
	}

	shells := make([]state.ModuleShell, 0, len(course.Modules))
	for i := range course.Modules {
		m := &course.Modules[i]
		shells = append(shells, state.ModuleShell{
			ModuleID:     domain.ModuleID(m.ID.String()),
			TotalLessons: len(m.Lessons),
		})
	}
	uc.progress.InitCourse(ctx, user, courseID, shells)

	uc.log.Info("user enrolled",
		zap.String("user", user.String()),
		zap.String("course", courseID.String()))
	return e, nil
}

// StartLesson отмечает начало урока (нужно для учета времени).
func (uc *LearningUseCase) StartLesson(ctx context.Context, user domain.UserID, courseID domain.CourseID, lessonID domain.LessonID) error {
	course, err := uc.lookupCourse(ctx, courseID)
	if err != nil {
		return err
	}
	lesson, ok := course.FindLesson(lessonID)
	if !ok {
		return domain.ErrLessonNotFound
	}
	uc.progress.StartLesson(ctx, user, courseID, domain.ModuleID(lesson.ModuleID.String()), lessonID)
	return nil
}

// CompleteLesson идемпотентно завершает урок. Если после пересчета курс
// дошел до 100%, действующая подписка переводится в completed.
func (uc *LearningUseCase) CompleteLesson(ctx context.Context, user domain.UserID, courseID domain.CourseID, lessonID domain.LessonID) error {
	course, err := uc.lookupCourse(ctx, courseID)
	if err != nil {
		return err
	}
	lesson, ok := course.FindLesson(lessonID)
	if !ok {
		return domain.ErrLessonNotFound
	}

	prev, hadRecord := uc.progress.LessonProgress(user, lessonID)
	alreadyDone := hadRecord && prev.Status == domain.ProgressCompleted
	uc.progress.MarkLessonComplete(ctx, user, courseID, domain.ModuleID(lesson.ModuleID.String()), lessonID)

	cp, ok := uc.progress.CourseProgress(user, courseID)
	if !ok {
		return nil
	}

	if !alreadyDone {
		uc.enrollments.RecordActivity(ctx, domain.UserActivity{
			UserID:   user,
			Type:     domain.ActivityLessonCompleted,
			CourseID: courseID,
			LessonID: lessonID,
		})
	}
	uc.enrollments.SetProgress(ctx, user, courseID, cp.ProgressPercentage)

	if cp.Status == domain.ProgressCompleted {
		if e, ok := uc.enrollments.ActiveEnrollment(user, courseID); ok && e.Status == domain.EnrollmentEnrolled {
			if err := uc.enrollments.UpdateStatus(ctx, e.ID, domain.EnrollmentCompleted); err != nil {
				uc.log.Warn("close enrollment", zap.Error(err))
			}
		}
	}
	return nil
}

// RecordTime добавляет время к уже начатому уроку.
func (uc *LearningUseCase) RecordTime(ctx context.Context, user domain.UserID, lessonID domain.LessonID, deltaSec int64) error {
	return uc.progress.AddTimeSpent(ctx, user, lessonID, deltaSec)
}

// RefreshRecommendations пересобирает список рекомендаций: курсы тех же
// категорий, что и действующие подписки, затем остальные как "популярные".
// Список заменяется целиком.
func (uc *LearningUseCase) RefreshRecommendations(ctx context.Context, user domain.UserID, limit int) ([]domain.CourseRecommendation, error) {
	courses, _, err := uc.catalog.List(ctx, "", "", 100, 0)
	if err != nil {
		return nil, err
	}

	enrolled := make(map[domain.CourseID]bool)
	categories := make(map[string]bool)
	for _, e := range uc.enrollments.UserEnrollments(user) {
		if !e.Active() {
			continue
		}
		enrolled[e.CourseID] = true
		for i := range courses {
			if domain.CourseID(courses[i].ID.String()) == e.CourseID {
				categories[courses[i].Category] = true
			}
		}
	}

	var recs []domain.CourseRecommendation
	for i := range courses {
		c := &courses[i]
		id := domain.CourseID(c.ID.String())
		if enrolled[id] {
			continue
		}
		if categories[c.Category] {
			recs = append(recs, domain.CourseRecommendation{
				CourseID:    id,
				Score:       0.8,
				Reason:      domain.ReasonSameCategory,
				Explanation: "More courses in " + c.Category,
			})
		} else {
			recs = append(recs, domain.CourseRecommendation{
				CourseID:    id,
				Score:       0.4,
				Reason:      domain.ReasonPopular,
				Explanation: "Popular on the platform",
			})
		}
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}

	uc.enrollments.SetRecommendations(recs)
	return recs, nil
}

// Dashboard собирает все данные кабинета одним чтением.
func (uc *LearningUseCase) Dashboard(ctx context.Context, user domain.UserID) *Dashboard {
	return &Dashboard{
		Enrollments:     uc.enrollments.UserEnrollments(user),
		Courses:         uc.progress.UserCourses(user),
		Favorites:       uc.enrollments.UserFavorites(user),
		Ratings:         uc.enrollments.UserRatings(user),
		RecentActivity:  uc.enrollments.RecentActivity(user, 20),
		Recommendations: uc.enrollments.Recommendations(),
		Overall:         uc.progress.OverallProgress(user),
	}
}

func (uc *LearningUseCase) lookupCourse(ctx context.Context, courseID domain.CourseID) (*domain.Course, error) {
	id, err := uuid.Parse(courseID.String())
	if err != nil {
		return nil, domain.ErrCourseNotFound
	}
	return uc.catalog.GetWithContent(ctx, id)
}
