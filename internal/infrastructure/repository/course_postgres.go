package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/waste3d/learnplatform-api/internal/domain"
)

type CourseRepository struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewCourseRepository(db *gorm.DB, rdb *redis.Client) *CourseRepository {
	return &CourseRepository{db: db, rdb: rdb}
}

// === КЕШИРУЕМ СПИСОК КУРСОВ ===
func (r *CourseRepository) List(ctx context.Context, search, category string, limit, offset int) ([]domain.Course, int64, error) {
	key := fmt.Sprintf("courses:list:%s:%s:%d:%d", search, category, limit, offset)

	// 1. Кеш
	if val, err := r.rdb.Get(ctx, key).Result(); err == nil {
		var cached struct {
			Courses []domain.Course
			Total   int64
		}
		if json.Unmarshal([]byte(val), &cached) == nil {
			return cached.Courses, cached.Total, nil
		}
	}

	// 2. БД
	var courses []domain.Course
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Course{})
	if search != "" {
		query = query.Where("title ILIKE ?", "%"+search+"%")
	}
	if category != "" {
		query = query.Where("category = ?", category)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Limit(limit).Offset(offset).Order("created_at desc").Find(&courses).Error; err != nil {
		return nil, 0, err
	}

	// 3. Кеш на 10 минут, курсы добавляются не часто
	cacheData := struct {
		Courses []domain.Course
		Total   int64
	}{courses, total}
	if data, err := json.Marshal(cacheData); err == nil {
		r.rdb.Set(ctx, key, data, 10*time.Minute)
	}

	return courses, total, nil
}

// === КЕШИРУЕМ ОДИН КУРС (С МОДУЛЯМИ И УРОКАМИ) ===
func (r *CourseRepository) GetWithContent(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	key := "course:detail:" + id.String()

	if val, err := r.rdb.Get(ctx, key).Result(); err == nil {
		var c domain.Course
		if json.Unmarshal([]byte(val), &c) == nil {
			return &c, nil
		}
	}

	var course domain.Course
	err := r.db.WithContext(ctx).
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("\"order\" asc")
		}).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("\"order\" asc")
		}).
		First(&course, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, err
	}

	if data, err := json.Marshal(course); err == nil {
		r.rdb.Set(ctx, key, data, 1*time.Hour)
	}

	return &course, nil
}

func (r *CourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	var course domain.Course
	err := r.db.WithContext(ctx).First(&course, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCourseNotFound
	}
	return &course, err
}

func (r *CourseRepository) Create(ctx context.Context, c *domain.Course) error {
	// Списки живут в кеше максимум 10 минут, инвалидируем только деталь
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CourseRepository) Update(ctx context.Context, c *domain.Course) error {
	r.rdb.Del(ctx, "course:detail:"+c.ID.String())
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *CourseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.rdb.Del(ctx, "course:detail:"+id.String())
	return r.db.WithContext(ctx).Delete(&domain.Course{}, "id = ?", id).Error
}

func (r *CourseRepository) CreateModules(ctx context.Context, modules []domain.Module) error {
	for _, m := range modules {
		r.rdb.Del(ctx, "course:detail:"+m.CourseID.String())
	}
	return r.db.WithContext(ctx).Create(&modules).Error
}

func (r *CourseRepository) CreateLessons(ctx context.Context, lessons []domain.Lesson) error {
	for _, l := range lessons {
		r.rdb.Del(ctx, "course:detail:"+l.CourseID.String())
	}
	return r.db.WithContext(ctx).Create(&lessons).Error
}

// Categories — список категорий каталога для фильтров.
func (r *CourseRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).Model(&domain.Course{}).
		Distinct("category").
		Order("category asc").
		Pluck("category", &categories).Error
	return categories, err
}
