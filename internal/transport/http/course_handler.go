package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/waste3d/learnplatform-api/internal/domain"
)

type CourseStore interface {
	List(ctx context.Context, search, category string, limit, offset int) ([]domain.Course, int64, error)
	GetWithContent(ctx context.Context, id uuid.UUID) (*domain.Course, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error)
	Create(ctx context.Context, c *domain.Course) error
	Update(ctx context.Context, c *domain.Course) error
	Delete(ctx context.Context, id uuid.UUID) error
	CreateModules(ctx context.Context, modules []domain.Module) error
	CreateLessons(ctx context.Context, lessons []domain.Lesson) error
	Categories(ctx context.Context) ([]string, error)
}

type UserDirectory interface {
	User(ctx context.Context, userID string) (*domain.User, error)
}

type CourseHandler struct {
	courses CourseStore
	auth    UserDirectory
}

func NewCourseHandler(courses CourseStore, auth UserDirectory) *CourseHandler {
	return &CourseHandler{courses: courses, auth: auth}
}

type createLessonReq struct {
	Title       string `json:"title" binding:"required"`
	ContentLink string `json:"contentLink"`
	DurationSec int64  `json:"durationSec"`
	Order       int    `json:"order"`
}

type createModuleReq struct {
	Title   string            `json:"title" binding:"required"`
	Order   int               `json:"order"`
	Lessons []createLessonReq `json:"lessons" binding:"required,min=1,dive"`
}

type createCourseReq struct {
	Title       string            `json:"title" binding:"required"`
	Description string            `json:"description"`
	Category    string            `json:"category" binding:"required"`
	Level       string            `json:"level" binding:"omitempty,oneof=beginner intermediate advanced"`
	Duration    string            `json:"duration"`
	CoverURL    string            `json:"coverUrl"`
	Modules     []createModuleReq `json:"modules" binding:"required,min=1,dive"`
}

// GET /api/v1/courses
func (h *CourseHandler) List(c *gin.Context) {
	search := c.Query("search")
	category := c.Query("category")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	courses, total, err := h.courses.List(c, search, category, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses, "total": total})
}

// GET /api/v1/courses/:id
func (h *CourseHandler) GetOne(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid course id"})
		return
	}

	course, err := h.courses.GetWithContent(c, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
		return
	}

	c.JSON(http.StatusOK, course)
}

// GET /api/v1/courses/categories
func (h *CourseHandler) Categories(c *gin.Context) {
	categories, err := h.courses.Categories(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// POST /api/v1/courses — только admin
func (h *CourseHandler) Create(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	var req createCourseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	course := &domain.Course{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Level:       req.Level,
		Duration:    req.Duration,
		CoverURL:    req.CoverURL,
	}
	for _, m := range req.Modules {
		module := domain.Module{
			ID:       uuid.New(),
			CourseID: course.ID,
			Title:    m.Title,
			Order:    m.Order,
		}
		for _, l := range m.Lessons {
			module.Lessons = append(module.Lessons, domain.Lesson{
				ID:          uuid.New(),
				ModuleID:    module.ID,
				CourseID:    course.ID,
				Title:       l.Title,
				ContentLink: l.ContentLink,
				DurationSec: l.DurationSec,
				Order:       l.Order,
			})
		}
		course.Modules = append(course.Modules, module)
	}

	if err := h.courses.Create(c, course); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, course)
}

type updateCourseReq struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category" binding:"required"`
	Level       string `json:"level" binding:"omitempty,oneof=beginner intermediate advanced"`
	Duration    string `json:"duration"`
	CoverURL    string `json:"coverUrl"`
}

// PUT /api/v1/courses/:id — только admin, метаданные без структуры контента
func (h *CourseHandler) Update(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid course id"})
		return
	}

	var req updateCourseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	course, err := h.courses.GetByID(c, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
		return
	}

	course.Title = req.Title
	course.Description = req.Description
	course.Category = req.Category
	course.Level = req.Level
	course.Duration = req.Duration
	course.CoverURL = req.CoverURL

	if err := h.courses.Update(c, course); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, course)
}

// POST /api/v1/courses/:id/modules — только admin, дозаливка контента
func (h *CourseHandler) AddModule(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid course id"})
		return
	}
	if _, err := h.courses.GetByID(c, id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
		return
	}

	var req createModuleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	module := domain.Module{
		ID:       uuid.New(),
		CourseID: id,
		Title:    req.Title,
		Order:    req.Order,
	}
	lessons := make([]domain.Lesson, 0, len(req.Lessons))
	for _, l := range req.Lessons {
		lessons = append(lessons, domain.Lesson{
			ID:          uuid.New(),
			ModuleID:    module.ID,
			CourseID:    id,
			Title:       l.Title,
			ContentLink: l.ContentLink,
			DurationSec: l.DurationSec,
			Order:       l.Order,
		})
	}

	if err := h.courses.CreateModules(c, []domain.Module{module}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.courses.CreateLessons(c, lessons); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	module.Lessons = lessons
	c.JSON(http.StatusCreated, module)
}

// DELETE /api/v1/courses/:id — только admin
func (h *CourseHandler) Delete(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid course id"})
		return
	}
	if err := h.courses.Delete(c, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *CourseHandler) requireAdmin(c *gin.Context) bool {
	userID := c.GetString("userId")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return false
	}
	user, err := h.auth.User(c, userID)
	if err != nil || user.Role != domain.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied: admins only"})
		return false
	}
	return true
}
