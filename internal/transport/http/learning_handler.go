package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/waste3d/learnplatform-api/internal/application/usecase"
	"github.com/waste3d/learnplatform-api/internal/domain"
	"github.com/waste3d/learnplatform-api/internal/state"
)

type LearningHandler struct {
	learning    *usecase.LearningUseCase
	enrollments *state.EnrollmentStore
	progress    *state.ProgressStore
}

func NewLearningHandler(learning *usecase.LearningUseCase, es *state.EnrollmentStore, ps *state.ProgressStore) *LearningHandler {
	return &LearningHandler{learning: learning, enrollments: es, progress: ps}
}

func currentUser(c *gin.Context) domain.UserID {
	return domain.UserID(c.GetString("userId"))
}

// statusFor переводит доменные ошибки в HTTP-статусы.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrCourseNotFound),
		errors.Is(err, domain.ErrLessonNotFound),
		errors.Is(err, domain.ErrEnrollmentNotFound),
		errors.Is(err, domain.ErrRatingNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyEnrolled),
		errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotRatingOwner):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, domain.ErrNegativeDuration):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// POST /learning/courses/:id/enroll
func (h *LearningHandler) Enroll(c *gin.Context) {
	var req struct {
		Source domain.EnrollmentSource `json:"source" binding:"omitempty,oneof=direct recommendation requirement"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.Source == "" {
		req.Source = domain.SourceDirect
	}

	e, err := h.learning.Enroll(c, currentUser(c), domain.CourseID(c.Param("id")), req.Source)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, e)
}

// PATCH /learning/enrollments/:id
func (h *LearningHandler) UpdateEnrollment(c *gin.Context) {
	var req struct {
		Status domain.EnrollmentStatus `json:"status" binding:"required,oneof=enrolled completed dropped"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.enrollments.UpdateStatus(c, c.Param("id"), req.Status); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GET /learning/enrollments
func (h *LearningHandler) Enrollments(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"enrollments": h.enrollments.UserEnrollments(currentUser(c))})
}

// GET /learning/courses/:id/status
func (h *LearningHandler) EnrollmentStatus(c *gin.Context) {
	user := currentUser(c)
	course := domain.CourseID(c.Param("id"))

	status, ok := h.enrollments.EnrollmentStatus(user, course)
	c.JSON(http.StatusOK, gin.H{
		"enrolled":  h.enrollments.IsEnrolled(user, course),
		"status":    status,
		"hasRecord": ok,
		"favorited": h.enrollments.IsFavorited(user, course),
	})
}

// POST /learning/courses/:id/lessons/:lessonId/start
func (h *LearningHandler) StartLesson(c *gin.Context) {
	err := h.learning.StartLesson(c, currentUser(c), domain.CourseID(c.Param("id")), domain.LessonID(c.Param("lessonId")))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// POST /learning/courses/:id/lessons/:lessonId/complete
func (h *LearningHandler) CompleteLesson(c *gin.Context) {
	user := currentUser(c)
	course := domain.CourseID(c.Param("id"))

	err := h.learning.CompleteLesson(c, user, course, domain.LessonID(c.Param("lessonId")))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	cp, _ := h.progress.CourseProgress(user, course)
	c.JSON(http.StatusOK, cp)
}

// POST /learning/lessons/:id/time
func (h *LearningHandler) RecordTime(c *gin.Context) {
	var req struct {
		Seconds int64 `json:"seconds" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.learning.RecordTime(c, currentUser(c), domain.LessonID(c.Param("id")), req.Seconds); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GET /learning/courses/:id/progress
func (h *LearningHandler) CourseProgress(c *gin.Context) {
	cp, ok := h.progress.CourseProgress(currentUser(c), domain.CourseID(c.Param("id")))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No progress for this course"})
		return
	}
	c.JSON(http.StatusOK, cp)
}

// GET /learning/lessons/:id/progress
func (h *LearningHandler) LessonProgress(c *gin.Context) {
	lp, ok := h.progress.LessonProgress(currentUser(c), domain.LessonID(c.Param("id")))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No progress for this lesson"})
		return
	}
	c.JSON(http.StatusOK, lp)
}

// GET /learning/progress
func (h *LearningHandler) OverallProgress(c *gin.Context) {
	c.JSON(http.StatusOK, h.progress.OverallProgress(currentUser(c)))
}

// POST /learning/courses/:id/favorite
func (h *LearningHandler) AddFavorite(c *gin.Context) {
	h.enrollments.AddFavorite(c, currentUser(c), domain.CourseID(c.Param("id")))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DELETE /learning/courses/:id/favorite
func (h *LearningHandler) RemoveFavorite(c *gin.Context) {
	h.enrollments.RemoveFavorite(c, currentUser(c), domain.CourseID(c.Param("id")))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GET /learning/favorites
func (h *LearningHandler) Favorites(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"favorites": h.enrollments.UserFavorites(currentUser(c))})
}

// POST /learning/courses/:id/rating
func (h *LearningHandler) RateCourse(c *gin.Context) {
	var req struct {
		Rating int    `json:"rating" binding:"required,min=1,max=5"`
		Review string `json:"review"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	r, err := h.enrollments.RateCourse(c, currentUser(c), domain.CourseID(c.Param("id")), req.Rating, req.Review)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, r)
}

// PUT /learning/ratings/:id
func (h *LearningHandler) UpdateRating(c *gin.Context) {
	var req struct {
		Rating int    `json:"rating" binding:"required,min=1,max=5"`
		Review string `json:"review"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.enrollments.UpdateRating(c, currentUser(c), c.Param("id"), req.Rating, req.Review); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DELETE /learning/ratings/:id
func (h *LearningHandler) DeleteRating(c *gin.Context) {
	if err := h.enrollments.DeleteRating(c, currentUser(c), c.Param("id")); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GET /courses/:id/ratings — среднее и гистограмма считаются тут,
// стор отдает сырые записи.
func (h *LearningHandler) CourseRatings(c *gin.Context) {
	ratings := h.enrollments.CourseRatings(domain.CourseID(c.Param("id")))

	var sum int
	histogram := make(map[string]int, 5)
	for _, r := range ratings {
		sum += r.Rating
		histogram[strconv.Itoa(r.Rating)]++
	}
	average := 0.0
	if len(ratings) > 0 {
		average = float64(sum) / float64(len(ratings))
	}

	c.JSON(http.StatusOK, gin.H{
		"ratings":   ratings,
		"average":   average,
		"histogram": histogram,
	})
}

// GET /learning/activity
func (h *LearningHandler) Activity(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	c.JSON(http.StatusOK, gin.H{"activity": h.enrollments.RecentActivity(currentUser(c), limit)})
}

// GET /learning/recommendations
func (h *LearningHandler) Recommendations(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	recs, err := h.learning.RefreshRecommendations(c, currentUser(c), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recs})
}

// GET /learning/dashboard
func (h *LearningHandler) Dashboard(c *gin.Context) {
	c.JSON(http.StatusOK, h.learning.Dashboard(c, currentUser(c)))
}
