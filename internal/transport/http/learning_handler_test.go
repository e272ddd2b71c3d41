package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/waste3d/learnplatform-api/internal/application/usecase"
	"github.com/waste3d/learnplatform-api/internal/domain"
	"github.com/waste3d/learnplatform-api/internal/state"
)

type stubCatalog struct {
	course *domain.Course
}

func (s *stubCatalog) GetWithContent(_ context.Context, id uuid.UUID) (*domain.Course, error) {
	if s.course != nil && s.course.ID == id {
		return s.course, nil
	}
	return nil, domain.ErrCourseNotFound
}

func (s *stubCatalog) List(_ context.Context, _, _ string, _, _ int) ([]domain.Course, int64, error) {
	if s.course == nil {
		return nil, 0, nil
	}
	return []domain.Course{*s.course}, 1, nil
}

func testCourse() *domain.Course {
	courseID := uuid.New()
	m := domain.Module{ID: uuid.New(), CourseID: courseID, Title: "Basics", Order: 1}
	m.Lessons = []domain.Lesson{
		{ID: uuid.New(), ModuleID: m.ID, CourseID: courseID, Title: "Intro", Order: 1},
		{ID: uuid.New(), ModuleID: m.ID, CourseID: courseID, Title: "Next", Order: 2},
	}
	return &domain.Course{ID: courseID, Title: "Go", Category: "programming", Modules: []domain.Module{m}}
}

// Тестовый роутер без JWT: userId подставляется напрямую.
func newTestRouter(t *testing.T, course *domain.Course, userID string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	es := state.NewEnrollmentStore(state.NewMemorySlot(), zap.NewNop())
	ps := state.NewProgressStore(state.NewMemorySlot(), zap.NewNop())
	uc := usecase.NewLearningUseCase(&stubCatalog{course: course}, es, ps, zap.NewNop())
	h := NewLearningHandler(uc, es, ps)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userId", userID)
		c.Next()
	})

	learning := r.Group("/api/v1/learning")
	{
		learning.POST("/courses/:id/enroll", h.Enroll)
		learning.GET("/courses/:id/status", h.EnrollmentStatus)
		learning.GET("/courses/:id/progress", h.CourseProgress)
		learning.POST("/courses/:id/lessons/:lessonId/complete", h.CompleteLesson)
		learning.POST("/courses/:id/favorite", h.AddFavorite)
		learning.POST("/courses/:id/rating", h.RateCourse)
		learning.GET("/dashboard", h.Dashboard)
	}
	r.GET("/api/v1/courses/:id/ratings", h.CourseRatings)
	return r
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestEnrollEndpoint(t *testing.T) {
	course := testCourse()
	r := newTestRouter(t, course, "u1")
	base := "/api/v1/learning/courses/" + course.ID.String()

	w := doRequest(r, http.MethodPost, base+"/enroll", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var e domain.Enrollment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e))
	assert.Equal(t, domain.EnrollmentEnrolled, e.Status)

	// Повторная запись — конфликт
	w = doRequest(r, http.MethodPost, base+"/enroll", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doRequest(r, http.MethodGet, base+"/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	var status struct {
		Enrolled bool `json:"enrolled"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.True(t, status.Enrolled)
}

func TestEnrollEndpoint_UnknownCourse(t *testing.T) {
	r := newTestRouter(t, testCourse(), "u1")

	w := doRequest(r, http.MethodPost, "/api/v1/learning/courses/"+uuid.NewString()+"/enroll", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCompleteLessonEndpoint_ProgressRollup(t *testing.T) {
	course := testCourse()
	r := newTestRouter(t, course, "u1")
	base := "/api/v1/learning/courses/" + course.ID.String()

	require.Equal(t, http.StatusCreated, doRequest(r, http.MethodPost, base+"/enroll", "").Code)

	l1 := course.Modules[0].Lessons[0].ID.String()
	w := doRequest(r, http.MethodPost, base+"/lessons/"+l1+"/complete", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var cp domain.CourseProgress
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cp))
	assert.Equal(t, 50, cp.ProgressPercentage)
	assert.Equal(t, domain.ProgressInProgress, cp.Status)

	w = doRequest(r, http.MethodGet, base+"/progress", "")
	require.Equal(t, http.StatusOK, w.Code)

	// Неизвестный урок
	w = doRequest(r, http.MethodPost, base+"/lessons/missing/complete", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRatingEndpoints(t *testing.T) {
	course := testCourse()
	r := newTestRouter(t, course, "u1")
	base := "/api/v1/learning/courses/" + course.ID.String()

	w := doRequest(r, http.MethodPost, base+"/rating", `{"rating":4,"review":"nice"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(r, http.MethodPost, base+"/rating", `{"rating":9}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodGet, "/api/v1/courses/"+course.ID.String()+"/ratings", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Ratings   []domain.CourseRating `json:"ratings"`
		Average   float64               `json:"average"`
		Histogram map[string]int        `json:"histogram"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Ratings, 1)
	assert.Equal(t, 4.0, resp.Average)
	assert.Equal(t, 1, resp.Histogram["4"])
}

func TestDashboardEndpoint(t *testing.T) {
	course := testCourse()
	r := newTestRouter(t, course, "u1")
	base := "/api/v1/learning/courses/" + course.ID.String()

	require.Equal(t, http.StatusCreated, doRequest(r, http.MethodPost, base+"/enroll", "").Code)
	require.Equal(t, http.StatusOK, doRequest(r, http.MethodPost, base+"/favorite", "").Code)

	w := doRequest(r, http.MethodGet, "/api/v1/learning/dashboard", "")
	require.Equal(t, http.StatusOK, w.Code)

	var d usecase.Dashboard
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.Len(t, d.Enrollments, 1)
	assert.Len(t, d.Favorites, 1)
	assert.Len(t, d.Courses, 1)
}
