package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waste3d/learnplatform-api/internal/domain"
)

type stubCourseStore struct {
	courses        map[uuid.UUID]*domain.Course
	createdModules []domain.Module
	createdLessons []domain.Lesson
}

func newStubCourseStore(courses ...*domain.Course) *stubCourseStore {
	s := &stubCourseStore{courses: map[uuid.UUID]*domain.Course{}}
	for _, c := range courses {
		s.courses[c.ID] = c
	}
	return s
}

func (s *stubCourseStore) List(_ context.Context, _, _ string, _, _ int) ([]domain.Course, int64, error) {
	var out []domain.Course
	for _, c := range s.courses {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (s *stubCourseStore) GetWithContent(_ context.Context, id uuid.UUID) (*domain.Course, error) {
	return s.GetByID(context.Background(), id)
}

func (s *stubCourseStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Course, error) {
	if c, ok := s.courses[id]; ok {
		return c, nil
	}
	return nil, domain.ErrCourseNotFound
}

func (s *stubCourseStore) Create(_ context.Context, c *domain.Course) error {
	s.courses[c.ID] = c
	return nil
}

func (s *stubCourseStore) Update(_ context.Context, c *domain.Course) error {
	s.courses[c.ID] = c
	return nil
}

func (s *stubCourseStore) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.courses, id)
	return nil
}

func (s *stubCourseStore) CreateModules(_ context.Context, modules []domain.Module) error {
	s.createdModules = append(s.createdModules, modules...)
	return nil
}

func (s *stubCourseStore) CreateLessons(_ context.Context, lessons []domain.Lesson) error {
	s.createdLessons = append(s.createdLessons, lessons...)
	return nil
}

func (s *stubCourseStore) Categories(_ context.Context) ([]string, error) {
	return []string{"programming"}, nil
}

type stubUserDirectory struct {
	role string
}

func (s *stubUserDirectory) User(_ context.Context, userID string) (*domain.User, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return &domain.User{ID: uid, Role: s.role}, nil
}

func newCourseTestRouter(t *testing.T, store *stubCourseStore, role string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := NewCourseHandler(store, &stubUserDirectory{role: role})

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userId", uuid.NewString())
		c.Next()
	})

	courses := r.Group("/api/v1/courses")
	{
		courses.GET("/:id", h.GetOne)
		courses.PUT("/:id", h.Update)
		courses.POST("/:id/modules", h.AddModule)
		courses.DELETE("/:id", h.Delete)
	}
	return r
}

func TestUpdateCourseEndpoint(t *testing.T) {
	course := &domain.Course{ID: uuid.New(), Title: "Go", Category: "programming"}
	store := newStubCourseStore(course)
	r := newCourseTestRouter(t, store, domain.RoleAdmin)

	body := `{"title":"Go Advanced","category":"programming","level":"advanced","description":"updated"}`
	w := doRequest(r, http.MethodPut, "/api/v1/courses/"+course.ID.String(), body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got domain.Course
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Go Advanced", got.Title)
	assert.Equal(t, "advanced", got.Level)

	saved, err := store.GetByID(context.Background(), course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go Advanced", saved.Title)
	assert.Equal(t, "updated", saved.Description)
}

func TestUpdateCourseEndpoint_UnknownCourse(t *testing.T) {
	r := newCourseTestRouter(t, newStubCourseStore(), domain.RoleAdmin)

	body := `{"title":"Go","category":"programming"}`
	w := doRequest(r, http.MethodPut, "/api/v1/courses/"+uuid.NewString(), body)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateCourseEndpoint_AdminOnly(t *testing.T) {
	course := &domain.Course{ID: uuid.New(), Title: "Go", Category: "programming"}
	store := newStubCourseStore(course)
	r := newCourseTestRouter(t, store, domain.RoleStudent)

	body := `{"title":"Hacked","category":"programming"}`
	w := doRequest(r, http.MethodPut, "/api/v1/courses/"+course.ID.String(), body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	saved, err := store.GetByID(context.Background(), course.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go", saved.Title)
}

func TestAddModuleEndpoint(t *testing.T) {
	course := &domain.Course{ID: uuid.New(), Title: "Go", Category: "programming"}
	store := newStubCourseStore(course)
	r := newCourseTestRouter(t, store, domain.RoleAdmin)

	body := `{"title":"Generics","order":2,"lessons":[{"title":"Type params","order":1},{"title":"Constraints","order":2}]}`
	w := doRequest(r, http.MethodPost, "/api/v1/courses/"+course.ID.String()+"/modules", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	require.Len(t, store.createdModules, 1)
	assert.Equal(t, course.ID, store.createdModules[0].CourseID)
	assert.Equal(t, "Generics", store.createdModules[0].Title)

	require.Len(t, store.createdLessons, 2)
	assert.Equal(t, store.createdModules[0].ID, store.createdLessons[0].ModuleID)
	assert.Equal(t, course.ID, store.createdLessons[1].CourseID)
}

func TestAddModuleEndpoint_UnknownCourse(t *testing.T) {
	r := newCourseTestRouter(t, newStubCourseStore(), domain.RoleAdmin)

	body := `{"title":"Generics","lessons":[{"title":"Type params"}]}`
	w := doRequest(r, http.MethodPost, "/api/v1/courses/"+uuid.NewString()+"/modules", body)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
