package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/waste3d/learnplatform-api/internal/domain"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}))
	t.Cleanup(func() {
		db.Exec("DELETE FROM users")
	})
	return db
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	ctx := context.Background()

	user := &domain.User{
		ID:       uuid.New(),
		Email:    "student@example.com",
		Username: "student",
		Password: "hashed",
		Role:     domain.RoleStudent,
	}
	require.NoError(t, repo.Create(ctx, user))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "student@example.com", got.Email)

	got, err = repo.GetByEmail(ctx, "student@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestUserRepository_NotFound(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	ctx := context.Background()

	_, err := repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = repo.GetByEmail(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	ctx := context.Background()

	first := &domain.User{ID: uuid.New(), Email: "dup@example.com", Username: "one", Password: "x"}
	require.NoError(t, repo.Create(ctx, first))

	second := &domain.User{ID: uuid.New(), Email: "dup@example.com", Username: "two", Password: "x"}
	assert.ErrorIs(t, repo.Create(ctx, second), domain.ErrUserAlreadyExists)
}

func TestUserRepository_UpdateAvatar(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	ctx := context.Background()

	user := &domain.User{ID: uuid.New(), Email: "ava@example.com", Username: "ava", Password: "x"}
	require.NoError(t, repo.Create(ctx, user))

	require.NoError(t, repo.UpdateAvatar(ctx, user.ID, 7))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.AvatarID)
}

func TestUserRepository_UpdateRole(t *testing.T) {
	repo := NewUserRepository(openTestDB(t))
	ctx := context.Background()

	user := &domain.User{ID: uuid.New(), Email: "admin@example.com", Username: "admin", Password: "x"}
	require.NoError(t, repo.Create(ctx, user))

	require.NoError(t, repo.UpdateRole(ctx, user.ID, domain.RoleAdmin))

	got, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, got.Role)
}
