package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/waste3d/learnplatform-api/config"
	"github.com/waste3d/learnplatform-api/internal/application/usecase"
	"github.com/waste3d/learnplatform-api/internal/domain"
	"github.com/waste3d/learnplatform-api/internal/infrastructure/cache"
	"github.com/waste3d/learnplatform-api/internal/infrastructure/repository"
	"github.com/waste3d/learnplatform-api/internal/infrastructure/security"
	"github.com/waste3d/learnplatform-api/internal/infrastructure/snapshot"
	"github.com/waste3d/learnplatform-api/internal/middleware"
	"github.com/waste3d/learnplatform-api/internal/state"
	handlers "github.com/waste3d/learnplatform-api/internal/transport/http"
)

func main() {
	// 1. Конфиг
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	// 2. Postgres
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}

	logger.Info("running migrations")
	if err := db.AutoMigrate(&domain.User{}, &domain.Course{}, &domain.Module{}, &domain.Lesson{}); err != nil {
		log.Fatalf("Failed to migrate DB: %v", err)
	}

	// 3. Redis
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}

	// 4. Сторы обучения: гидрация из снапшотов до первого запроса
	slot := snapshot.NewRedisSlot(rdb)
	enrollmentStore := state.NewEnrollmentStore(slot, logger)
	progressStore := state.NewProgressStore(slot, logger)
	if err := enrollmentStore.Rehydrate(ctx); err != nil {
		log.Fatalf("Failed to rehydrate enrollments: %v", err)
	}
	if err := progressStore.Rehydrate(ctx); err != nil {
		log.Fatalf("Failed to rehydrate progress: %v", err)
	}

	// 5. Слои
	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db, rdb)
	tokenCache := cache.NewTokenCache(rdb)
	tokenManager := security.NewTokenManager(cfg.AccessSecret, cfg.RefreshSecret)
	hasher := security.NewPasswordHasher(cfg.BcryptCost)

	authUC := usecase.NewAuthUseCase(userRepo, tokenCache, hasher, tokenManager)
	learningUC := usecase.NewLearningUseCase(courseRepo, enrollmentStore, progressStore, logger)

	authHandler := handlers.NewAuthHandler(authUC)
	courseHandler := handlers.NewCourseHandler(courseRepo, authUC)
	learningHandler := handlers.NewLearningHandler(learningUC, enrollmentStore, progressStore)
	limiter := middleware.NewRateLimiter(rdb)

	origins := strings.Split(cfg.AllowedOrigins, ",")
	if cfg.AllowedOrigins == "" {
		origins = []string{"http://localhost:3000"}
	}

	// 6. HTTP
	router := handlers.NewRouter(authHandler, courseHandler, learningHandler, limiter, tokenManager, origins)

	logger.Info("starting http server", zap.String("port", cfg.HTTPPort))
	if err := router.Run(cfg.HTTPPort); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
