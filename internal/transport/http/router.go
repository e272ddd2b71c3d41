package handlers

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/waste3d/learnplatform-api/internal/infrastructure/security"
	"github.com/waste3d/learnplatform-api/internal/middleware"
)

func NewRouter(
	authHandler *AuthHandler,
	courseHandler *CourseHandler,
	learningHandler *LearningHandler,
	limiter *middleware.RateLimiter,
	tokens *security.TokenManager,
	allowedOrigins []string,
) *gin.Engine {
	r := gin.Default()

	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins
	config.AllowCredentials = true
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"}
	r.Use(cors.New(config))

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", limiter.Limit("register", 3, 5*time.Minute), authHandler.Register)
			auth.POST("/login", limiter.Limit("login", 5, 1*time.Minute), authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", authHandler.Logout)
		}

		course := api.Group("/courses")
		course.Use(middleware.AuthMiddleware(tokens))
		{
			course.GET("", courseHandler.List)
			course.GET("/categories", courseHandler.Categories)
			course.GET("/:id", courseHandler.GetOne)
			course.GET("/:id/ratings", learningHandler.CourseRatings)
			course.POST("", courseHandler.Create)
			course.PUT("/:id", courseHandler.Update)
			course.POST("/:id/modules", courseHandler.AddModule)
			course.DELETE("/:id", courseHandler.Delete)
		}

		user := api.Group("/user")
		user.Use(middleware.AuthMiddleware(tokens))
		{
			user.GET("/profile", authHandler.Me)
			user.PUT("/avatar", authHandler.UpdateAvatar)
		}

		learning := api.Group("/learning")
		learning.Use(middleware.AuthMiddleware(tokens))
		{
			learning.POST("/courses/:id/enroll", learningHandler.Enroll)
			learning.GET("/courses/:id/status", learningHandler.EnrollmentStatus)
			learning.GET("/courses/:id/progress", learningHandler.CourseProgress)
			learning.POST("/courses/:id/lessons/:lessonId/start", learningHandler.StartLesson)
			learning.POST("/courses/:id/lessons/:lessonId/complete", learningHandler.CompleteLesson)
			learning.POST("/courses/:id/favorite", learningHandler.AddFavorite)
			learning.DELETE("/courses/:id/favorite", learningHandler.RemoveFavorite)
			learning.POST("/courses/:id/rating", learningHandler.RateCourse)

			learning.GET("/lessons/:id/progress", learningHandler.LessonProgress)
			learning.POST("/lessons/:id/time", learningHandler.RecordTime)

			learning.GET("/enrollments", learningHandler.Enrollments)
			learning.PATCH("/enrollments/:id", learningHandler.UpdateEnrollment)

			learning.PUT("/ratings/:id", learningHandler.UpdateRating)
			learning.DELETE("/ratings/:id", learningHandler.DeleteRating)

			learning.GET("/favorites", learningHandler.Favorites)
			learning.GET("/activity", learningHandler.Activity)
			learning.GET("/recommendations", learningHandler.Recommendations)
			learning.GET("/progress", learningHandler.OverallProgress)
			learning.GET("/dashboard", learningHandler.Dashboard)
		}
	}

	return r
}
