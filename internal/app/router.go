package app

import (
	"mooc_backend/docs"
	"mooc_backend/internal/config"
	"mooc_backend/internal/middleware"
	"mooc_backend/internal/model"
	"mooc_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/api/health", c.health.HealthCheck)

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerStudentRoutes(authGroup, c)
		a.registerTeacherRoutes(authGroup, c)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	exercises := rg.Group("/exercises")
	{
		exercises.GET("/:id", c.exercise.GetExercise)
		exercises.GET("/:id/state", c.exercise.GetState)
		exercises.POST("/:id/submissions", c.submission.CreateSubmission)
		exercises.GET("/:id/peer-review", c.peerReview.GetReviewTarget)
		exercises.POST("/:id/peer-reviews", c.peerReview.SubmitReview)
	}
}

func (a *App) registerTeacherRoutes(rg *gin.RouterGroup, c *controllers) {
	teacher := rg.Group("/teacher")
	teacher.Use(middleware.RoleMiddleware(model.Teacher))
	{
		teacher.POST("/exercises", c.teacher.CreateExercise)
		teacher.GET("/exercises/:id", c.teacher.GetExercise)
		teacher.GET("/exercises/:id/submissions", c.teacher.ListSubmissions)
		teacher.POST("/exercises/:id/regrade", c.teacher.RegradeExercise)
		teacher.POST("/user-exercise-states/:id/decision", c.teacher.RecordDecision)
	}
}
