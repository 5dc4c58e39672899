package app

import (
	"github.com/wyattbui/toeic-app-mimi-service/docs"
	"github.com/wyattbui/toeic-app-mimi-service/internal/config"
	"github.com/wyattbui/toeic-app-mimi-service/internal/middleware"
	"github.com/wyattbui/toeic-app-mimi-service/internal/model"
	"github.com/wyattbui/toeic-app-mimi-service/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	a.registerPublicRoutes(router, c)
	a.registerUserRoutes(router, c, cfg)
	a.registerAdminRoutes(router, c, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)

		public.POST("/auth/signup", c.auth.Signup)
		public.POST("/auth/login", c.auth.Login)

		// The question catalog is browsable without an account.
		public.GET("/questions/parts", c.question.GetParts)
		public.GET("/questions/part/:partId", c.question.GetQuestionsByPart)
		public.GET("/questions/random", c.question.GetRandomQuestions)
		public.GET("/questions/:id", c.question.GetQuestion)
	}
}

func (a *App) registerUserRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.GET("/auth/profile", c.auth.GetProfile)

		questions := authGroup.Group("/questions")
		{
			questions.POST("", c.question.CreateQuestion)
			questions.PATCH("/:id", c.question.UpdateQuestion)
			questions.DELETE("/:id", c.question.DeleteQuestion)
			questions.POST("/upload", c.question.UploadMedia)

			questions.POST("/submit-test", c.question.SubmitTest)
			questions.GET("/user/results", c.question.GetUserResults)

			questions.POST("/bookmarks", c.question.CreateBookmark)
			questions.GET("/user/bookmarks", c.question.GetBookmarks)
			questions.DELETE("/bookmarks/:id", c.question.DeleteBookmark)

			testSets := questions.Group("/test-sets")
			{
				testSets.POST("/generate", c.testSet.GenerateTestSet)
				testSets.GET("/my", c.testSet.GetMyTestSets)
				testSets.GET("/abandoned", c.testSet.GetAbandonedTestSets)
				testSets.GET("/history", c.testSet.GetTestHistory)
				testSets.GET("/statistics/my", c.testSet.GetStatistics)
				testSets.POST("/:id/start", c.testSet.StartTest)
				testSets.POST("/submit", c.testSet.SubmitTestSet)
				testSets.GET("/:id/review", c.testSet.GetTestSetReview)
				testSets.GET("/:id", c.testSet.GetTestSet)
				testSets.DELETE("/:id", c.testSet.DeleteTestSet)
			}
		}
	}
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.RoleAdmin))
	{
		admin.GET("/test-sets/history", c.testSet.GetAllUsersHistory)
		admin.GET("/test-sets/history/:userId", c.testSet.GetUserHistory)
	}
}
