package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/coursekit/examforge/internal/config"
	"github.com/coursekit/examforge/internal/handler"
	"github.com/coursekit/examforge/internal/middleware"
	"github.com/coursekit/examforge/internal/response"
	"github.com/coursekit/examforge/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Course   *handler.CourseHandler
	Question *handler.QuestionHandler
	Exam     *handler.ExamHandler
	WS       *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware(log))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Auth group (public).
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/logout", middleware.RequireJWT(authService), handlers.Auth.Logout)
	}

	// Authenticated read routes. Any signed-in role may browse the catalog
	// and look up published exams.
	api := router.Group("/api/v1")
	api.Use(middleware.RequireJWT(authService))
	{
		api.GET("/courses", handlers.Course.ListCourses)
		api.GET("/courses/:id", handlers.Course.GetCourse)
		api.GET("/courses/:id/chapters", handlers.Course.ListChapters)
		api.GET("/chapters/:id/questions", handlers.Question.ListByChapter)
		api.GET("/questions/:id", handlers.Question.GetQuestion)

		api.GET("/exams", handlers.Exam.ListExams)
		api.GET("/exams/:id", handlers.Exam.GetExam)
		api.GET("/exams/:id/summary", handlers.Exam.GetExamSummary)

		api.GET("/ws/events", handlers.WS.Events)
	}

	// Authoring routes (professor or admin only).
	authoring := router.Group("/api/v1")
	authoring.Use(middleware.RequireJWT(authService), middleware.RequireAuthor())
	{
		authoring.POST("/courses", handlers.Course.CreateCourse)
		authoring.POST("/courses/:id/chapters", handlers.Course.CreateChapter)

		authoring.POST("/questions", handlers.Question.CreateQuestion)
		authoring.POST("/questions/:id/analyze", handlers.Question.AnalyzeQuestion)

		authoring.POST("/drafts", handlers.Exam.CreateDraft)
		authoring.GET("/drafts", handlers.Exam.ListDrafts)
		authoring.GET("/drafts/:id", handlers.Exam.GetDraft)
		authoring.POST("/drafts/:id/questions", handlers.Exam.AddQuestion)
		authoring.DELETE("/drafts/:id/questions/:qid", handlers.Exam.RemoveQuestion)
		authoring.PATCH("/drafts/:id/questions/:qid", handlers.Exam.SetPoints)
		authoring.PUT("/drafts/:id/order", handlers.Exam.Reorder)
		authoring.POST("/drafts/:id/auto-build", handlers.Exam.AutoBuild)
		authoring.POST("/drafts/:id/finalize", handlers.Exam.Finalize)
	}

	return router
}
