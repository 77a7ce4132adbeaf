package main

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/quiz-grade-api/internal/handler"
	internalmiddleware "github.com/noah-isme/quiz-grade-api/internal/middleware"
	"github.com/noah-isme/quiz-grade-api/internal/repository"
	"github.com/noah-isme/quiz-grade-api/internal/service"
	"github.com/noah-isme/quiz-grade-api/pkg/config"
	"github.com/noah-isme/quiz-grade-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/quiz-grade-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/quiz-grade-api/pkg/middleware/requestid"
	"github.com/noah-isme/quiz-grade-api/pkg/validation"
)

type routeDeps struct {
	Validator   *validation.Validator
	Metrics     *service.MetricsService
	Tokens      *service.TokenService
	Questions   *service.QuestionService
	Quizzes     *service.QuizService
	Submissions *service.SubmissionService
	Statistics  *service.GradeStatisticsService
	Exports     *service.ExportService
	Imports     *service.OfflineImportService
	Trends      *service.TrendService
	Leaderboard *service.LeaderboardService
	DB          *sqlx.DB
	Cache       *repository.CacheRepository
	CacheOn     bool
}

func newRouter(cfg *config.Config, logr *zap.Logger, deps routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(deps.Metrics))

	checks := map[string]handler.Pinger{"database": handler.PingFunc(deps.DB.PingContext)}
	if deps.CacheOn {
		checks["cache"] = deps.Cache
	} else {
		checks["cache"] = nil
	}
	metricsHandler := handler.NewMetricsHandler(deps.Metrics, checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	questionHandler := handler.NewQuestionHandler(deps.Questions, deps.Validator)
	quizHandler := handler.NewQuizHandler(deps.Quizzes, deps.Validator)
	submissionHandler := handler.NewSubmissionHandler(deps.Submissions, deps.Validator)
	gradeHandler := handler.NewGradeHandler(deps.Statistics, deps.Exports, deps.Imports, deps.Trends, cfg.Imports.MaxFileSizeBytes)
	dashboardHandler := handler.NewDashboardHandler(deps.Leaderboard)

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.WithResponseMeta())
	optionalAuth := internalmiddleware.OptionalJWT(deps.Tokens)
	requireAuth := internalmiddleware.JWT(deps.Tokens)

	questions := api.Group("/questions", optionalAuth)
	questions.GET("", questionHandler.List)
	questions.POST("", questionHandler.Create)
	questions.GET("/:id", questionHandler.Get)
	questions.PUT("/:id", questionHandler.Update)
	questions.DELETE("/:id", questionHandler.Delete)

	quizzes := api.Group("/quizzes")
	quizzes.GET("", quizHandler.List)
	quizzes.POST("", optionalAuth, quizHandler.Create)
	quizzes.GET("/:id", quizHandler.Get)
	quizzes.PUT("/:id", quizHandler.Update)
	quizzes.DELETE("/:id", quizHandler.Delete)
	quizzes.POST("/:id/submissions", requireAuth, submissionHandler.Submit)
	quizzes.GET("/:id/attempts/latest", requireAuth, submissionHandler.Latest)

	grades := api.Group("/grades")
	grades.GET("/analysis/:quizId", gradeHandler.Analysis)
	grades.GET("/analysis/:quizId/export", gradeHandler.Export)
	grades.POST("/import", optionalAuth, gradeHandler.Import)
	grades.GET("/students/:userId/trend", gradeHandler.Trend)

	api.GET("/dashboard/top-scores", dashboardHandler.TopScores)

	return r
}
