package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	_ "github.com/noah-isme/quiz-grade-api/api/swagger"
	"github.com/noah-isme/quiz-grade-api/internal/repository"
	"github.com/noah-isme/quiz-grade-api/internal/service"
	"github.com/noah-isme/quiz-grade-api/pkg/cache"
	"github.com/noah-isme/quiz-grade-api/pkg/config"
	"github.com/noah-isme/quiz-grade-api/pkg/database"
	"github.com/noah-isme/quiz-grade-api/pkg/jobs"
	"github.com/noah-isme/quiz-grade-api/pkg/logger"
	"github.com/noah-isme/quiz-grade-api/pkg/storage"
	"github.com/noah-isme/quiz-grade-api/pkg/validation"
)

// @title Quiz Grade API
// @version 1.0.0
// @description Quiz scoring, offline score import and grade analytics
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	loc := cfg.Location()
	validator := validation.Setup()
	metrics := service.NewMetricsService()

	questionRepo := repository.NewQuestionRepository(db)
	quizRepo := repository.NewQuizRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	statsRepo := repository.NewStatisticsRepository(db)
	userRepo := repository.NewUserRepository(db)
	courseHourRepo := repository.NewCourseHourRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Leaderboard.CacheTTL, logr, redisClient != nil)

	queue := jobs.NewQueue("course-hours", jobs.QueueConfig{
		Workers:    cfg.Notifier.Workers,
		BufferSize: cfg.Notifier.BufferSize,
		MaxRetries: cfg.Notifier.MaxRetries,
		RetryDelay: cfg.Notifier.RetryDelay,
		Logger:     logr,
	})
	queue.Register(service.JobTypeCourseHourCompleted, service.CourseHourCompletionHandler(courseHourRepo))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	queue.Start(ctx)
	defer queue.Stop()

	questions := service.NewQuestionService(questionRepo, quizRepo, validator, logr)
	quizzes := service.NewQuizService(quizRepo, questionRepo, statsRepo, validator, loc, logr)
	statistics := service.NewGradeStatisticsService(quizRepo, attemptRepo, statsRepo, metrics, logr)
	leaderboard := service.NewLeaderboardService(attemptRepo, cacheSvc, service.LeaderboardConfig{
		CacheTTL:     cfg.Leaderboard.CacheTTL,
		DefaultLimit: cfg.Leaderboard.DefaultLimit,
		MaxLimit:     cfg.Leaderboard.MaxLimit,
		Location:     loc,
	}, logr)
	submissions := service.NewSubmissionService(service.SubmissionDeps{
		Quizzes:           quizzes,
		Engine:            service.NewScoringEngine(),
		Attempts:          attemptRepo,
		Statistics:        statistics,
		Leaderboard:       leaderboard,
		Notifier:          service.NewCourseHourNotifier(queue, logr),
		Metrics:           metrics,
		Validator:         validator,
		RecomputeOnSubmit: cfg.Statistics.RecomputeOnSubmit,
		Logger:            logr,
	})
	importDeps := service.OfflineImportDeps{
		Quizzes:     quizRepo,
		Users:       userRepo,
		Attempts:    attemptRepo,
		Statistics:  statistics,
		Leaderboard: leaderboard,
		Metrics:     metrics,
		MaxRows:     cfg.Imports.MaxRows,
		Logger:      logr,
	}
	if cfg.Imports.ArchiveDir != "" {
		archive, err := storage.NewArchive(cfg.Imports.ArchiveDir)
		if err != nil {
			logr.Sugar().Warnw("score sheet archive disabled", "error", err)
		} else {
			importDeps.Archive = archive
			if removed, err := archive.Prune(cfg.Imports.ArchiveRetention); err != nil {
				logr.Sugar().Warnw("score sheet archive prune failed", "error", err)
			} else if len(removed) > 0 {
				logr.Sugar().Infow("pruned archived score sheets", "count", len(removed))
			}
		}
	}
	imports := service.NewOfflineImportService(importDeps)
	exports := service.NewExportService(quizRepo, attemptRepo, userRepo, nil, nil, loc, logr)
	trends := service.NewTrendService(userRepo, attemptRepo, quizRepo, metrics, loc, logr)
	tokens := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Expiry: cfg.JWT.Expiration})

	r := newRouter(cfg, logr, routeDeps{
		Validator:   validator,
		Metrics:     metrics,
		Tokens:      tokens,
		Questions:   questions,
		Quizzes:     quizzes,
		Submissions: submissions,
		Statistics:  statistics,
		Exports:     exports,
		Imports:     imports,
		Trends:      trends,
		Leaderboard: leaderboard,
		DB:          db,
		Cache:       cacheRepo,
		CacheOn:     redisClient != nil,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}
