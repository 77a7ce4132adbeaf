package service

import (
	"context"
	"database/sql"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/quiz-grade-api/internal/dto"
	"github.com/noah-isme/quiz-grade-api/internal/models"
	appErrors "github.com/noah-isme/quiz-grade-api/pkg/errors"
	applog "github.com/noah-isme/quiz-grade-api/pkg/logger"
	"github.com/noah-isme/quiz-grade-api/pkg/validation"
)

type quizQuestionLoader interface {
	Get(ctx context.Context, id int64) (*models.Quiz, error)
	Questions(ctx context.Context, quiz *models.Quiz) ([]models.Question, error)
}

type onlineAttemptStore interface {
	RecordOnlineAttempt(ctx context.Context, params models.OnlineAttemptParams) (*models.QuizAttempt, error)
	LatestForCourseHour(ctx context.Context, userID string, courseHourID int64) (*models.QuizAttempt, error)
}

type statisticsComputer interface {
	Compute(ctx context.Context, quizID int64, forceRefresh bool) (*models.GradeAnalysis, error)
}

type leaderboardInvalidator interface {
	Invalidate(ctx context.Context)
}

type completionNotifier interface {
	NotifyCompleted(userID string, courseID, hourID int64)
}

// SubmissionService grades online quiz submissions and records them.
type SubmissionService struct {
	quizzes           quizQuestionLoader
	engine            *ScoringEngine
	attempts          onlineAttemptStore
	statistics        statisticsComputer
	leaderboard       leaderboardInvalidator
	notifier          completionNotifier
	metrics           *MetricsService
	validator         *validation.Validator
	recomputeOnSubmit bool
	logger            *zap.Logger
}

// SubmissionDeps groups the collaborators of SubmissionService.
type SubmissionDeps struct {
	Quizzes           quizQuestionLoader
	Engine            *ScoringEngine
	Attempts          onlineAttemptStore
	Statistics        statisticsComputer
	Leaderboard       leaderboardInvalidator
	Notifier          completionNotifier
	Metrics           *MetricsService
	Validator         *validation.Validator
	RecomputeOnSubmit bool
	Logger            *zap.Logger
}

// NewSubmissionService constructs SubmissionService.
func NewSubmissionService(deps SubmissionDeps) *SubmissionService {
	if deps.Engine == nil {
		deps.Engine = NewScoringEngine()
	}
	if deps.Validator == nil {
		deps.Validator = validation.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &SubmissionService{
		quizzes:           deps.Quizzes,
		engine:            deps.Engine,
		attempts:          deps.Attempts,
		statistics:        deps.Statistics,
		leaderboard:       deps.Leaderboard,
		notifier:          deps.Notifier,
		metrics:           deps.Metrics,
		validator:         deps.Validator,
		recomputeOnSubmit: deps.RecomputeOnSubmit,
		logger:            deps.Logger,
	}
}

// Submit grades the answers, appends the attempt and then refreshes derived data.
// Statistics, leaderboard and course-hour side effects never fail the submission.
func (s *SubmissionService) Submit(ctx context.Context, userID string, quizID int64, req dto.SubmissionRequest) (*models.SubmissionResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	quiz, err := s.quizzes.Get(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if quiz.Category != models.QuizCategoryOnlineAuto {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only online quizzes accept submissions")
	}
	questions, err := s.quizzes.Questions(ctx, quiz)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Score(quiz, questions, req.Answers)
	if err != nil {
		return nil, err
	}

	attempt, err := s.attempts.RecordOnlineAttempt(ctx, models.OnlineAttemptParams{
		UserID:       userID,
		QuizID:       quiz.ID,
		CourseHourID: req.CourseHourID,
		Score:        result.Score,
		Passed:       result.Passed,
		Answers:      result.Answers,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attempt")
	}
	s.metrics.RecordSubmission(result.Passed)
	log := applog.FromContext(ctx, s.logger)
	log.Info("quiz submitted",
		zap.Int64("quiz_id", quiz.ID),
		zap.String("user_id", userID),
		zap.Int64("attempt_id", attempt.ID),
		zap.Int("score", result.Score),
		zap.Bool("passed", result.Passed),
	)

	if s.recomputeOnSubmit && s.statistics != nil {
		if _, err := s.statistics.Compute(ctx, quiz.ID, false); err != nil {
			log.Warn("statistics recompute after submission failed", zap.Int64("quiz_id", quiz.ID), zap.Error(err))
		}
	}
	if s.leaderboard != nil {
		s.leaderboard.Invalidate(ctx)
	}
	if result.Passed && s.notifier != nil {
		s.notifier.NotifyCompleted(userID, req.CourseID, req.CourseHourID)
	}

	return &models.SubmissionResult{AttemptID: attempt.ID, Score: result.Score, Passed: result.Passed}, nil
}

// LatestForCourseHour returns the learner's newest attempt for the course hour, or nil when none exists.
func (s *SubmissionService) LatestForCourseHour(ctx context.Context, userID string, courseHourID int64) (*models.QuizAttempt, error) {
	attempt, err := s.attempts.LatestForCourseHour(ctx, userID, courseHourID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attempt")
	}
	return attempt, nil
}
