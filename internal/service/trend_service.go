package service

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/quiz-grade-api/internal/models"
	"github.com/noah-isme/quiz-grade-api/pkg/dateparse"
	appErrors "github.com/noah-isme/quiz-grade-api/pkg/errors"
	"github.com/noah-isme/quiz-grade-api/pkg/orderedset"
)

type learnerReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type learnerAttemptLister interface {
	ListForLearner(ctx context.Context, userID string, from, to *time.Time) ([]models.QuizAttempt, error)
}

type quizBatchReader interface {
	ListByIDs(ctx context.Context, ids []int64) ([]models.Quiz, error)
}

// TrendService assembles a learner's score history across quizzes.
type TrendService struct {
	users    learnerReader
	attempts learnerAttemptLister
	quizzes  quizBatchReader
	metrics  *MetricsService
	location *time.Location
	logger   *zap.Logger
}

// NewTrendService constructs TrendService. loc interprets date bounds without an offset.
func NewTrendService(users learnerReader, attempts learnerAttemptLister, quizzes quizBatchReader, metrics *MetricsService, loc *time.Location, logger *zap.Logger) *TrendService {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrendService{users: users, attempts: attempts, quizzes: quizzes, metrics: metrics, location: loc, logger: logger}
}

// TrendFromStrings parses the optional bounds before delegating to Trend.
func (s *TrendService) TrendFromStrings(ctx context.Context, userID, start, end string) (*models.LearnerTrend, error) {
	from, err := dateparse.Start(start, s.location)
	if err != nil {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid date format"), map[string]string{"start": start})
	}
	to, err := dateparse.End(end, s.location)
	if err != nil {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid date format"), map[string]string{"end": end})
	}
	return s.Trend(ctx, userID, from, to)
}

// Trend lists the learner's attempts ascending by submission time within inclusive bounds.
// Attempts of quizzes that no longer exist are left out.
func (s *TrendService) Trend(ctx context.Context, userID string, from, to *time.Time) (*models.LearnerTrend, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "learner not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load learner")
	}

	trend := &models.LearnerTrend{UserID: user.ID, FullName: user.FullName, Points: []models.TrendPoint{}}

	start := time.Now()
	attempts, err := s.attempts.ListForLearner(ctx, userID, from, to)
	s.metrics.ObserveDBQuery("attempts_for_learner", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attempts")
	}
	if len(attempts) == 0 {
		return trend, nil
	}

	ids := orderedset.New[int64]()
	for _, a := range attempts {
		ids.Add(a.QuizID)
	}
	quizzes, err := s.quizzes.ListByIDs(ctx, ids.Values())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quizzes")
	}
	byID := make(map[int64]models.Quiz, len(quizzes))
	for _, q := range quizzes {
		byID[q.ID] = q
	}

	skipped := 0
	for _, a := range attempts {
		quiz, ok := byID[a.QuizID]
		if !ok {
			skipped++
			continue
		}
		trend.Points = append(trend.Points, models.TrendPoint{
			AttemptID:   a.ID,
			QuizID:      quiz.ID,
			QuizTitle:   quiz.Title,
			Category:    quiz.Category,
			ExamDate:    quiz.ExamDate,
			SubmittedAt: a.CreatedAt,
			Score:       a.Score,
			Passed:      a.Passed,
		})
	}
	if skipped > 0 {
		s.logger.Debug("trend skipped attempts of deleted quizzes", zap.String("user_id", userID), zap.Int("skipped", skipped))
	}
	return trend, nil
}
