package service

import (
	"context"
	"database/sql"
	"math/big"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/quiz-grade-api/internal/models"
	appErrors "github.com/noah-isme/quiz-grade-api/pkg/errors"
)

type quizReader interface {
	FindByID(ctx context.Context, id int64) (*models.Quiz, error)
}

type quizAttemptLister interface {
	AllForQuiz(ctx context.Context, quizID int64) ([]models.QuizAttempt, error)
}

type statisticsStore interface {
	FindByQuizID(ctx context.Context, quizID int64) (*models.GradeStatistics, error)
	Upsert(ctx context.Context, stats *models.GradeStatistics) error
}

// GradeStatisticsService computes per-quiz aggregates and keeps the grade_statistics snapshot current.
type GradeStatisticsService struct {
	quizzes  quizReader
	attempts quizAttemptLister
	store    statisticsStore
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewGradeStatisticsService constructs GradeStatisticsService.
func NewGradeStatisticsService(quizzes quizReader, attempts quizAttemptLister, store statisticsStore, metrics *MetricsService, logger *zap.Logger) *GradeStatisticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeStatisticsService{quizzes: quizzes, attempts: attempts, store: store, metrics: metrics, logger: logger}
}

// Compute builds the statistics view for a quiz. A non-empty result is always written back;
// an empty one only when forceRefresh is set.
func (s *GradeStatisticsService) Compute(ctx context.Context, quizID int64, forceRefresh bool) (*models.GradeAnalysis, error) {
	quiz, err := s.quizzes.FindByID(ctx, quizID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "quiz not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load quiz")
	}

	start := time.Now()
	attempts, err := s.attempts.AllForQuiz(ctx, quizID)
	s.metrics.ObserveDBQuery("attempts_for_quiz", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attempts")
	}

	previous, err := s.store.FindByQuizID(ctx, quizID)
	if err != nil && err != sql.ErrNoRows {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load statistics snapshot")
	}

	stats := summarise(quizID, latestPerLearner(attempts))
	persist := forceRefresh || stats.ParticipantCount > 0

	view := &models.GradeAnalysis{
		QuizID:           quiz.ID,
		QuizTitle:        quiz.Title,
		Category:         quiz.Category,
		TotalScore:       quiz.TotalScore,
		PassScore:        quiz.PassScore,
		ExamDate:         quiz.ExamDate,
		ParticipantCount: stats.ParticipantCount,
		AvgScore:         stats.AvgScore,
		MaxScore:         stats.MaxScore,
		MinScore:         stats.MinScore,
		MedianScore:      stats.MedianScore,
		PassRate:         stats.PassRate,
		Distribution:     stats.Distribution,
	}
	if previous != nil {
		prev := previous.UpdatedAt
		view.PreviousUpdatedAt = &prev
		view.UpdatedAt = &prev
	}

	if persist {
		if err := s.store.Upsert(ctx, stats); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store statistics snapshot")
		}
		updated := stats.UpdatedAt
		view.UpdatedAt = &updated
		view.Refreshed = true
	}
	s.metrics.RecordRecompute(persist)
	s.logger.Debug("grade statistics computed",
		zap.Int64("quiz_id", quizID),
		zap.Int("participants", stats.ParticipantCount),
		zap.Bool("persisted", persist),
		zap.Bool("forced", forceRefresh),
	)
	return view, nil
}

// latestPerLearner keeps each learner's most recent attempt. Only a strictly later
// created_at replaces the one already held, so equal timestamps keep the first seen.
func latestPerLearner(attempts []models.QuizAttempt) []models.QuizAttempt {
	index := make(map[string]int, len(attempts))
	latest := make([]models.QuizAttempt, 0, len(attempts))
	for _, a := range attempts {
		if a.UserID == "" {
			continue
		}
		i, seen := index[a.UserID]
		if !seen {
			index[a.UserID] = len(latest)
			latest = append(latest, a)
			continue
		}
		if a.CreatedAt.After(latest[i].CreatedAt) {
			latest[i] = a
		}
	}
	return latest
}

func summarise(quizID int64, attempts []models.QuizAttempt) *models.GradeStatistics {
	stats := &models.GradeStatistics{QuizID: quizID, Distribution: models.EmptyDistribution()}
	total := len(attempts)
	if total == 0 {
		return stats
	}

	scores := make([]int, 0, total)
	sum, passed := 0, 0
	stats.MaxScore, stats.MinScore = attempts[0].Score, attempts[0].Score
	for _, a := range attempts {
		sum += a.Score
		if a.Score > stats.MaxScore {
			stats.MaxScore = a.Score
		}
		if a.Score < stats.MinScore {
			stats.MinScore = a.Score
		}
		if a.Passed {
			passed++
		}
		scores = append(scores, a.Score)
		stats.Distribution[bandIndex(a.Score)].Count++
	}
	sort.Ints(scores)

	stats.ParticipantCount = total
	stats.AvgScore = roundHalfUp(int64(sum), int64(total), 2)
	stats.PassRate = roundHalfUp(int64(passed), int64(total), 2)
	if total%2 == 0 {
		stats.MedianScore = float64(scores[total/2-1]+scores[total/2]) / 2
	} else {
		stats.MedianScore = float64(scores[total/2])
	}
	return stats
}

// bandIndex maps a score to [0,60) [60,70) [70,80) [80,90) [90,∞).
func bandIndex(score int) int {
	switch {
	case score < 60:
		return 0
	case score < 70:
		return 1
	case score < 80:
		return 2
	case score < 90:
		return 3
	default:
		return 4
	}
}

// roundHalfUp rounds num/den to the given decimal places, halves away from zero.
func roundHalfUp(num, den int64, places int) float64 {
	if den == 0 {
		return 0
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(places)), nil)
	r := new(big.Rat).SetFrac(new(big.Int).Mul(big.NewInt(num), scale), big.NewInt(den))
	half := big.NewRat(1, 2)
	if r.Sign() < 0 {
		r.Sub(r, half)
	} else {
		r.Add(r, half)
	}
	truncated := new(big.Int).Quo(r.Num(), r.Denom())
	out, _ := new(big.Rat).SetFrac(truncated, scale).Float64()
	return out
}
