package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/quiz-grade-api/internal/models"
	"github.com/noah-isme/quiz-grade-api/pkg/dateparse"
	appErrors "github.com/noah-isme/quiz-grade-api/pkg/errors"
)

const leaderboardCachePattern = "leaderboard:*"

type topScoreReader interface {
	TopScoresBetween(ctx context.Context, start, end time.Time, limit int) ([]models.TopScore, error)
	TopScoresAllTime(ctx context.Context, limit int) ([]models.TopScore, error)
}

// LeaderboardConfig bounds leaderboard reads.
type LeaderboardConfig struct {
	CacheTTL     time.Duration
	DefaultLimit int
	MaxLimit     int
	Location     *time.Location
}

// LeaderboardService serves top scores through the Redis cache.
type LeaderboardService struct {
	attempts topScoreReader
	cache    *CacheService
	cfg      LeaderboardConfig
	now      func() time.Time
	logger   *zap.Logger
}

// NewLeaderboardService constructs LeaderboardService.
func NewLeaderboardService(attempts topScoreReader, cache *CacheService, cfg LeaderboardConfig, logger *zap.Logger) *LeaderboardService {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 10
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 100
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaderboardService{attempts: attempts, cache: cache, cfg: cfg, now: time.Now, logger: logger}
}

// TopToday ranks each learner's best attempt of the current calendar day. The bool reports a cache hit.
func (s *LeaderboardService) TopToday(ctx context.Context, limit int) ([]models.TopScore, bool, error) {
	limit = s.limit(limit)
	start := dateparse.StartOfDay(s.now(), s.cfg.Location)
	end := start.AddDate(0, 0, 1)
	key := fmt.Sprintf("leaderboard:today:%s:%d", start.Format("2006-01-02"), limit)

	return s.readThrough(ctx, key, func() ([]models.TopScore, error) {
		return s.attempts.TopScoresBetween(ctx, start, end, limit)
	})
}

// TopAllTime ranks each learner's best attempt ever. The bool reports a cache hit.
func (s *LeaderboardService) TopAllTime(ctx context.Context, limit int) ([]models.TopScore, bool, error) {
	limit = s.limit(limit)
	key := fmt.Sprintf("leaderboard:all:%d", limit)

	return s.readThrough(ctx, key, func() ([]models.TopScore, error) {
		return s.attempts.TopScoresAllTime(ctx, limit)
	})
}

// Invalidate drops every cached leaderboard.
func (s *LeaderboardService) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, leaderboardCachePattern); err != nil {
		s.logger.Warn("leaderboard invalidation failed", zap.Error(err))
	}
}

func (s *LeaderboardService) readThrough(ctx context.Context, key string, load func() ([]models.TopScore, error)) ([]models.TopScore, bool, error) {
	var cached []models.TopScore
	if s.cache.Get(ctx, key, &cached) {
		return cached, true, nil
	}

	rows, err := load()
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load top scores")
	}
	if rows == nil {
		rows = []models.TopScore{}
	}
	s.cache.Set(ctx, key, rows, s.cfg.CacheTTL)
	return rows, false, nil
}

func (s *LeaderboardService) limit(limit int) int {
	if limit <= 0 {
		return s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		return s.cfg.MaxLimit
	}
	return limit
}
