package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/quiz-grade-api/internal/models"
)

func newLeaderboardFixture() (*LeaderboardService, *fakeAttemptRepo, *fakeCacheRepo) {
	attempts := &fakeAttemptRepo{top: []models.TopScore{{Rank: 1, UserID: "u1", Score: 99}}}
	cacheRepo := newFakeCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	svc := NewLeaderboardService(attempts, cache, LeaderboardConfig{CacheTTL: time.Minute, Location: time.UTC}, nil)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC) }
	return svc, attempts, cacheRepo
}

func TestTopTodayReadsThroughCache(t *testing.T) {
	svc, attempts, cacheRepo := newLeaderboardFixture()
	ctx := context.Background()

	first, hit, err := svc.TopToday(ctx, 0)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Len(t, first, 1)
	assert.Contains(t, cacheRepo.store, "leaderboard:today:2024-06-01:10")

	second, hit, err := svc.TopToday(ctx, 0)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, attempts.topCalls)
}

func TestTopAllTimeClampsLimit(t *testing.T) {
	svc, _, cacheRepo := newLeaderboardFixture()

	_, _, err := svc.TopAllTime(context.Background(), 5000)
	require.NoError(t, err)
	assert.Contains(t, cacheRepo.store, "leaderboard:all:100")
}

func TestLeaderboardInvalidateDropsEntries(t *testing.T) {
	svc, attempts, cacheRepo := newLeaderboardFixture()
	ctx := context.Background()

	_, _, err := svc.TopAllTime(ctx, 3)
	require.NoError(t, err)
	svc.Invalidate(ctx)
	assert.Equal(t, []string{"leaderboard:*"}, cacheRepo.deleted)

	_, hit, err := svc.TopAllTime(ctx, 3)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, attempts.topCalls)
}

func TestLeaderboardWithoutCache(t *testing.T) {
	attempts := &fakeAttemptRepo{}
	svc := NewLeaderboardService(attempts, NewCacheService(nil, nil, 0, nil, false), LeaderboardConfig{}, nil)

	scores, hit, err := svc.TopAllTime(context.Background(), 0)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NotNil(t, scores)
	assert.Empty(t, scores)
}
