package redis

import (
	"context"
	"testing"
	"time"

	"jobmarket-bot/internal/models"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	cache := NewWithClient(client, zap.NewNop())
	t.Cleanup(func() { _ = cache.Close() })

	return cache, mr
}

func TestCache_GetMiss(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	var dest map[string]int
	assert.ErrorIs(t, cache.Get(ctx, "missing", &dest), ErrCacheMiss)

	_, err := cache.GetString(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	n, err := cache.GetInt(ctx, "missing")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCache_UserState(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	state, err := cache.GetUserState(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, state)

	require.NoError(t, cache.SetUserState(ctx, 42, "awaiting_token"))
	state, err = cache.GetUserState(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "awaiting_token", state)
	assert.Equal(t, UserStateCacheTTL, mr.TTL(UserStateKey(42)))

	require.NoError(t, cache.DeleteUserState(ctx, 42))
	state, err = cache.GetUserState(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, state)
}

func TestCache_RateLimitWindow(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		n, err := cache.IncrementUserRateLimit(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, int64(i), n)
	}

	mr.FastForward(RateLimitWindowTTL + time.Second)

	n, err := cache.IncrementUserRateLimit(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = cache.IncrementAPIRateLimit(ctx)
	require.NoError(t, err)
	total, err := cache.GetAPIRateLimit(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestCache_RateLimitWindowIsFixed(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	n, err := cache.IncrementUserRateLimit(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// a steady sender must not keep the window open
	mr.FastForward(50 * time.Second)
	n, err = cache.IncrementUserRateLimit(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.LessOrEqual(t, mr.TTL(RateLimitKey(7)), 10*time.Second)

	mr.FastForward(50 * time.Second)
	n, err = cache.IncrementUserRateLimit(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, RateLimitWindowTTL, mr.TTL(RateLimitKey(7)))
}

func TestCache_IncrementRestoresMissingTTL(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, mr.Set(APIRateLimitKey(), "5"))

	n, err := cache.IncrementAPIRateLimit(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), n)
	assert.Equal(t, RateLimitWindowTTL, mr.TTL(APIRateLimitKey()))
}

func TestSnapshotCache(t *testing.T) {
	cache, mr := newTestCache(t)
	snapshots := NewSnapshotCache(cache, 10*time.Minute)
	ctx := context.Background()

	admin, err := snapshots.AdminAnalytics(ctx, "7d")
	require.NoError(t, err)
	assert.Nil(t, admin)

	require.NoError(t, snapshots.SetAdminAnalytics(ctx, "7d", &models.AdminAnalytics{
		TimeRange:  "7d",
		TotalUsers: 120,
		UserGrowth: []models.TimePoint{{Date: "2024-01-01", Count: 3}},
	}))

	admin, err = snapshots.AdminAnalytics(ctx, "7d")
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Equal(t, 120, admin.TotalUsers)
	assert.Len(t, admin.UserGrowth, 1)

	require.NoError(t, snapshots.SetRecruiterAnalytics(ctx, "r1", "30d", &models.RecruiterAnalytics{
		RecruiterID: "r1",
		TotalViews:  900,
	}))

	rec, err := snapshots.RecruiterAnalytics(ctx, "r1", "30d")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 900, rec.TotalViews)

	rec, err = snapshots.RecruiterAnalytics(ctx, "r2", "30d")
	require.NoError(t, err)
	assert.Nil(t, rec)

	mr.FastForward(11 * time.Minute)
	admin, err = snapshots.AdminAnalytics(ctx, "7d")
	require.NoError(t, err)
	assert.Nil(t, admin)
}
