package redis

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	RateLimitWindowTTL = 1 * time.Minute
	UserStateCacheTTL  = 30 * time.Minute
)

func RateLimitKey(telegramID int64) string {
	return fmt.Sprintf("ratelimit:user:%d", telegramID)
}

func APIRateLimitKey() string {
	return "ratelimit:marketplace"
}

func UserStateKey(telegramID int64) string {
	return fmt.Sprintf("state:user:%d", telegramID)
}

func AdminAnalyticsKey(timeRange string) string {
	return fmt.Sprintf("analytics:admin:%s", timeRange)
}

func RecruiterAnalyticsKey(recruiterID, timeRange string) string {
	return fmt.Sprintf("analytics:recruiter:%s:%s", recruiterID, timeRange)
}

func (c *Cache) IncrementUserRateLimit(ctx context.Context, telegramID int64) (int64, error) {
	return c.IncrementWithExpiry(ctx, RateLimitKey(telegramID), RateLimitWindowTTL)
}

func (c *Cache) IncrementAPIRateLimit(ctx context.Context) (int64, error) {
	return c.IncrementWithExpiry(ctx, APIRateLimitKey(), RateLimitWindowTTL)
}

func (c *Cache) GetAPIRateLimit(ctx context.Context) (int64, error) {
	return c.GetInt(ctx, APIRateLimitKey())
}

func (c *Cache) SetUserState(ctx context.Context, telegramID int64, state string) error {
	return c.SetString(ctx, UserStateKey(telegramID), state, UserStateCacheTTL)
}

// GetUserState returns "" when no conversation state is pending.
func (c *Cache) GetUserState(ctx context.Context, telegramID int64) (string, error) {
	state, err := c.GetString(ctx, UserStateKey(telegramID))
	if errors.Is(err, ErrCacheMiss) {
		return "", nil
	}
	return state, err
}

func (c *Cache) DeleteUserState(ctx context.Context, telegramID int64) error {
	return c.Delete(ctx, UserStateKey(telegramID))
}
