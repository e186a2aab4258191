package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const (
	MaxRequestsPerMinute    = 30
	MaxAPIRequestsPerMinute = 120
)

var ErrAPIRateLimited = errors.New("marketplace api rate limit exceeded")

// RateCounter is the part of the cache the limiters use.
type RateCounter interface {
	IncrementUserRateLimit(ctx context.Context, telegramID int64) (int64, error)
	IncrementAPIRateLimit(ctx context.Context) (int64, error)
	GetAPIRateLimit(ctx context.Context) (int64, error)
}

func RateLimit(counter RateCounter, logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil {
				return next(c)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			count, err := counter.IncrementUserRateLimit(ctx, user.ID)
			if err != nil {
				// fail open
				logger.Error("failed to check rate limit",
					zap.Int64("telegram_id", user.ID),
					zap.Error(err),
				)
				return next(c)
			}

			if count > MaxRequestsPerMinute {
				logger.Warn("rate limit exceeded",
					zap.Int64("telegram_id", user.ID),
					zap.Int64("count", count),
				)

				if c.Callback() != nil {
					return c.Respond(&tele.CallbackResponse{Text: "⚠️ Too many requests, wait a minute"})
				}

				return c.Reply(fmt.Sprintf(
					"⚠️ Too many requests. Please wait a minute.\n"+
						"Limit: %d requests per minute.",
					MaxRequestsPerMinute,
				))
			}

			return next(c)
		}
	}
}

// CheckAPIRateLimit counts one marketplace call against the shared
// per-minute budget. Cache failures do not block the call.
func CheckAPIRateLimit(counter RateCounter, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	count, err := counter.GetAPIRateLimit(ctx)
	if err != nil {
		logger.Error("failed to check api rate limit", zap.Error(err))
		return nil
	}

	if count >= MaxAPIRequestsPerMinute {
		return fmt.Errorf("%w: %d requests", ErrAPIRateLimited, count)
	}

	if _, err := counter.IncrementAPIRateLimit(ctx); err != nil {
		logger.Error("failed to increment api rate limit", zap.Error(err))
	}

	return nil
}
