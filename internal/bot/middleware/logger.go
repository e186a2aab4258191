package middleware

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// commands whose arguments must not reach the logs
var redactedCommands = []string{"/link"}

// Logger middleware for logging all incoming msgs
func Logger(logger *zap.Logger) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			start := time.Now()

			var userID int64
			var username string
			if user := c.Sender(); user != nil {
				userID = user.ID
				username = user.Username
			}

			var text, kind string
			if msg := c.Message(); msg != nil {
				text = redact(msg.Text)
				kind = "message"
			}
			if cb := c.Callback(); cb != nil {
				text = strings.TrimPrefix(cb.Data, "\f")
				kind = "callback"
			}

			err := next(c)

			fields := []zap.Field{
				zap.Int64("telegram_id", userID),
				zap.String("username", username),
				zap.String("type", kind),
				zap.String("text", text),
				zap.Duration("duration", time.Since(start)),
			}

			if err != nil {
				fields = append(fields, zap.Error(err))
				logger.Error("handler error", fields...)
			} else {
				logger.Info("request handled", fields...)
			}

			return err
		}
	}
}

// redact hides command arguments that carry secrets. Plain text may be a
// token sent in reply to a bare /link, so only its length is kept.
func redact(text string) string {
	if text != "" && !strings.HasPrefix(text, "/") {
		return fmt.Sprintf("[text, %d chars]", utf8.RuneCountInString(text))
	}
	for _, cmd := range redactedCommands {
		if text == cmd || strings.HasPrefix(text, cmd+" ") || strings.HasPrefix(text, cmd+"@") {
			return cmd + " [redacted]"
		}
	}
	return text
}
