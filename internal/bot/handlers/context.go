package handlers

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"jobmarket-bot/internal/bot/middleware"
	"jobmarket-bot/internal/bot/session"
	"jobmarket-bot/internal/bot/utils"
	"jobmarket-bot/internal/config"
	"jobmarket-bot/internal/models"
	"jobmarket-bot/internal/storage/redis"
	"jobmarket-bot/internal/store"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const requestTimeout = 30 * time.Second

// Storage is the postgres side of the handlers.
type Storage interface {
	GetAccount(ctx context.Context, telegramID int64) (*models.LinkedAccount, error)
	SetNotifyEnabled(ctx context.Context, telegramID int64, enabled bool) error
	GetSeenJobsCount(ctx context.Context, telegramID int64) (int, error)
	ArchiveJobs(ctx context.Context, jobs []models.Job) error
	GetArchivedJob(ctx context.Context, jobID string) (*models.ArchivedJob, error)
	MarkJobsSeen(ctx context.Context, telegramID int64, jobIDs []string) error
}

// Context contains deps for all handlers
type Context struct {
	Sessions *session.Registry
	Store    Storage
	Cache    *redis.Cache
	Config   *config.Config
	Logger   *zap.Logger
}

type sessionHandler func(c tele.Context, sess *session.Session) error

// withSession resolves the sender's session, answering with the link
// instructions when the account is not linked.
func withSession(ctx *Context, fn sessionHandler) tele.HandlerFunc {
	return func(c tele.Context) error {
		reqCtx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		sess, err := ctx.Sessions.Get(reqCtx, c.Sender().ID)
		if errors.Is(err, session.ErrNotLinked) {
			if c.Callback() != nil {
				_ = c.Respond(&tele.CallbackResponse{Text: "🔒 Link your account first"})
			}
			return c.Send(utils.FormatNotLinkedMessage(), tele.ModeMarkdownV2)
		}
		if err != nil {
			ctx.Logger.Error("failed to load session",
				zap.Int64("telegram_id", c.Sender().ID),
				zap.Error(err),
			)
			return c.Send("😔 Error. Please try again later.")
		}

		return fn(c, sess)
	}
}

// withRole rejects senders whose role is not listed.
func withRole(ctx *Context, fn sessionHandler, roles ...models.Role) tele.HandlerFunc {
	return withSession(ctx, func(c tele.Context, sess *session.Session) error {
		if !slices.Contains(roles, sess.Role) {
			return c.Send("⛔ This command is not available for your role.")
		}
		return fn(c, sess)
	})
}

// allowAPICall spends one unit of the shared marketplace budget, telling the
// user to come back later when it is exhausted.
func allowAPICall(ctx *Context, c tele.Context) bool {
	if err := middleware.CheckAPIRateLimit(ctx.Cache, ctx.Logger); err != nil {
		ctx.Logger.Warn("marketplace rate limit", zap.Error(err))
		_ = c.Send("⚠️ Too many requests to the marketplace. Try again in a minute.")
		return false
	}
	return true
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// storeFailure answers with the message the store recorded for the failed
// operation and clears it. Stale results are dropped without a reply.
func storeFailure(c tele.Context, err error, message string, clear func()) error {
	if errors.Is(err, store.ErrStaleResponse) {
		return nil
	}

	clear()
	if message == "" {
		message = "Request failed"
	}

	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: "😔 " + message, ShowAlert: true})
	}
	return c.Send("😔 " + message)
}

// commandArgs splits the payload of a command into at most n fields. With
// n > 1 the last field keeps the remaining text; with n == 1 only the first
// word is taken.
func commandArgs(payload string, n int) []string {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil
	}

	if n == 1 {
		return strings.Fields(payload)[:1]
	}

	fields := strings.SplitN(payload, " ", n)
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

// respond acknowledges a callback; outside callbacks it is a no-op.
func respond(c tele.Context, text string) error {
	if c.Callback() == nil {
		return nil
	}
	return c.Respond(&tele.CallbackResponse{Text: text})
}

func sendCards(ctx *Context, c tele.Context, cards []card) {
	for i, cd := range cards {
		opts := []interface{}{tele.ModeMarkdownV2}
		if cd.markup != nil {
			opts = append(opts, cd.markup)
		}

		if err := c.Send(cd.text, opts...); err != nil {
			ctx.Logger.Error("failed to send card",
				zap.Int("index", i),
				zap.Int64("telegram_id", c.Sender().ID),
				zap.Error(err),
			)
			continue
		}

		if i < len(cards)-1 {
			time.Sleep(300 * time.Millisecond)
		}
	}
}

type card struct {
	text   string
	markup *tele.ReplyMarkup
}
