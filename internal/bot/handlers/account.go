package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"jobmarket-bot/internal/api/marketplace"
	"jobmarket-bot/internal/bot/session"
	"jobmarket-bot/internal/bot/utils"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// Conversation states kept in redis
const (
	StateIdle          = ""
	StateAwaitingToken = "awaiting_token"
)

// /link [token]
func HandleLink(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		token := strings.TrimSpace(c.Message().Payload)
		if token == "" {
			if err := setUserState(ctx, c.Sender().ID, StateAwaitingToken); err != nil {
				ctx.Logger.Error("failed to set user state", zap.Error(err))
				return c.Send("😔 Error. Please try again later.")
			}

			return c.Send(
				"🔑 Send me your marketplace API token.\n\nYou can create one in your profile settings.",
				utils.CancelKeyboard(),
			)
		}

		return linkAccount(ctx, c, token)
	}
}

func linkAccount(ctx *Context, c tele.Context, token string) error {
	userID := c.Sender().ID

	// the token should not stay in the chat history
	if err := c.Delete(); err != nil {
		ctx.Logger.Debug("failed to delete token message", zap.Error(err))
	}

	if err := clearUserState(ctx, userID); err != nil {
		ctx.Logger.Warn("failed to clear state", zap.Error(err))
	}

	if !allowAPICall(ctx, c) {
		return nil
	}

	reqCtx, cancel := requestContext()
	defer cancel()

	sess, err := ctx.Sessions.Link(reqCtx, userID, token)
	if err != nil {
		ctx.Logger.Warn("failed to link account",
			zap.Int64("telegram_id", userID),
			zap.Error(err),
		)

		var apiErr *marketplace.APIError
		if errors.As(err, &apiErr) && apiErr.Status < 500 {
			return c.Send("❌ The marketplace rejected this token. Check it and try /link again.")
		}
		return c.Send("😔 Could not reach the marketplace. Please try again later.")
	}

	return c.Send(
		fmt.Sprintf("✅ Linked as *%s* \\(%s\\)",
			utils.EscapeMarkdown(sess.UserID()),
			utils.EscapeMarkdown(string(sess.Role)),
		),
		utils.MainMenuKeyboard(sess.Role),
		tele.ModeMarkdownV2,
	)
}

// /unlink
func HandleUnlink(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		reqCtx, cancel := requestContext()
		defer cancel()

		if err := ctx.Sessions.Unlink(reqCtx, c.Sender().ID); err != nil {
			ctx.Logger.Error("failed to unlink account",
				zap.Int64("telegram_id", c.Sender().ID),
				zap.Error(err),
			)
			return c.Send("😔 Error. Please try again later.")
		}

		return c.Send("👋 Account unlinked. Your data on the marketplace is untouched.", utils.RemoveKeyboard())
	}
}

// /notify [on|off]
func HandleNotify(ctx *Context) tele.HandlerFunc {
	return withSession(ctx, func(c tele.Context, sess *session.Session) error {
		reqCtx, cancel := requestContext()
		defer cancel()

		arg := strings.ToLower(strings.TrimSpace(c.Message().Payload))

		switch arg {
		case "":
			acc, err := ctx.Store.GetAccount(reqCtx, c.Sender().ID)
			if err != nil || acc == nil {
				ctx.Logger.Error("failed to get account", zap.Error(err))
				return c.Send("😔 Error. Please try again later.")
			}

			status := "🔕 Notifications are off"
			if acc.NotifyEnabled {
				status = "🔔 Notifications are on"
			}
			if acc.LastCheck != nil {
				status += fmt.Sprintf("\nLast check: %s", utils.FormatTimeAgo(*acc.LastCheck, time.Now()))
			}
			if seen, err := ctx.Store.GetSeenJobsCount(reqCtx, c.Sender().ID); err == nil {
				status += fmt.Sprintf("\nJobs already sent to you: %d", seen)
			}
			return c.Send(status + "\n\nUse /notify on or /notify off")
		case "on", "off":
		default:
			return c.Send("Usage: /notify on|off")
		}

		enabled := arg == "on"
		if err := ctx.Store.SetNotifyEnabled(reqCtx, c.Sender().ID, enabled); err != nil {
			ctx.Logger.Error("failed to set notify flag", zap.Error(err))
			return c.Send("😔 Error while saving")
		}

		if enabled {
			return c.Send("🔔 You will be notified about new jobs and messages")
		}
		return c.Send("🔕 Notifications disabled")
	})
}

func setUserState(ctx *Context, userID int64, state string) error {
	return ctx.Cache.SetUserState(context.Background(), userID, state)
}

func getUserState(ctx *Context, userID int64) (string, error) {
	return ctx.Cache.GetUserState(context.Background(), userID)
}

func clearUserState(ctx *Context, userID int64) error {
	return ctx.Cache.DeleteUserState(context.Background(), userID)
}
