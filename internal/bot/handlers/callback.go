package handlers

import (
	"jobmarket-bot/internal/bot/session"
	"jobmarket-bot/internal/bot/utils"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// HandleCallback processes all callback queries from inline buttons
func HandleCallback(ctx *Context) tele.HandlerFunc {
	return withSession(ctx, func(c tele.Context, sess *session.Session) error {
		cb := c.Callback()
		if cb == nil {
			ctx.Logger.Warn("callback is nil")
			return nil
		}

		action, args := utils.ParseCallback(cb.Data)

		ctx.Logger.Debug("routing callback",
			zap.String("action", action),
			zap.Strings("args", args),
			zap.Int64("telegram_id", c.Sender().ID),
		)

		// every action below takes at least one argument
		if len(args) == 0 {
			ctx.Logger.Warn("invalid callback format", zap.String("data", cb.Data))
			return c.Respond(&tele.CallbackResponse{Text: "❌ Invalid format"})
		}

		switch action {
		case utils.ActionJobDetails:
			return handleJobDetails(ctx, c, sess, args[0])
		case utils.ActionJobApply:
			return handleJobApply(ctx, c, sess, args[0])
		case utils.ActionJobSave:
			return handleJobSave(ctx, c, sess, args[0], true)
		case utils.ActionJobUnsave:
			return handleJobSave(ctx, c, sess, args[0], false)
		case utils.ActionJobDelete:
			return handleJobDelete(ctx, c, sess, args[0])
		case utils.ActionAppStatus:
			return handleApplicationStatus(ctx, c, sess, args)
		case utils.ActionChatOpen:
			return openChat(ctx, c, sess, args[0])
		case utils.ActionUserStatus:
			return handleUserStatus(ctx, c, sess, args)
		case utils.ActionStatsRange:
			return handleStatsRange(ctx, c, sess, args)
		default:
			ctx.Logger.Warn("unknown callback action",
				zap.String("action", action),
				zap.String("data", cb.Data),
			)
			return c.Respond(&tele.CallbackResponse{Text: "❓ Unknown action"})
		}
	})
}
