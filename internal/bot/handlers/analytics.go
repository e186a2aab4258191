package handlers

import (
	"jobmarket-bot/internal/bot/session"
	"jobmarket-bot/internal/bot/utils"
	"jobmarket-bot/internal/models"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const defaultTimeRange = "30d"

// /stats [range]
func HandleStats(ctx *Context) tele.HandlerFunc {
	return withRole(ctx, func(c tele.Context, sess *session.Session) error {
		timeRange := defaultTimeRange
		if args := commandArgs(c.Message().Payload, 1); len(args) > 0 {
			timeRange = args[0]
		}

		if !models.IsValidTimeRange(timeRange) {
			return c.Send("Usage: /stats [7d|30d|90d|1y]")
		}

		return showStats(ctx, c, sess, timeRange)
	}, models.RoleAdmin, models.RoleRecruiter)
}

func showStats(ctx *Context, c tele.Context, sess *session.Session, timeRange string) error {
	if !allowAPICall(ctx, c) {
		return nil
	}

	reqCtx, cancel := requestContext()
	defer cancel()

	analytics := sess.Stores.Analytics

	var text string
	switch sess.Role {
	case models.RoleAdmin:
		snapshot, err := analytics.FetchAdmin(reqCtx, timeRange)
		if err != nil {
			return storeFailure(c, err, analytics.Err(), analytics.ClearError)
		}
		text = utils.FormatAdminAnalytics(snapshot)
	case models.RoleRecruiter:
		snapshot, err := analytics.FetchRecruiter(reqCtx, sess.UserID(), timeRange)
		if err != nil {
			return storeFailure(c, err, analytics.Err(), analytics.ClearError)
		}
		text = utils.FormatRecruiterAnalytics(snapshot)
	default:
		return respond(c, "⛔ Not allowed")
	}

	keyboard := utils.InlineTimeRangeKeyboard(timeRange)

	// range buttons edit the dashboard in place
	if c.Callback() != nil {
		if err := c.Edit(text, keyboard, tele.ModeMarkdownV2); err != nil {
			ctx.Logger.Debug("failed to edit stats", zap.Error(err))
		}
		return c.Respond()
	}

	return c.Send(text, keyboard, tele.ModeMarkdownV2)
}

func handleStatsRange(ctx *Context, c tele.Context, sess *session.Session, args []string) error {
	if len(args) < 1 || !models.IsValidTimeRange(args[0]) {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Invalid range"})
	}
	return showStats(ctx, c, sess, args[0])
}
