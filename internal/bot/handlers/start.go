package handlers

import (
	"errors"

	"jobmarket-bot/internal/bot/session"
	"jobmarket-bot/internal/bot/utils"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// /start command
func HandleStart(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		sender := c.Sender()

		ctx.Logger.Info("user started bot",
			zap.Int64("telegram_id", sender.ID),
			zap.String("username", sender.Username),
		)

		reqCtx, cancel := requestContext()
		defer cancel()

		sess, err := ctx.Sessions.Get(reqCtx, sender.ID)
		switch {
		case errors.Is(err, session.ErrNotLinked):
			return c.Send(
				utils.FormatWelcomeMessage(sender.FirstName, false),
				utils.RemoveKeyboard(),
				tele.ModeMarkdownV2,
			)
		case err != nil:
			ctx.Logger.Error("get session failed", zap.Int64("telegram_id", sender.ID), zap.Error(err))
			return c.Send("😔 Error. Please try again later.")
		}

		return c.Send(
			utils.FormatWelcomeMessage(sender.FirstName, true),
			utils.MainMenuKeyboard(sess.Role),
			tele.ModeMarkdownV2,
		)
	}
}
