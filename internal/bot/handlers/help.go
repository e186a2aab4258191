package handlers

import (
	"jobmarket-bot/internal/bot/utils"
	"jobmarket-bot/internal/models"

	tele "gopkg.in/telebot.v3"
)

// /help
func HandleHelp(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		reqCtx, cancel := requestContext()
		defer cancel()

		// unlinked users get the common command list
		role := models.Role("")
		if sess, err := ctx.Sessions.Get(reqCtx, c.Sender().ID); err == nil {
			role = sess.Role
		}

		return c.Send(
			utils.FormatHelpMessage(role),
			utils.MainMenuKeyboard(role),
			tele.ModeMarkdownV2,
		)
	}
}
