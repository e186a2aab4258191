package handlers

import (
	"strings"

	"jobmarket-bot/internal/bot/utils"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// HandleText processes all text messages
func HandleText(ctx *Context) tele.HandlerFunc {
	return func(c tele.Context) error {
		text := strings.TrimSpace(c.Text())
		userID := c.Sender().ID

		state, err := getUserState(ctx, userID)
		if err != nil {
			ctx.Logger.Warn("failed to get user state", zap.Error(err))
			state = StateIdle
		}

		if text == utils.BtnCancel {
			return cancelConversation(ctx, c)
		}

		if state != StateIdle {
			return handleStateInput(ctx, c, state, text)
		}

		switch text {
		case utils.BtnJobs:
			return HandleJobs(ctx)(c)
		case utils.BtnApplications:
			return HandleApplications(ctx)(c)
		case utils.BtnSaved:
			return HandleSaved(ctx)(c)
		case utils.BtnChats:
			return HandleChats(ctx)(c)
		case utils.BtnStats:
			return HandleStats(ctx)(c)
		case utils.BtnUsers:
			return HandleUsers(ctx)(c)
		case utils.BtnHelp:
			return HandleHelp(ctx)(c)
		default:
			return c.Reply("Use the menu buttons or commands, see /help")
		}
	}
}

func handleStateInput(ctx *Context, c tele.Context, state, text string) error {
	switch state {
	case StateAwaitingToken:
		if text == "" || strings.HasPrefix(text, "/") {
			return c.Send("Send the token as a plain message, or press Cancel.", utils.CancelKeyboard())
		}
		return linkAccount(ctx, c, text)
	default:
		_ = clearUserState(ctx, c.Sender().ID)
		return c.Reply("Use the menu buttons or commands, see /help")
	}
}

func cancelConversation(ctx *Context, c tele.Context) error {
	if err := clearUserState(ctx, c.Sender().ID); err != nil {
		ctx.Logger.Warn("failed to clear state", zap.Error(err))
	}

	reqCtx, cancel := requestContext()
	defer cancel()

	markup := utils.RemoveKeyboard()
	if sess, err := ctx.Sessions.Get(reqCtx, c.Sender().ID); err == nil {
		markup = utils.MainMenuKeyboard(sess.Role)
	}

	return c.Send("❌ Cancelled", markup)
}
