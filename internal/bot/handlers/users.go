package handlers

import (
	"errors"
	"fmt"

	"jobmarket-bot/internal/bot/session"
	"jobmarket-bot/internal/bot/utils"
	"jobmarket-bot/internal/models"
	"jobmarket-bot/internal/store"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const userListLimit = 20

// /users
func HandleUsers(ctx *Context) tele.HandlerFunc {
	return withRole(ctx, func(c tele.Context, sess *session.Session) error {
		if !allowAPICall(ctx, c) {
			return nil
		}

		reqCtx, cancel := requestContext()
		defer cancel()

		users := sess.Stores.Users
		if _, err := users.FetchUsers(reqCtx); err != nil {
			return storeFailure(c, err, users.Err(), users.ClearError)
		}

		list := users.Users()
		header := fmt.Sprintf("👥 *Users:* %d", len(list))
		if len(list) > userListLimit {
			header += fmt.Sprintf("\nShowing the first %d", userListLimit)
			list = list[:userListLimit]
		}
		if err := c.Send(header, tele.ModeMarkdownV2); err != nil {
			return err
		}

		cards := make([]card, 0, len(list))
		for _, u := range list {
			cards = append(cards, card{text: utils.FormatUser(u), markup: utils.InlineUserKeyboard(u)})
		}
		sendCards(ctx, c, cards)

		return nil
	}, models.RoleAdmin)
}

// HandleSetUserStatus serves /suspend and /activate.
func HandleSetUserStatus(ctx *Context, status models.UserStatus) tele.HandlerFunc {
	return withRole(ctx, func(c tele.Context, sess *session.Session) error {
		args := commandArgs(c.Message().Payload, 1)
		if len(args) == 0 {
			return c.Send(fmt.Sprintf("Usage: %s <user id>", c.Message().Text))
		}
		return setUserStatus(ctx, c, sess, args[0], status)
	}, models.RoleAdmin)
}

func handleUserStatus(ctx *Context, c tele.Context, sess *session.Session, args []string) error {
	if sess.Role != models.RoleAdmin {
		return c.Respond(&tele.CallbackResponse{Text: "⛔ Not allowed"})
	}
	if len(args) < 2 {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Invalid format"})
	}

	status := models.UserStatus(args[1])
	switch status {
	case models.UserActive, models.UserInactive, models.UserSuspended:
	default:
		return c.Respond(&tele.CallbackResponse{Text: "❌ Unknown status"})
	}

	return setUserStatus(ctx, c, sess, args[0], status)
}

func setUserStatus(ctx *Context, c tele.Context, sess *session.Session, userID string, status models.UserStatus) error {
	if !allowAPICall(ctx, c) {
		return nil
	}

	reqCtx, cancel := requestContext()
	defer cancel()

	users := sess.Stores.Users
	updated, err := users.UpdateUserStatus(reqCtx, userID, status)
	if errors.Is(err, store.ErrNotFound) {
		users.ClearError()
		if c.Callback() != nil {
			return c.Respond(&tele.CallbackResponse{Text: "❌ Unknown user"})
		}
		return c.Send("❌ Unknown user. Open /users first.")
	}
	if err != nil {
		return storeFailure(c, err, users.Err(), users.ClearError)
	}

	if c.Callback() != nil {
		if err := c.Edit(utils.FormatUser(updated), utils.InlineUserKeyboard(updated), tele.ModeMarkdownV2); err != nil {
			ctx.Logger.Debug("failed to edit user card", zap.Error(err))
		}
		return c.Respond(&tele.CallbackResponse{Text: fmt.Sprintf("✅ %s", status)})
	}

	return c.Send(utils.FormatUser(updated), utils.InlineUserKeyboard(updated), tele.ModeMarkdownV2)
}
