package handlers

import (
	"fmt"
	"strings"

	"jobmarket-bot/internal/bot/session"
	"jobmarket-bot/internal/bot/utils"
	"jobmarket-bot/internal/models"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const chatHistoryLimit = 15

// /chats
func HandleChats(ctx *Context) tele.HandlerFunc {
	return withSession(ctx, func(c tele.Context, sess *session.Session) error {
		if !allowAPICall(ctx, c) {
			return nil
		}

		reqCtx, cancel := requestContext()
		defer cancel()

		chatStore := sess.Stores.Chat

		// listing chats leaves the one being read
		chatStore.SetActiveChat("")

		if _, err := chatStore.FetchChats(reqCtx); err != nil {
			return storeFailure(c, err, chatStore.Err(), chatStore.ClearError)
		}

		chats := chatStore.Chats()
		if len(chats) == 0 {
			return c.Send("💬 No chats yet. Start one with /newchat <user id>")
		}

		header := fmt.Sprintf("💬 *Chats:* %d", len(chats))
		if total := chatStore.TotalUnread(); total > 0 {
			header += fmt.Sprintf("\n🔴 Unread: %d", total)
		}
		if err := c.Send(header, tele.ModeMarkdownV2); err != nil {
			return err
		}

		cards := make([]card, 0, len(chats))
		for _, chat := range chats {
			cards = append(cards, card{
				text:   utils.FormatChat(chat, chatStore.UnreadCount(chat.ID), sess.UserID()),
				markup: utils.InlineChatKeyboard(chat.ID),
			})
		}
		sendCards(ctx, c, cards)

		return nil
	})
}

// /read <chatId>
func HandleRead(ctx *Context) tele.HandlerFunc {
	return withSession(ctx, func(c tele.Context, sess *session.Session) error {
		args := commandArgs(c.Message().Payload, 1)
		if len(args) == 0 {
			return c.Send("Usage: /read <chat id>")
		}
		return openChat(ctx, c, sess, args[0])
	})
}

// openChat makes the chat active, loads its messages and confirms them as
// read on the server.
func openChat(ctx *Context, c tele.Context, sess *session.Session, chatID string) error {
	if !allowAPICall(ctx, c) {
		return nil
	}

	reqCtx, cancel := requestContext()
	defer cancel()

	chatStore := sess.Stores.Chat
	chatStore.SetActiveChat(chatID)

	if _, err := chatStore.FetchMessages(reqCtx, chatID); err != nil {
		return storeFailure(c, err, chatStore.Err(), chatStore.ClearError)
	}

	if err := chatStore.MarkMessagesAsRead(reqCtx, chatID); err != nil {
		ctx.Logger.Warn("failed to mark chat read",
			zap.String("chat_id", chatID),
			zap.Error(err),
		)
		chatStore.ClearError()
	}

	if err := respond(c, ""); err != nil {
		ctx.Logger.Warn("failed to answer callback", zap.Error(err))
	}

	messages := chatStore.Messages(chatID)
	if len(messages) == 0 {
		return c.Send(fmt.Sprintf("💬 Chat is empty. Write with /send %s <text>", chatID))
	}
	if len(messages) > chatHistoryLimit {
		messages = messages[len(messages)-chatHistoryLimit:]
	}

	lines := make([]string, 0, len(messages)+2)
	for _, msg := range messages {
		status, _ := chatStore.MessageStatus(msg.ID)
		msg.Content = utils.TruncateString(msg.Content, 500)
		lines = append(lines, utils.FormatMessage(msg, sess.UserID(), status))
	}

	for _, ind := range chatStore.Presence().TypingIndicators(chatID) {
		if ind.UserID != sess.UserID() {
			lines = append(lines, fmt.Sprintf("_✍️ %s is typing…_", utils.EscapeMarkdown(ind.UserID)))
		}
	}

	for _, ind := range chatStore.Presence().Unconfirmed() {
		if ind.ChatID == chatID && ind.UserID == sess.UserID() {
			lines = append(lines, "_⚠️ Your typing status was not delivered_")
			break
		}
	}

	if chatStore.PendingReadConfirmation(chatID) {
		lines = append(lines, "_⚠️ Could not confirm read status with the server_")
	}

	return c.Send(strings.Join(lines, "\n\n"), tele.ModeMarkdownV2)
}

// /send <chatId> <text>
func HandleSend(ctx *Context) tele.HandlerFunc {
	return withSession(ctx, func(c tele.Context, sess *session.Session) error {
		args := commandArgs(c.Message().Payload, 2)
		if len(args) < 2 || args[1] == "" {
			return c.Send("Usage: /send <chat id> <text>")
		}
		chatID, text := args[0], args[1]

		if !allowAPICall(ctx, c) {
			return nil
		}

		reqCtx, cancel := requestContext()
		defer cancel()

		chatStore := sess.Stores.Chat

		// typing failures only affect the indicator
		if err := chatStore.SendTypingIndicator(reqCtx, chatID, true); err != nil {
			ctx.Logger.Debug("typing indicator failed", zap.Error(err))
		}

		msg, err := chatStore.SendMessage(reqCtx, chatID, models.MessageInput{Content: text})

		if err := chatStore.SendTypingIndicator(reqCtx, chatID, false); err != nil {
			ctx.Logger.Debug("typing indicator failed", zap.Error(err))
		}

		if err != nil {
			return storeFailure(c, err, chatStore.Err(), chatStore.ClearError)
		}

		ctx.Logger.Info("message sent",
			zap.String("chat_id", chatID),
			zap.String("message_id", msg.ID),
		)

		return c.Send("✓ Sent")
	})
}

// /newchat <participantId>
func HandleNewChat(ctx *Context) tele.HandlerFunc {
	return withSession(ctx, func(c tele.Context, sess *session.Session) error {
		args := commandArgs(c.Message().Payload, 1)
		if len(args) == 0 {
			return c.Send("Usage: /newchat <user id>")
		}

		if !allowAPICall(ctx, c) {
			return nil
		}

		reqCtx, cancel := requestContext()
		defer cancel()

		chatStore := sess.Stores.Chat
		chat, err := chatStore.CreateChat(reqCtx, args[0])
		if err != nil {
			return storeFailure(c, err, chatStore.Err(), chatStore.ClearError)
		}

		return c.Send(
			fmt.Sprintf("💬 Chat created\\. Write with /send %s \\<text\\>", utils.EscapeMarkdown(chat.ID)),
			tele.ModeMarkdownV2,
		)
	})
}
