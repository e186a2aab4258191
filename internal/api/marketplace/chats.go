package marketplace

import (
	"context"
	"fmt"
	"net/http"

	"jobmarket-bot/internal/models"

	"go.uber.org/zap"
)

func (c *Client) ListChats(ctx context.Context) ([]models.Chat, error) {
	var chats []models.Chat
	if err := c.get(ctx, "/chats", nil, &chats); err != nil {
		c.logger.Error("failed to list chats", zap.Error(err))
		return nil, fmt.Errorf("list chats: %w", err)
	}

	return chats, nil
}

func (c *Client) ListMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	var messages []models.Message
	if err := c.get(ctx, resourcePath("chats", chatID, "messages"), nil, &messages); err != nil {
		c.logger.Error("failed to list messages",
			zap.String("chat_id", chatID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list messages: %w", err)
	}

	// the server may leave chatId out of messages listed under a chat
	for i := range messages {
		if messages[i].ChatID == "" {
			messages[i].ChatID = chatID
		}
	}

	c.logger.Debug("messages listed",
		zap.String("chat_id", chatID),
		zap.Int("count", len(messages)),
	)
	return messages, nil
}

func (c *Client) SendMessage(ctx context.Context, chatID string, input models.MessageInput) (*models.Message, error) {
	var msg models.Message
	if err := c.send(ctx, http.MethodPost, resourcePath("chats", chatID, "messages"), input, &msg); err != nil {
		c.logger.Error("failed to send message",
			zap.String("chat_id", chatID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("send message: %w", err)
	}

	return &msg, nil
}

func (c *Client) CreateChat(ctx context.Context, participantID string) (*models.Chat, error) {
	var chat models.Chat
	if err := c.send(ctx, http.MethodPost, "/chats", createChatRequest{ParticipantID: participantID}, &chat); err != nil {
		c.logger.Error("failed to create chat",
			zap.String("participant_id", participantID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("create chat: %w", err)
	}

	return &chat, nil
}

func (c *Client) MarkChatRead(ctx context.Context, chatID string) error {
	if err := c.send(ctx, http.MethodPost, resourcePath("chats", chatID, "read"), nil, nil); err != nil {
		c.logger.Error("failed to mark chat read",
			zap.String("chat_id", chatID),
			zap.Error(err),
		)
		return fmt.Errorf("mark chat read: %w", err)
	}

	return nil
}

func (c *Client) SendTyping(ctx context.Context, chatID string, isTyping bool) error {
	if err := c.send(ctx, http.MethodPost, resourcePath("chats", chatID, "typing"), typingRequest{IsTyping: isTyping}, nil); err != nil {
		c.logger.Warn("failed to send typing indicator",
			zap.String("chat_id", chatID),
			zap.Error(err),
		)
		return fmt.Errorf("send typing: %w", err)
	}

	return nil
}
