package store

import (
	"context"
	"errors"
	"testing"

	"jobmarket-bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatAPI() *fakeAPI {
	return &fakeAPI{
		listChats: func(context.Context) ([]models.Chat, error) {
			return []models.Chat{
				{ID: "c1", Participants: []string{"me", "bob"}},
				{ID: "c2", Participants: []string{"me", "alice"}},
			}, nil
		},
		listMessages: func(_ context.Context, chatID string) ([]models.Message, error) {
			return []models.Message{
				{ID: "m1", ChatID: chatID, Sender: "bob", Content: "hi", ReadBy: []string{"bob", "me"}},
				{ID: "m2", ChatID: chatID, Sender: "bob", Content: "are you there?", ReadBy: []string{}},
			}, nil
		},
		markChatRead: func(context.Context, string) error {
			return nil
		},
	}
}

func TestChatStore_FetchMessagesSeedsStatuses(t *testing.T) {
	s := newTestStores(t, chatAPI()).Chat
	ctx := context.Background()

	_, err := s.FetchChats(ctx)
	require.NoError(t, err)
	_, err = s.FetchMessages(ctx, "c1")
	require.NoError(t, err)

	st, ok := s.MessageStatus("m1")
	require.True(t, ok)
	assert.Equal(t, models.MessageRead, st)

	st, ok = s.MessageStatus("m2")
	require.True(t, ok)
	assert.Equal(t, models.MessageSent, st)

	assert.Len(t, s.Messages("c1"), 2)
	chats := s.Chats()
	require.Len(t, chats, 2)
	assert.Equal(t, "c1", chats[0].ID)
	assert.Equal(t, "c2", chats[1].ID)
}

func TestChatStore_FetchMessagesKeepsKnownStatuses(t *testing.T) {
	s := newTestStores(t, chatAPI()).Chat
	ctx := context.Background()

	s.ReceiveMessage(models.Message{ID: "m1", ChatID: "c1", Sender: "bob"})
	st, _ := s.MessageStatus("m1")
	require.Equal(t, models.MessageSent, st)

	_, err := s.FetchMessages(ctx, "c1")
	require.NoError(t, err)

	st, _ = s.MessageStatus("m1")
	assert.Equal(t, models.MessageSent, st)
}

func TestChatStore_MarkMessagesAsRead(t *testing.T) {
	s := newTestStores(t, chatAPI()).Chat
	ctx := context.Background()

	_, err := s.FetchMessages(ctx, "c1")
	require.NoError(t, err)
	s.ReceiveMessage(models.Message{ID: "m3", ChatID: "c1", Sender: "bob", Content: "ping"})
	s.ReceiveMessage(models.Message{ID: "m4", ChatID: "c1", Sender: "bob", Content: "ping again"})
	require.Equal(t, 2, s.UnreadCount("c1"))

	require.NoError(t, s.MarkMessagesAsRead(ctx, "c1"))

	for _, msg := range s.Messages("c1") {
		assert.True(t, msg.IsReadBy("me"), msg.ID)
		st, ok := s.MessageStatus(msg.ID)
		require.True(t, ok)
		assert.Equal(t, models.MessageRead, st, msg.ID)
	}
	assert.Equal(t, 0, s.UnreadCount("c1"))

	// me is not added twice
	m1 := s.Messages("c1")[0]
	assert.Equal(t, []string{"bob", "me"}, m1.ReadBy)
}

func TestChatStore_MarkMessagesAsReadFailureChangesNothing(t *testing.T) {
	api := chatAPI()
	api.markChatRead = func(context.Context, string) error {
		return errors.New("timeout")
	}
	s := newTestStores(t, api).Chat
	ctx := context.Background()

	s.ReceiveMessage(models.Message{ID: "m1", ChatID: "c1", Sender: "bob"})

	require.Error(t, s.MarkMessagesAsRead(ctx, "c1"))
	assert.Equal(t, 1, s.UnreadCount("c1"))
	assert.False(t, s.Messages("c1")[0].IsReadBy("me"))
	st, _ := s.MessageStatus("m1")
	assert.Equal(t, models.MessageSent, st)
	assert.Equal(t, "Failed to mark messages as read", s.Err())
}

func TestChatStore_ReceiveMessageUnreadRules(t *testing.T) {
	s := newTestStores(t, chatAPI()).Chat

	assert.True(t, s.ReceiveMessage(models.Message{ID: "m1", ChatID: "c1", Sender: "bob"}))
	assert.Equal(t, 1, s.UnreadCount("c1"))

	// own messages never count
	assert.True(t, s.ReceiveMessage(models.Message{ID: "m2", ChatID: "c1", Sender: "me"}))
	assert.Equal(t, 1, s.UnreadCount("c1"))

	// duplicates are ignored
	assert.False(t, s.ReceiveMessage(models.Message{ID: "m1", ChatID: "c1", Sender: "bob"}))
	assert.Equal(t, 1, s.UnreadCount("c1"))
	assert.Len(t, s.Messages("c1"), 2)

	// the active chat does not accumulate
	s.SetActiveChat("c2")
	assert.True(t, s.ReceiveMessage(models.Message{ID: "m3", ChatID: "c2", Sender: "alice"}))
	assert.Equal(t, 0, s.UnreadCount("c2"))

	assert.Equal(t, 1, s.TotalUnread())
}

func TestChatStore_SetActiveChatZeroesUnread(t *testing.T) {
	s := newTestStores(t, chatAPI()).Chat
	ctx := context.Background()

	s.ReceiveMessage(models.Message{ID: "m1", ChatID: "c1", Sender: "bob"})
	require.Equal(t, 1, s.UnreadCount("c1"))

	s.SetActiveChat("c1")
	assert.Equal(t, "c1", s.ActiveChat())
	assert.Equal(t, 0, s.UnreadCount("c1"))
	assert.True(t, s.PendingReadConfirmation("c1"))

	require.NoError(t, s.MarkMessagesAsRead(ctx, "c1"))
	assert.False(t, s.PendingReadConfirmation("c1"))

	s.SetActiveChat("")
	assert.Empty(t, s.ActiveChat())
}

func TestChatStore_CreateChat(t *testing.T) {
	api := chatAPI()
	api.createChat = func(_ context.Context, participantID string) (*models.Chat, error) {
		return &models.Chat{ID: "c9", Participants: []string{"me", participantID}}, nil
	}
	s := newTestStores(t, api).Chat

	chat, err := s.CreateChat(context.Background(), "carol")
	require.NoError(t, err)
	assert.True(t, chat.HasParticipant("carol"))

	assert.Equal(t, "c9", s.ActiveChat())
	assert.Empty(t, s.Messages("c9"))
	assert.Equal(t, 0, s.UnreadCount("c9"))

	_, err = s.Chat("c9")
	assert.NoError(t, err)
}

func TestChatStore_SendMessage(t *testing.T) {
	api := chatAPI()
	api.sendMessage = func(_ context.Context, chatID string, input models.MessageInput) (*models.Message, error) {
		return &models.Message{ID: "m5", ChatID: chatID, Sender: "me", Content: input.Content}, nil
	}
	s := newTestStores(t, api).Chat
	ctx := context.Background()

	_, err := s.FetchChats(ctx)
	require.NoError(t, err)
	_, err = s.FetchMessages(ctx, "c1")
	require.NoError(t, err)

	msg, err := s.SendMessage(ctx, "c1", models.MessageInput{Content: "on my way"})
	require.NoError(t, err)

	msgs := s.Messages("c1")
	require.Len(t, msgs, 3)
	assert.Equal(t, msg.ID, msgs[2].ID)

	st, ok := s.MessageStatus("m5")
	require.True(t, ok)
	assert.Equal(t, models.MessageSent, st)

	chat, err := s.Chat("c1")
	require.NoError(t, err)
	require.NotNil(t, chat.LastMessage)
	assert.Equal(t, "on my way", chat.LastMessage.Content)
	assert.Equal(t, 0, s.UnreadCount("c1"))
}

func TestChatStore_SendTypingIndicator(t *testing.T) {
	api := chatAPI()
	fail := false
	api.sendTyping = func(context.Context, string, bool) error {
		if fail {
			return errors.New("socket closed")
		}
		return nil
	}
	s := newTestStores(t, api).Chat
	ctx := context.Background()

	require.NoError(t, s.SendTypingIndicator(ctx, "c1", true))
	assert.Equal(t, []models.TypingIndicator{{ChatID: "c1", UserID: "me", IsTyping: true}}, s.Presence().TypingIndicators("c1"))
	assert.Empty(t, s.Presence().Unconfirmed())

	fail = true
	require.Error(t, s.SendTypingIndicator(ctx, "c1", false))
	assert.Empty(t, s.Presence().TypingIndicators("c1"))
	assert.Equal(t, []models.TypingIndicator{{ChatID: "c1", UserID: "me", IsTyping: false}}, s.Presence().Unconfirmed())
	assert.Empty(t, s.Err())
}

func TestOptimisticPresenceChannel(t *testing.T) {
	p := NewOptimisticPresenceChannel()

	p.UpdateTyping(models.TypingIndicator{ChatID: "c1", UserID: "bob", IsTyping: true})
	p.UpdateTyping(models.TypingIndicator{ChatID: "c1", UserID: "alice", IsTyping: true})
	p.UpdateTyping(models.TypingIndicator{ChatID: "c2", UserID: "bob", IsTyping: true})
	p.UpdateTyping(models.TypingIndicator{ChatID: "c1", UserID: "bob", IsTyping: false})

	assert.Equal(t, []models.TypingIndicator{{ChatID: "c1", UserID: "alice", IsTyping: true}}, p.TypingIndicators("c1"))
	assert.Len(t, p.TypingIndicators("c2"), 1)

	p.UpdatePresence(models.Presence{UserID: "bob", Status: models.PresenceOnline})
	p.UpdatePresence(models.Presence{UserID: "alice", Status: models.PresenceOnline})
	p.UpdatePresence(models.Presence{UserID: "bob", Status: models.PresenceAway})

	online := p.OnlineUsers()
	require.Len(t, online, 1)
	assert.Equal(t, "alice", online[0].UserID)
	assert.True(t, p.IsOnline("alice"))
	assert.False(t, p.IsOnline("bob"))
	assert.False(t, p.IsOnline("nobody"))
}

func TestOptimisticPresenceChannel_ReconcileIgnoresSuperseded(t *testing.T) {
	p := NewOptimisticPresenceChannel()

	first := models.TypingIndicator{ChatID: "c1", UserID: "me", IsTyping: true}
	second := models.TypingIndicator{ChatID: "c1", UserID: "me", IsTyping: false}

	p.applyLocal(first)
	p.applyLocal(second)
	p.Reconcile(first, nil)

	assert.Equal(t, []models.TypingIndicator{second}, p.Unconfirmed())

	p.Reconcile(second, nil)
	assert.Empty(t, p.Unconfirmed())
}
