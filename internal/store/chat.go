package store

import (
	"context"
	"fmt"
	"sync"

	"jobmarket-bot/internal/models"

	"go.uber.org/zap"
)

type ChatAPI interface {
	ListChats(ctx context.Context) ([]models.Chat, error)
	ListMessages(ctx context.Context, chatID string) ([]models.Message, error)
	SendMessage(ctx context.Context, chatID string, input models.MessageInput) (*models.Message, error)
	CreateChat(ctx context.Context, participantID string) (*models.Chat, error)
	MarkChatRead(ctx context.Context, chatID string) error
	SendTyping(ctx context.Context, chatID string, isTyping bool) error
}

// ChatStore caches the session's chats and their messages together with the
// ephemeral state derived from them: unread counters, per-message delivery
// status and the active chat. Chats have a single implicit scope, so there are
// no views; Chats returns them in first-seen order.
type ChatStore struct {
	api      ChatAPI
	opts     Options
	logger   *zap.Logger
	presence *OptimisticPresenceChannel

	mu        sync.RWMutex
	chats     map[string]models.Chat
	chatOrder []string
	messages  map[string][]models.Message
	statuses  map[string]models.MessageStatus
	unread    map[string]int
	active    string
	// chats zeroed by SetActiveChat that no MarkMessagesAsRead has confirmed yet
	unconfirmedRead map[string]bool
	status          opStatus
	seq             sequencer
}

func NewChatStore(api ChatAPI, opts Options, logger *zap.Logger) *ChatStore {
	return &ChatStore{
		api:             api,
		opts:            opts,
		logger:          logger,
		presence:        NewOptimisticPresenceChannel(),
		chats:           make(map[string]models.Chat),
		messages:        make(map[string][]models.Message),
		statuses:        make(map[string]models.MessageStatus),
		unread:          make(map[string]int),
		unconfirmedRead: make(map[string]bool),
		seq:             newSequencer(),
	}
}

// FetchChats upserts every returned chat.
func (s *ChatStore) FetchChats(ctx context.Context) ([]models.Chat, error) {
	s.mu.Lock()
	seq := s.seq.next("chats")
	s.status.begin()
	s.mu.Unlock()

	chats, err := s.api.ListChats(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.status.fail(failureMessage(err, "Failed to fetch chats"))
		s.logger.Error("failed to fetch chats", zap.Error(err))
		return nil, fmt.Errorf("fetch chats: %w", err)
	}

	if !s.seq.accept("chats", seq, s.opts.RejectStaleFetches) {
		s.status.end()
		return nil, ErrStaleResponse
	}

	out := make([]models.Chat, 0, len(chats))
	for _, chat := range chats {
		s.putChat(chat.Clone())
		out = append(out, chat.Clone())
	}
	s.status.end()

	return out, nil
}

// FetchMessages replaces the message list of chatID. Messages without a known
// status are seeded as read when anyone has read them, sent otherwise.
func (s *ChatStore) FetchMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	scope := "messages:" + chatID

	s.mu.Lock()
	seq := s.seq.next(scope)
	s.status.begin()
	s.mu.Unlock()

	msgs, err := s.api.ListMessages(ctx, chatID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.status.fail(failureMessage(err, "Failed to fetch messages"))
		s.logger.Error("failed to fetch messages",
			zap.String("chat_id", chatID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("fetch messages: %w", err)
	}

	if !s.seq.accept(scope, seq, s.opts.RejectStaleFetches) {
		s.status.end()
		return nil, ErrStaleResponse
	}

	list := make([]models.Message, 0, len(msgs))
	for _, msg := range msgs {
		list = append(list, msg.Clone())
		s.seedStatus(msg)
	}
	s.messages[chatID] = list
	s.status.end()

	return cloneMessages(list), nil
}

func (s *ChatStore) SendMessage(ctx context.Context, chatID string, input models.MessageInput) (models.Message, error) {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	msg, err := s.api.SendMessage(ctx, chatID, input)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.status.fail(failureMessage(err, "Failed to send message"))
		s.logger.Error("failed to send message",
			zap.String("chat_id", chatID),
			zap.Error(err),
		)
		return models.Message{}, fmt.Errorf("send message: %w", err)
	}

	stored := msg.Clone()
	if stored.ChatID == "" {
		stored.ChatID = chatID
	}
	s.messages[chatID] = append(s.messages[chatID], stored)
	s.statuses[stored.ID] = models.MessageSent
	s.touchChat(stored)
	s.status.end()

	return stored.Clone(), nil
}

// CreateChat opens a chat with participantID and makes it the active chat,
// starting with no messages and nothing unread.
func (s *ChatStore) CreateChat(ctx context.Context, participantID string) (models.Chat, error) {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	chat, err := s.api.CreateChat(ctx, participantID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.status.fail(failureMessage(err, "Failed to create chat"))
		s.logger.Error("failed to create chat",
			zap.String("participant_id", participantID),
			zap.Error(err),
		)
		return models.Chat{}, fmt.Errorf("create chat: %w", err)
	}

	s.putChat(chat.Clone())
	s.active = chat.ID
	s.messages[chat.ID] = []models.Message{}
	s.unread[chat.ID] = 0
	s.status.end()

	return chat.Clone(), nil
}

// MarkMessagesAsRead confirms the read with the server and then, in one
// step, adds the current user to every message's readBy, flips every status
// of the chat to read and zeroes its unread counter. On failure none of the
// three happen.
func (s *ChatStore) MarkMessagesAsRead(ctx context.Context, chatID string) error {
	s.mu.Lock()
	s.status.begin()
	s.mu.Unlock()

	err := s.api.MarkChatRead(ctx, chatID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.status.fail(failureMessage(err, "Failed to mark messages as read"))
		s.logger.Error("failed to mark messages as read",
			zap.String("chat_id", chatID),
			zap.Error(err),
		)
		return fmt.Errorf("mark messages read: %w", err)
	}

	me := s.opts.CurrentUserID
	msgs := s.messages[chatID]
	for i := range msgs {
		if me != "" && !msgs[i].IsReadBy(me) {
			msgs[i].ReadBy = append(msgs[i].ReadBy, me)
		}
		s.statuses[msgs[i].ID] = models.MessageRead
	}
	s.unread[chatID] = 0
	delete(s.unconfirmedRead, chatID)
	s.status.end()

	return nil
}

// SetActiveChat switches the active chat and zeroes its unread counter
// locally. The server is not told; the chat stays in PendingReadConfirmation
// until MarkMessagesAsRead succeeds for it. An empty id clears the active chat.
func (s *ChatStore) SetActiveChat(chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = chatID
	if chatID == "" {
		return
	}
	if s.unread[chatID] > 0 {
		s.unconfirmedRead[chatID] = true
	}
	s.unread[chatID] = 0
}

// ReceiveMessage applies a message delivered outside a fetch, such as one
// picked up by polling. It is ignored if the chat already holds a message
// with the same id. The unread counter grows only for chats that are not
// active and messages not sent by the current user.
func (s *ChatStore) ReceiveMessage(msg models.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.messages[msg.ChatID] {
		if existing.ID == msg.ID {
			return false
		}
	}

	s.messages[msg.ChatID] = append(s.messages[msg.ChatID], msg.Clone())
	s.seedStatus(msg)
	s.touchChat(msg)

	if msg.ChatID != s.active && msg.Sender != s.opts.CurrentUserID {
		s.unread[msg.ChatID]++
	}
	return true
}

// SendTypingIndicator writes the current user's typing state locally before
// the request is made and reconciles it afterwards. A failed send does not
// roll the local state back and is not recorded as a store error.
func (s *ChatStore) SendTypingIndicator(ctx context.Context, chatID string, isTyping bool) error {
	ind := models.TypingIndicator{
		ChatID:   chatID,
		UserID:   s.opts.CurrentUserID,
		IsTyping: isTyping,
	}
	s.presence.applyLocal(ind)

	err := s.api.SendTyping(ctx, chatID, isTyping)
	s.presence.Reconcile(ind, err)
	if err != nil {
		s.logger.Warn("typing indicator not acknowledged",
			zap.String("chat_id", chatID),
			zap.Error(err),
		)
		return fmt.Errorf("send typing indicator: %w", err)
	}
	return nil
}

func (s *ChatStore) Presence() *OptimisticPresenceChannel {
	return s.presence
}

func (s *ChatStore) Chat(chatID string) (models.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chat, ok := s.chats[chatID]
	if !ok {
		return models.Chat{}, ErrNotFound
	}
	return chat.Clone(), nil
}

func (s *ChatStore) Chats() []models.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Chat, 0, len(s.chatOrder))
	for _, id := range s.chatOrder {
		out = append(out, s.chats[id].Clone())
	}
	return out
}

func (s *ChatStore) Messages(chatID string) []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneMessages(s.messages[chatID])
}

func (s *ChatStore) MessageStatus(messageID string) (models.MessageStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.statuses[messageID]
	return st, ok
}

func (s *ChatStore) UnreadCount(chatID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.unread[chatID]
}

func (s *ChatStore) TotalUnread() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, n := range s.unread {
		total += n
	}
	return total
}

// ActiveChat returns the active chat id, or "" when none is active.
func (s *ChatStore) ActiveChat() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.active
}

// PendingReadConfirmation reports whether chatID's unread counter was zeroed
// locally by SetActiveChat without a confirmed MarkMessagesAsRead.
func (s *ChatStore) PendingReadConfirmation(chatID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.unconfirmedRead[chatID]
}

func (s *ChatStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.status.inflight > 0
}

func (s *ChatStore) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.status.err
}

func (s *ChatStore) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.err = ""
}

// Caller holds mu.
func (s *ChatStore) putChat(chat models.Chat) {
	if _, ok := s.chats[chat.ID]; !ok {
		s.chatOrder = append(s.chatOrder, chat.ID)
	}
	s.chats[chat.ID] = chat
}

// Caller holds mu.
func (s *ChatStore) seedStatus(msg models.Message) {
	if _, ok := s.statuses[msg.ID]; ok {
		return
	}
	if len(msg.ReadBy) > 0 {
		s.statuses[msg.ID] = models.MessageRead
	} else {
		s.statuses[msg.ID] = models.MessageSent
	}
}

// touchChat records msg as the chat's last message. Caller holds mu.
func (s *ChatStore) touchChat(msg models.Message) {
	chat, ok := s.chats[msg.ChatID]
	if !ok {
		return
	}
	last := msg.Clone()
	chat.LastMessage = &last
	if msg.CreatedAt.After(chat.UpdatedAt) {
		chat.UpdatedAt = msg.CreatedAt
	}
	s.chats[msg.ChatID] = chat
}

func cloneMessages(msgs []models.Message) []models.Message {
	out := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Clone())
	}
	return out
}
