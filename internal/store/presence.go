package store

import (
	"sync"

	"jobmarket-bot/internal/models"
)

type typingKey struct {
	chatID string
	userID string
}

type typingEntry struct {
	indicator models.TypingIndicator
	confirmed bool
}

// OptimisticPresenceChannel holds typing indicators and online users.
//
// Records arriving through UpdateTyping and UpdatePresence come from the
// transport and are treated as confirmed. Records written by the session's
// own typing heartbeat are applied locally before the server acknowledges
// them and stay unconfirmed until Reconcile sees a successful send. There is
// no rollback: a failed send leaves the local record in place, flagged.
type OptimisticPresenceChannel struct {
	mu          sync.RWMutex
	typing      map[typingKey]typingEntry
	typingOrder []typingKey
	online      map[string]models.Presence
	onlineOrder []string
}

func NewOptimisticPresenceChannel() *OptimisticPresenceChannel {
	return &OptimisticPresenceChannel{
		typing: make(map[typingKey]typingEntry),
		online: make(map[string]models.Presence),
	}
}

// UpdateTyping upserts an indicator by (chatID, userID).
func (p *OptimisticPresenceChannel) UpdateTyping(ind models.TypingIndicator) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.putTyping(ind, true)
}

// UpdatePresence upserts a presence record by userID.
func (p *OptimisticPresenceChannel) UpdatePresence(presence models.Presence) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.online[presence.UserID]; !ok {
		p.onlineOrder = append(p.onlineOrder, presence.UserID)
	}
	p.online[presence.UserID] = presence
}

// applyLocal writes an unconfirmed indicator ahead of the network call.
func (p *OptimisticPresenceChannel) applyLocal(ind models.TypingIndicator) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.putTyping(ind, false)
}

// Reconcile settles a locally applied indicator once its send has finished.
// A nil sendErr confirms it. On error the local record is kept unconfirmed
// unless a newer value has replaced it in the meantime.
func (p *OptimisticPresenceChannel) Reconcile(ind models.TypingIndicator, sendErr error) {
	if sendErr != nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	key := typingKey{chatID: ind.ChatID, userID: ind.UserID}
	entry, ok := p.typing[key]
	if !ok || entry.indicator != ind {
		return
	}
	entry.confirmed = true
	p.typing[key] = entry
}

// TypingIndicators returns the indicators of chatID with IsTyping set.
func (p *OptimisticPresenceChannel) TypingIndicators(chatID string) []models.TypingIndicator {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []models.TypingIndicator
	for _, key := range p.typingOrder {
		if key.chatID != chatID {
			continue
		}
		if entry := p.typing[key]; entry.indicator.IsTyping {
			out = append(out, entry.indicator)
		}
	}
	return out
}

// Unconfirmed returns the locally written indicators the server has not
// acknowledged.
func (p *OptimisticPresenceChannel) Unconfirmed() []models.TypingIndicator {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []models.TypingIndicator
	for _, key := range p.typingOrder {
		if entry := p.typing[key]; !entry.confirmed {
			out = append(out, entry.indicator)
		}
	}
	return out
}

func (p *OptimisticPresenceChannel) OnlineUsers() []models.Presence {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]models.Presence, 0, len(p.onlineOrder))
	for _, id := range p.onlineOrder {
		if presence := p.online[id]; presence.Status == models.PresenceOnline {
			out = append(out, presence)
		}
	}
	return out
}

func (p *OptimisticPresenceChannel) IsOnline(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.online[userID].Status == models.PresenceOnline
}

// Caller holds mu.
func (p *OptimisticPresenceChannel) putTyping(ind models.TypingIndicator, confirmed bool) {
	key := typingKey{chatID: ind.ChatID, userID: ind.UserID}
	if _, ok := p.typing[key]; !ok {
		p.typingOrder = append(p.typingOrder, key)
	}
	p.typing[key] = typingEntry{indicator: ind, confirmed: confirmed}
}
