package models

import (
	"encoding/json"
	"slices"
	"time"
)

type Chat struct {
	ID            string    `json:"id"`
	Participants  []string  `json:"participants"`
	ApplicationID string    `json:"applicationId,omitempty"`
	LastMessage   *Message  `json:"lastMessage,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (c Chat) Clone() Chat {
	c.Participants = slices.Clone(c.Participants)
	if c.LastMessage != nil {
		m := c.LastMessage.Clone()
		c.LastMessage = &m
	}
	return c
}

// HasParticipant reports whether userID takes part in the chat.
func (c Chat) HasParticipant(userID string) bool {
	return slices.Contains(c.Participants, userID)
}

type Attachment struct {
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
	Type string `json:"type,omitempty"`
}

type Message struct {
	ID          string       `json:"id"`
	ChatID      string       `json:"chatId"`
	Sender      string       `json:"sender"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments,omitempty"`
	ReadBy      []string     `json:"readBy"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// UnmarshalJSON accepts "chat" as an alias of "chatId".
func (m *Message) UnmarshalJSON(data []byte) error {
	type plain Message
	aux := struct {
		*plain
		Chat string `json:"chat"`
	}{plain: (*plain)(m)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if m.ChatID == "" {
		m.ChatID = aux.Chat
	}
	return nil
}

func (m Message) Clone() Message {
	m.Attachments = slices.Clone(m.Attachments)
	m.ReadBy = slices.Clone(m.ReadBy)
	return m
}

func (m Message) IsReadBy(userID string) bool {
	return slices.Contains(m.ReadBy, userID)
}

type MessageInput struct {
	Content       string       `json:"content"`
	Attachments   []Attachment `json:"attachments,omitempty"`
	ApplicationID string       `json:"applicationId,omitempty"`
}

type MessageStatus string

const (
	MessageSent MessageStatus = "sent"
	MessageRead MessageStatus = "read"
)

type TypingIndicator struct {
	ChatID   string `json:"chatId"`
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "online"
	PresenceAway    PresenceStatus = "away"
	PresenceOffline PresenceStatus = "offline"
)

type Presence struct {
	UserID   string         `json:"userId"`
	Status   PresenceStatus `json:"status"`
	LastSeen time.Time      `json:"lastSeen"`
}
