package marketplace

import "encoding/json"

type envelope struct {
	Data json.RawMessage `json:"data"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Text prefers the "message" field, falling back to "error".
func (e ErrorResponse) Text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

type statusRequest struct {
	Status string `json:"status"`
}

type notesRequest struct {
	Notes string `json:"notes"`
}

type createChatRequest struct {
	ParticipantID string `json:"participantId"`
}

type typingRequest struct {
	IsTyping bool `json:"isTyping"`
}
