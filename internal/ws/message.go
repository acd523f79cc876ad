package ws

import "github.com/johnleshan/SwiftChat/internal/model"

type EventType string

const (
	EventNewMessage     EventType = "new_message"
	EventChatUpdated    EventType = "chat_updated"
	EventFocusSuggested EventType = "focus_suggested"
	EventError          EventType = "error"
)

// IncomingMessage is what the client sends to the server.
type IncomingMessage struct {
	Type    EventType `json:"type"`
	ChatID  string    `json:"chat_id,omitempty"`
	Content string    `json:"content,omitempty"`
}

// OutgoingMessage is what the server sends to the client.
type OutgoingMessage struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

// ChatUpdatedPayload mirrors the sidebar row after an append.
type ChatUpdatedPayload struct {
	Chat model.Chat `json:"chat"`
}

// FocusSuggestedPayload is broadcast when a new focus topic awaits confirmation.
type FocusSuggestedPayload struct {
	ChatID string `json:"chat_id"`
	Topic  string `json:"topic"`
}
