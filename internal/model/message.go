package model

import (
	"strings"
	"time"
)

// Attachment is an optional file payload on a message.
type Attachment struct {
	Name string `json:"name"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

type Message struct {
	ID         string      `json:"id"`
	ChatID     string      `json:"chat_id"`
	SenderID   string      `json:"sender_id"`
	Text       string      `json:"text"`
	Timestamp  time.Time   `json:"timestamp"`
	Attachment *Attachment `json:"attachment,omitempty"`

	// Sender is attached for display; not stored.
	Sender *User `json:"sender,omitempty"`
}

// HasContent reports whether the message carries non-blank text or an
// attachment. A message with neither is invalid and must not be appended.
func (m *Message) HasContent() bool {
	return strings.TrimSpace(m.Text) != "" || m.Attachment != nil
}

// MatchesTopic reports whether the message text contains topic as a
// case-insensitive substring. Attachments without matching text do not count.
func (m *Message) MatchesTopic(topic string) bool {
	if topic == "" {
		return true
	}
	return strings.Contains(strings.ToLower(m.Text), strings.ToLower(topic))
}
