package model

import "time"

type ChatType string

const (
	ChatTypeDM    ChatType = "dm"
	ChatTypeGroup ChatType = "group"
)

type Chat struct {
	ID                   string    `json:"id"`
	ChatType             ChatType  `json:"chat_type"`
	Name                 string    `json:"name"`
	AvatarURL            string    `json:"avatar_url,omitempty"`
	Members              []string  `json:"members"`
	LastMessage          string    `json:"last_message"`
	LastMessageTimestamp time.Time `json:"last_message_timestamp"`
	UnreadCount          int       `json:"unread_count,omitempty"`
}

// OtherMembers возвращает участников чата без userID (для генерации ответа).
func (c *Chat) OtherMembers(userID string) []string {
	out := make([]string, 0, len(c.Members))
	for _, id := range c.Members {
		if id != userID {
			out = append(out, id)
		}
	}
	return out
}

func (c *Chat) HasMember(userID string) bool {
	for _, id := range c.Members {
		if id == userID {
			return true
		}
	}
	return false
}
