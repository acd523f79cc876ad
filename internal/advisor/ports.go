// Package advisor — граница advisory-вызовов: генерация ответа от другого
// участника чата и предложение focus mode. Оба вызова best-effort: ошибка
// означает "совет не состоялся", основной поток отправки от них не зависит.
package advisor

import (
	"context"

	"github.com/johnleshan/SwiftChat/internal/model"
)

// HistoryMessage — сообщение в advisory-окне: имя отправителя + текст.
type HistoryMessage struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

type GenerateReplyInput struct {
	Messages    []HistoryMessage    `json:"messages"`
	ChatMembers []model.Participant `json:"chat_members"`
	CurrentUser model.Participant   `json:"current_user"`
}

type GenerateReplyOutput struct {
	ReplyText     string `json:"reply_text"`
	ReplySenderID string `json:"reply_sender_id"`
}

type SuggestFocusModeInput struct {
	Messages []HistoryMessage `json:"messages"`
}

type SuggestFocusModeOutput struct {
	ShouldSuggestFocusMode bool   `json:"should_suggest_focus_mode"`
	SuggestedTopic         string `json:"suggested_topic"`
}

// Advisor — внешний интеллект; не знает ни про стор, ни про HTTP.
type Advisor interface {
	GenerateReply(ctx context.Context, in GenerateReplyInput) (GenerateReplyOutput, error)
	SuggestFocusMode(ctx context.Context, in SuggestFocusModeInput) (SuggestFocusModeOutput, error)
}
