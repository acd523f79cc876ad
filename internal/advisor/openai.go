package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/johnleshan/SwiftChat/internal/logger"
)

var errEmptyChoices = errors.New("empty choices")

// OpenAIClient реализует Advisor поверх chat completions.
type OpenAIClient struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIClient создаёт клиента. Пустой apiKey не фатален: вызовы будут
// возвращать ошибку, а оркестратор трактует её как "совет не состоялся".
func NewOpenAIClient(apiKey, model string, timeout time.Duration) *OpenAIClient {
	if apiKey == "" {
		logger.Error("advisor: OPENAI_API_KEY не задан, advisory-вызовы будут отклоняться")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &OpenAIClient{
		client:  openai.NewClient(apiKey),
		model:   model,
		timeout: timeout,
	}
}

func (c *OpenAIClient) GenerateReply(ctx context.Context, in GenerateReplyInput) (GenerateReplyOutput, error) {
	raw, err := c.complete(ctx, generateReplyPrompt, replyJSONGuard, in)
	if err != nil {
		return GenerateReplyOutput{}, fmt.Errorf("advisor.GenerateReply: %w", err)
	}
	var out GenerateReplyOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		logger.Errorf("advisor: reply JSON parse: %v raw=%s", err, short(raw))
		return GenerateReplyOutput{}, fmt.Errorf("advisor.GenerateReply: parse: %w", err)
	}
	if out.ReplyText == "" || out.ReplySenderID == "" {
		return GenerateReplyOutput{}, errors.New("advisor.GenerateReply: incomplete output")
	}
	return out, nil
}

func (c *OpenAIClient) SuggestFocusMode(ctx context.Context, in SuggestFocusModeInput) (SuggestFocusModeOutput, error) {
	raw, err := c.complete(ctx, suggestFocusModePrompt, focusJSONGuard, in)
	if err != nil {
		return SuggestFocusModeOutput{}, fmt.Errorf("advisor.SuggestFocusMode: %w", err)
	}
	var out SuggestFocusModeOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		logger.Errorf("advisor: focus JSON parse: %v raw=%s", err, short(raw))
		return SuggestFocusModeOutput{}, fmt.Errorf("advisor.SuggestFocusMode: parse: %w", err)
	}
	return out, nil
}

// complete выполняет один chat-completion: system-промпт, затем вход в JSON
// user-сообщением, форматный guard — ПОСЛЕДНИМ system.
func (c *OpenAIClient) complete(ctx context.Context, systemPrompt, jsonGuard string, input any) (string, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("marshal input: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(payload)},
			{Role: openai.ChatMessageRoleSystem, Content: jsonGuard},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyChoices
	}

	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	logger.Debugf("advisor: raw response %s", short(raw))
	return stripFences(raw), nil
}

// stripFences снимает markdown-ограждение ```json ... ```, если модель
// проигнорировала guard и обернула ответ в код-блок.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func short(s string) string {
	if len(s) > 180 {
		return s[:180] + "..."
	}
	return s
}
