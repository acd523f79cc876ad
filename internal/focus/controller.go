// Package focus — машина состояний focus mode: предложение темы, подтверждение,
// фильтрация видимого лога. Состояние живёт в рамках одного чата и полностью
// сбрасывается при переключении на другой чат.
package focus

import (
	"errors"
	"sync"

	"github.com/johnleshan/SwiftChat/internal/model"
)

var (
	ErrNoPendingSuggestion = errors.New("no pending focus suggestion")
	ErrNotActive           = errors.New("focus mode is not active")
)

type state struct {
	phase model.FocusPhase
	topic string
	// lastSuggested подавляет повторный prompt той же темы после dismiss.
	lastSuggested string
}

type Controller struct {
	mu     sync.Mutex
	states map[string]*state
}

func NewController() *Controller {
	return &Controller{states: make(map[string]*state)}
}

func (c *Controller) get(chatID string) *state {
	st, ok := c.states[chatID]
	if !ok {
		st = &state{phase: model.FocusInactive}
		c.states[chatID] = st
	}
	return st
}

// Suggest регистрирует предложенную тему. Возвращает true, если тема новая и
// пользователю нужно показать подтверждение. Повтор той же темы — no-op;
// активный focus mode не прерывается новым предложением.
func (c *Controller) Suggest(chatID, topic string) bool {
	if topic == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.get(chatID)
	if topic == st.lastSuggested {
		return false
	}
	st.lastSuggested = topic
	if st.phase == model.FocusActive {
		return false
	}
	st.phase = model.FocusPending
	st.topic = topic
	return true
}

// Confirm переводит pending-предложение в активный фильтр.
func (c *Controller) Confirm(chatID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.get(chatID)
	if st.phase != model.FocusPending {
		return "", ErrNoPendingSuggestion
	}
	st.phase = model.FocusActive
	return st.topic, nil
}

// Dismiss отклоняет pending-предложение; тема остаётся в lastSuggested,
// чтобы тот же topic не спрашивали второй раз подряд.
func (c *Controller) Dismiss(chatID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.get(chatID)
	if st.phase != model.FocusPending {
		return ErrNoPendingSuggestion
	}
	st.phase = model.FocusInactive
	st.topic = ""
	return nil
}

// Exit выключает активный focus mode.
func (c *Controller) Exit(chatID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.get(chatID)
	if st.phase != model.FocusActive {
		return ErrNotActive
	}
	st.phase = model.FocusInactive
	st.topic = ""
	return nil
}

// Reset полностью очищает состояние чата, включая память о последней
// предложенной теме. Вызывается при переключении чата.
func (c *Controller) Reset(chatID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.states, chatID)
}

// Active возвращает активную тему чата (ok=false, если focus mode выключен).
func (c *Controller) Active(chatID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.states[chatID]
	if !ok || st.phase != model.FocusActive {
		return "", false
	}
	return st.topic, true
}

// State возвращает снимок состояния для клиента.
func (c *Controller) State(chatID string) model.FocusState {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.states[chatID]
	if !ok {
		return model.FocusState{Phase: model.FocusInactive}
	}
	return model.FocusState{
		Phase:              st.phase,
		Topic:              st.topic,
		LastSuggestedTopic: st.lastSuggested,
	}
}

// Filter — чистая read-time проекция: подмножество сообщений, чей текст
// содержит тему без учёта регистра. Исходный срез не мутируется.
func Filter(messages []model.Message, topic string) []model.Message {
	out := make([]model.Message, 0, len(messages))
	for _, m := range messages {
		if m.MatchesTopic(topic) {
			out = append(out, m)
		}
	}
	return out
}
