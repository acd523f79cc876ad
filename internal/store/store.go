// Package store владеет всеми записями пользователей, чатов и сообщений.
// Единственная точка мутации лога — Append; остальные компоненты держат
// только id и получают копии через read-проекции.
package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/johnleshan/SwiftChat/internal/model"
)

var (
	ErrChatNotFound = errors.New("chat not found")
	ErrUserNotFound = errors.New("user not found")
	ErrEmptyMessage = errors.New("message has no content")
	ErrNotMember    = errors.New("sender is not a chat member")
)

// Observer получает уведомления об изменениях стора (append, выбор чата).
// Вызывается вне мьютекса стора; реализация не должна блокировать надолго.
type Observer interface {
	MessageAppended(chat model.Chat, msg model.Message)
}

type Store struct {
	mu        sync.Mutex
	users     map[string]model.User
	userOrder []string
	chats     map[string]*model.Chat
	chatOrder []string
	messages  map[string][]model.Message

	// selected — активный чат демо-сессии; append в него не копит unread.
	selected string

	obsMu     sync.RWMutex
	observers []Observer
}

func New() *Store {
	return &Store{
		users:    make(map[string]model.User),
		chats:    make(map[string]*model.Chat),
		messages: make(map[string][]model.Message),
	}
}

// Subscribe регистрирует наблюдателя. Отписки нет — жизненный цикл
// наблюдателей совпадает с жизненным циклом процесса.
func (s *Store) Subscribe(o Observer) {
	s.obsMu.Lock()
	s.observers = append(s.observers, o)
	s.obsMu.Unlock()
}

func (s *Store) notifyAppended(chat model.Chat, msg model.Message) {
	s.obsMu.RLock()
	obs := make([]Observer, len(s.observers))
	copy(obs, s.observers)
	s.obsMu.RUnlock()
	for _, o := range obs {
		o.MessageAppended(chat, msg)
	}
}

// AddUser регистрирует пользователя (используется сидом и тестами).
func (s *Store) AddUser(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		s.userOrder = append(s.userOrder, u.ID)
	}
	s.users[u.ID] = u
}

// AddChat регистрирует чат с пустым логом (используется сидом и тестами).
func (s *Store) AddChat(c model.Chat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[c.ID]; !ok {
		s.chatOrder = append(s.chatOrder, c.ID)
	}
	cc := c
	cc.Members = append([]string(nil), c.Members...)
	s.chats[c.ID] = &cc
	if _, ok := s.messages[c.ID]; !ok {
		s.messages[c.ID] = nil
	}
}

// Append добавляет сообщение в конец лога чата и зеркалит last_message /
// last_message_timestamp / unread_count. ID и timestamp назначаются тут:
// timestamp строго больше предыдущего сообщения чата, чтобы хронологический
// порядок был устойчив даже при нескольких append в один цикл отправки.
func (s *Store) Append(chatID string, msg model.Message) (model.Message, error) {
	s.mu.Lock()
	chat, ok := s.chats[chatID]
	if !ok {
		s.mu.Unlock()
		return model.Message{}, fmt.Errorf("store.Append: %w", ErrChatNotFound)
	}
	if !chat.HasMember(msg.SenderID) {
		s.mu.Unlock()
		return model.Message{}, fmt.Errorf("store.Append: %w", ErrNotMember)
	}
	if !msg.HasContent() {
		s.mu.Unlock()
		return model.Message{}, fmt.Errorf("store.Append: %w", ErrEmptyMessage)
	}

	msg.ChatID = chatID
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	ts := time.Now().UTC()
	if log := s.messages[chatID]; len(log) > 0 {
		if last := log[len(log)-1].Timestamp; !ts.After(last) {
			ts = last.Add(time.Millisecond)
		}
	}
	msg.Timestamp = ts
	msg.Sender = nil // display-поле, в логе не храним

	s.messages[chatID] = append(s.messages[chatID], msg)

	chat.LastMessage = lastMessagePreview(msg)
	chat.LastMessageTimestamp = msg.Timestamp
	if s.selected == chatID {
		chat.UnreadCount = 0
	} else {
		chat.UnreadCount++
	}

	chatCopy := s.chatCopyLocked(chat)
	out := msg
	if u, ok := s.users[msg.SenderID]; ok {
		uu := u
		out.Sender = &uu
	}
	s.mu.Unlock()

	s.notifyAppended(chatCopy, out)
	return out, nil
}

// Select делает чат активным и сбрасывает его счётчик непрочитанных.
// Возвращает id ранее активного чата (пустая строка, если его не было).
func (s *Store) Select(chatID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[chatID]
	if !ok {
		return "", fmt.Errorf("store.Select: %w", ErrChatNotFound)
	}
	prev := s.selected
	s.selected = chatID
	chat.UnreadCount = 0
	return prev, nil
}

// Selected возвращает id активного чата.
func (s *Store) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Chat возвращает копию чата.
func (s *Store) Chat(chatID string) (model.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[chatID]
	if !ok {
		return model.Chat{}, fmt.Errorf("store.Chat: %w", ErrChatNotFound)
	}
	return s.chatCopyLocked(chat), nil
}

// Chats возвращает список чатов для сайдбара, свежие сверху.
func (s *Store) Chats() []model.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Chat, 0, len(s.chatOrder))
	for _, id := range s.chatOrder {
		out = append(out, s.chatCopyLocked(s.chats[id]))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastMessageTimestamp.After(out[j].LastMessageTimestamp)
	})
	return out
}

// Messages возвращает копию лога чата с прикреплёнными отправителями.
func (s *Store) Messages(chatID string) ([]model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[chatID]; !ok {
		return nil, fmt.Errorf("store.Messages: %w", ErrChatNotFound)
	}
	log := s.messages[chatID]
	out := make([]model.Message, len(log))
	copy(out, log)
	for i := range out {
		if u, ok := s.users[out[i].SenderID]; ok {
			uu := u
			out[i].Sender = &uu
		}
	}
	return out, nil
}

// LastMessages возвращает копию последних n сообщений чата (для advisory-окна).
func (s *Store) LastMessages(chatID string, n int) ([]model.Message, error) {
	msgs, err := s.Messages(chatID)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	return msgs, nil
}

// User возвращает пользователя по id.
func (s *Store) User(id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, fmt.Errorf("store.User: %w", ErrUserNotFound)
	}
	return u, nil
}

// Users возвращает справочник пользователей в порядке регистрации.
func (s *Store) Users() []model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.User, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		out = append(out, s.users[id])
	}
	return out
}

// Members возвращает участников чата в порядке списка members.
func (s *Store) Members(chatID string) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[chatID]
	if !ok {
		return nil, fmt.Errorf("store.Members: %w", ErrChatNotFound)
	}
	out := make([]model.User, 0, len(chat.Members))
	for _, id := range chat.Members {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// SenderName резолвит имя отправителя; "Unknown" для неизвестных id,
// чтобы advisory-запрос не падал на осиротевших сообщениях.
func (s *Store) SenderName(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		return u.Name
	}
	return "Unknown"
}

func (s *Store) chatCopyLocked(c *model.Chat) model.Chat {
	cc := *c
	cc.Members = append([]string(nil), c.Members...)
	return cc
}

func lastMessagePreview(m model.Message) string {
	if m.Text != "" {
		return m.Text
	}
	if m.Attachment != nil {
		return m.Attachment.Name
	}
	return ""
}
