// Package ws доставляет события стора подключённым клиентам: новые сообщения
// (включая синтетические ответы, доезжающие позже), обновления сайдбара и
// предложения focus mode. Отправка сообщения тоже возможна через WS.
package ws

import (
	"context"
	"sync"
	"time"

	"github.com/johnleshan/SwiftChat/internal/logger"
	"github.com/johnleshan/SwiftChat/internal/model"
)

// MessageSender запускает цикл отправки (реализуется оркестратором).
type MessageSender interface {
	Send(ctx context.Context, chatID, senderID, text string) (model.Message, bool, error)
}

type Hub struct {
	mu          sync.RWMutex
	clients     map[*Client]struct{}
	maxConns    int
	sendBufSize int
	sender      MessageSender

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub(maxConns, sendBufSize int) *Hub {
	if maxConns <= 0 {
		maxConns = 1000
	}
	return &Hub{
		clients:     make(map[*Client]struct{}),
		maxConns:    maxConns,
		sendBufSize: sendBufSize,
		register:    make(chan *Client, 64),
		unregister:  make(chan *Client, 64),
		done:        make(chan struct{}),
	}
}

// SetSender подключает оркестратор. Вызывается один раз при старте, до Run.
func (h *Hub) SetSender(s MessageSender) {
	h.sender = s
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) shutdown() {
	// Collect all clients under the lock, do NOT perform I/O under mutex.
	h.mu.Lock()
	all := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		all = append(all, c)
	}
	h.clients = make(map[*Client]struct{})
	h.mu.Unlock()

	// Close connections outside the lock (network I/O).
	for _, c := range all {
		c.Close()
	}
	for _, c := range all {
		c.Wait()
	}
}

func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		c.Close()
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	if len(h.clients) >= h.maxConns {
		h.mu.Unlock()
		logger.Errorf("ws connection limit reached (%d), rejecting user=%s", h.maxConns, c.userID)
		c.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	logger.Infof("ws client connected user=%s", c.userID)
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	h.mu.Unlock()

	// Network I/O outside the lock.
	c.Close()
	logger.Infof("ws client disconnected user=%s", c.userID)
}

// Broadcast рассылает событие всем клиентам (демо-сессия: слушают все).
func (h *Hub) Broadcast(msg OutgoingMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		h.sendToClient(c, msg)
	}
}

// sendToClient не блокирует: медленный клиент теряет событие, а не тормозит append.
func (h *Hub) sendToClient(c *Client, msg OutgoingMessage) {
	select {
	case c.send <- msg:
	default:
		logger.Errorf("ws send buffer full user=%s, dropping %s", c.userID, msg.Type)
	}
}

// MessageAppended реализует store.Observer: каждое добавленное сообщение
// уходит клиентам вместе с обновлённой строкой сайдбара.
func (h *Hub) MessageAppended(chat model.Chat, msg model.Message) {
	h.Broadcast(OutgoingMessage{Type: EventNewMessage, Payload: msg})
	h.Broadcast(OutgoingMessage{Type: EventChatUpdated, Payload: ChatUpdatedPayload{Chat: chat}})
}

// FocusSuggested реализует orchestrator.SuggestionNotifier.
func (h *Hub) FocusSuggested(chatID, topic string) {
	h.Broadcast(OutgoingMessage{Type: EventFocusSuggested, Payload: FocusSuggestedPayload{ChatID: chatID, Topic: topic}})
}

// HandleMessage dispatches incoming WebSocket messages.
func (h *Hub) HandleMessage(ctx context.Context, c *Client, msg IncomingMessage) {
	switch msg.Type {
	case EventNewMessage:
		h.handleNewMessage(ctx, c, msg)
	default:
		h.sendToClient(c, OutgoingMessage{Type: EventError, Payload: "unknown event type"})
	}
}

func (h *Hub) handleNewMessage(ctx context.Context, c *Client, msg IncomingMessage) {
	defer logger.DeferLogDuration("ws.handleNewMessage", time.Now())()
	if h.sender == nil {
		h.sendToClient(c, OutgoingMessage{Type: EventError, Payload: "sending is not available"})
		return
	}
	if msg.ChatID == "" {
		h.sendToClient(c, OutgoingMessage{Type: EventError, Payload: "chat_id required"})
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Пустой текст — тихий no-op по контракту отправки; ошибкой не считается.
	if _, _, err := h.sender.Send(ctx, msg.ChatID, c.userID, msg.Content); err != nil {
		logger.Errorf("ws send chat=%s user=%s: %v", msg.ChatID, c.userID, err)
		h.sendToClient(c, OutgoingMessage{Type: EventError, Payload: "failed to send message"})
	}
}
