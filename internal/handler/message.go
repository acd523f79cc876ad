package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/johnleshan/SwiftChat/internal/focus"
	"github.com/johnleshan/SwiftChat/internal/middleware"
	"github.com/johnleshan/SwiftChat/internal/model"
	"github.com/johnleshan/SwiftChat/internal/orchestrator"
	"github.com/johnleshan/SwiftChat/internal/store"
)

// noMessagesPlaceholder показывается вместо пустого списка, когда активный
// focus-фильтр не оставил ни одного сообщения.
const noMessagesPlaceholder = "no messages found"

type MessageHandler struct {
	store *store.Store
	focus *focus.Controller
	orc   *orchestrator.Orchestrator
}

func NewMessageHandler(st *store.Store, fc *focus.Controller, orc *orchestrator.Orchestrator) *MessageHandler {
	return &MessageHandler{store: st, focus: fc, orc: orc}
}

// MessagesResponse — видимый лог чата. При активном focus mode это
// отфильтрованная проекция; placeholder заполнен, если она пуста.
type MessagesResponse struct {
	Messages    []model.Message `json:"messages"`
	FocusTopic  string          `json:"focus_topic,omitempty"`
	Placeholder string          `json:"placeholder,omitempty"`
}

// GetMessages возвращает видимые сообщения чата.
func (h *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatId")
	userID := middleware.GetUserID(r.Context())

	chat, err := h.store.Chat(chatID)
	if err != nil {
		writeError(w, http.StatusNotFound, "chat not found")
		return
	}
	if !chat.HasMember(userID) {
		writeError(w, http.StatusForbidden, "not a member")
		return
	}

	messages, err := h.store.Messages(chatID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get messages")
		return
	}

	resp := MessagesResponse{Messages: messages}
	if topic, active := h.focus.Active(chatID); active {
		resp.FocusTopic = topic
		resp.Messages = focus.Filter(messages, topic)
		if len(resp.Messages) == 0 {
			resp.Placeholder = noMessagesPlaceholder
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

// SendMessage запускает цикл отправки: собственное сообщение попадает в лог
// синхронно и возвращается в ответе; advisory-результаты (синтетический ответ,
// предложение focus mode) доезжают асинхронно через WebSocket.
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatId")
	userID := middleware.GetUserID(r.Context())

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	msg, ok, err := h.orc.Send(r.Context(), chatID, userID, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrChatNotFound):
			writeError(w, http.StatusNotFound, "chat not found")
		case errors.Is(err, store.ErrNotMember):
			writeError(w, http.StatusForbidden, "not a member")
		default:
			writeError(w, http.StatusInternalServerError, "failed to send message")
		}
		return
	}
	if !ok {
		// Пустой после trim текст: тихий no-op, без сообщения и без ошибки.
		writeJSON(w, http.StatusOK, map[string]any{"sent": false})
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}
