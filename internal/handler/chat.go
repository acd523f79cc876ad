package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/johnleshan/SwiftChat/internal/focus"
	"github.com/johnleshan/SwiftChat/internal/middleware"
	"github.com/johnleshan/SwiftChat/internal/store"
)

type ChatHandler struct {
	store *store.Store
	focus *focus.Controller
}

func NewChatHandler(st *store.Store, fc *focus.Controller) *ChatHandler {
	return &ChatHandler{store: st, focus: fc}
}

// GetChats возвращает сайдбар: все чаты, свежие сверху.
func (h *ChatHandler) GetChats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Chats())
}

// GetChat возвращает один чат.
func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatId")
	chat, err := h.store.Chat(chatID)
	if err != nil {
		writeError(w, http.StatusNotFound, "chat not found")
		return
	}
	userID := middleware.GetUserID(r.Context())
	if !chat.HasMember(userID) {
		writeError(w, http.StatusForbidden, "not a member")
		return
	}
	writeJSON(w, http.StatusOK, chat)
}

// SelectChat делает чат активным: сбрасывает его unread и полностью
// очищает focus-состояние ранее активного чата (focus mode живёт в рамках
// одного разговора).
func (h *ChatHandler) SelectChat(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatId")
	prev, err := h.store.Select(chatID)
	if err != nil {
		if errors.Is(err, store.ErrChatNotFound) {
			writeError(w, http.StatusNotFound, "chat not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to select chat")
		return
	}
	if prev != chatID {
		if prev != "" {
			h.focus.Reset(prev)
		}
		// Выбранный чат тоже начинает с чистого листа: состояние и память
		// о последней теме живут только пока разговор открыт.
		h.focus.Reset(chatID)
	}
	chat, err := h.store.Chat(chatID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load chat")
		return
	}
	writeJSON(w, http.StatusOK, chat)
}
