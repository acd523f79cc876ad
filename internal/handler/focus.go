package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/johnleshan/SwiftChat/internal/focus"
	"github.com/johnleshan/SwiftChat/internal/store"
)

type FocusHandler struct {
	store *store.Store
	focus *focus.Controller
}

func NewFocusHandler(st *store.Store, fc *focus.Controller) *FocusHandler {
	return &FocusHandler{store: st, focus: fc}
}

func (h *FocusHandler) chatID(w http.ResponseWriter, r *http.Request) (string, bool) {
	chatID := chi.URLParam(r, "chatId")
	if _, err := h.store.Chat(chatID); err != nil {
		writeError(w, http.StatusNotFound, "chat not found")
		return "", false
	}
	return chatID, true
}

// GetState возвращает снимок focus-состояния чата.
func (h *FocusHandler) GetState(w http.ResponseWriter, r *http.Request) {
	chatID, ok := h.chatID(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.focus.State(chatID))
}

// Confirm принимает pending-предложение и включает фильтр.
func (h *FocusHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	chatID, ok := h.chatID(w, r)
	if !ok {
		return
	}
	if _, err := h.focus.Confirm(chatID); err != nil {
		writeError(w, http.StatusConflict, "no pending focus suggestion")
		return
	}
	writeJSON(w, http.StatusOK, h.focus.State(chatID))
}

// Dismiss отклоняет pending-предложение; та же тема повторно не предлагается.
func (h *FocusHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	chatID, ok := h.chatID(w, r)
	if !ok {
		return
	}
	if err := h.focus.Dismiss(chatID); err != nil {
		writeError(w, http.StatusConflict, "no pending focus suggestion")
		return
	}
	writeJSON(w, http.StatusOK, h.focus.State(chatID))
}

// Exit выключает активный focus mode.
func (h *FocusHandler) Exit(w http.ResponseWriter, r *http.Request) {
	chatID, ok := h.chatID(w, r)
	if !ok {
		return
	}
	if err := h.focus.Exit(chatID); err != nil {
		writeError(w, http.StatusConflict, "focus mode is not active")
		return
	}
	writeJSON(w, http.StatusOK, h.focus.State(chatID))
}
