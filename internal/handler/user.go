package handler

import (
	"net/http"

	"github.com/johnleshan/SwiftChat/internal/middleware"
	"github.com/johnleshan/SwiftChat/internal/store"
)

type UserHandler struct {
	store *store.Store
}

func NewUserHandler(st *store.Store) *UserHandler {
	return &UserHandler{store: st}
}

// GetUsers возвращает справочник пользователей.
func (h *UserHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Users())
}

// GetMe возвращает пользователя демо-сессии.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	u, err := h.store.User(userID)
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}
