package middleware

import (
	"context"
	"net/http"
)

// DemoSession кладёт в контекст пользователя демо-сессии. Реальной авторизации
// в приложении нет: по умолчанию это session_user_id из конфига, заголовок
// X-User-Id позволяет переключить пользователя для демонстрации.
func DemoSession(defaultUserID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get("X-User-Id")
			if userID == "" {
				userID = r.URL.Query().Get("user_id")
			}
			if userID == "" {
				userID = defaultUserID
			}
			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
