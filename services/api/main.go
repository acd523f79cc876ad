package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/johnleshan/SwiftChat/internal/advisor"
	"github.com/johnleshan/SwiftChat/internal/config"
	"github.com/johnleshan/SwiftChat/internal/focus"
	"github.com/johnleshan/SwiftChat/internal/handler"
	"github.com/johnleshan/SwiftChat/internal/logger"
	"github.com/johnleshan/SwiftChat/internal/middleware"
	"github.com/johnleshan/SwiftChat/internal/orchestrator"
	"github.com/johnleshan/SwiftChat/internal/store"
	"github.com/johnleshan/SwiftChat/internal/ws"
)

func main() {
	logger.SetPrefix("api")
	logger.Info("starting API service")
	cfg := config.Load()

	st := store.NewSeeded()
	fc := focus.NewController()

	hub := ws.NewHub(cfg.MaxWSConnections, cfg.WSSendBufferSize)
	st.Subscribe(hub)

	adv := advisor.NewOpenAIClient(cfg.Advisor.OpenAIAPIKey, cfg.Advisor.OpenAIModel, cfg.Advisor.RequestTimeout)
	orc := orchestrator.New(st, adv, fc, hub, orchestrator.Options{
		HistoryWindow: cfg.Advisor.HistoryWindow,
		ReplyDelayMin: time.Duration(cfg.Advisor.ReplyDelayMinMs) * time.Millisecond,
		ReplyDelayMax: time.Duration(cfg.Advisor.ReplyDelayMaxMs) * time.Millisecond,
	})
	hub.SetSender(orc)

	// Активный чат демо-сессии — самый свежий из сайдбара.
	if chats := st.Chats(); len(chats) > 0 {
		if _, err := st.Select(chats[0].ID); err != nil {
			logger.Errorf("select initial chat: %v", err)
		}
	}

	hubCtx, hubCancel := context.WithCancel(context.Background())
	var hubWg sync.WaitGroup
	hubWg.Add(1)
	go func() {
		defer hubWg.Done()
		hub.Run(hubCtx)
	}()

	chatH := handler.NewChatHandler(st, fc)
	msgH := handler.NewMessageHandler(st, fc, orc)
	focusH := handler.NewFocusHandler(st, fc)
	userH := handler.NewUserHandler(st)
	wsH := handler.NewWSHandler(hub, cfg.CORSAllowedOrigins, cfg.WSSendBufferSize)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RecoverJSON)
	// Не сжимать WebSocket — иначе ResponseWriter не реализует http.Hijacker и upgrade даёт 500.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if strings.EqualFold(req.Header.Get("Upgrade"), "websocket") {
				next.ServeHTTP(w, req)
				return
			}
			chimw.Compress(5)(next).ServeHTTP(w, req)
		})
	})
	r.Use(middleware.RequestLog)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.RateLimitAPI)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSAllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-User-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK); w.Write([]byte("ok")) })

	r.Group(func(r chi.Router) {
		r.Use(middleware.DemoSession(cfg.SessionUserID))
		r.Get("/api/users", userH.GetUsers)
		r.Get("/api/users/me", userH.GetMe)
		r.Get("/api/chats", chatH.GetChats)
		r.Get("/api/chats/{chatId}", chatH.GetChat)
		r.Post("/api/chats/{chatId}/select", chatH.SelectChat)
		r.Get("/api/chats/{chatId}/messages", msgH.GetMessages)
		r.Post("/api/chats/{chatId}/messages", msgH.SendMessage)
		r.Get("/api/chats/{chatId}/focus", focusH.GetState)
		r.Post("/api/chats/{chatId}/focus/confirm", focusH.Confirm)
		r.Post("/api/chats/{chatId}/focus/dismiss", focusH.Dismiss)
		r.Post("/api/chats/{chatId}/focus/exit", focusH.Exit)
		r.Get("/ws", wsH.ServeWS)
	})

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	var srvWg sync.WaitGroup
	errCh := make(chan error, 1)
	srvWg.Add(1)
	go func() {
		defer srvWg.Done()
		logger.Infof("server listening on %s", cfg.ServerAddr)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Errorf("server error: %v", err)
			os.Exit(1)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
	logger.Info("server stopped accepting connections")

	// Дожидаемся незавершённых advisory-операций: поздний синтетический ответ
	// должен успеть доехать до лога своего чата.
	orc.Wait()
	hubCancel()
	hubWg.Wait()
	logger.Info("hub stopped")
	srvWg.Wait()
	logger.Info("server goroutine exited")
}
