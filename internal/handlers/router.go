package handlers

import (
	"net/http"

	"stitchpay/internal/config"
	"stitchpay/internal/db"
	"stitchpay/internal/middleware"
	"stitchpay/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handler struct {
	txRunner     db.TxRunner
	cfg          config.Config
	accounts     AccountStore
	transactions TransactionStore
	presence     PresenceTracker
	service      TransferService
	hub          *websocket.Hub
	loginLimiter *middleware.LoginLimiter
	metrics      http.Handler
}

func New(txRunner db.TxRunner, cfg config.Config, accounts AccountStore, transactions TransactionStore, presence PresenceTracker, service TransferService, hub *websocket.Hub, loginLimiter *middleware.LoginLimiter, metrics http.Handler) *Handler {
	return &Handler{
		txRunner:     txRunner,
		cfg:          cfg,
		accounts:     accounts,
		transactions: transactions,
		presence:     presence,
		service:      service,
		hub:          hub,
		loginLimiter: loginLimiter,
		metrics:      metrics,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Post("/accounts", h.Register)
	router.Post("/accounts/{mobile}/verification-code", h.GenerateVerificationCode)
	router.Post("/accounts/{mobile}/verify", h.VerifyAccount)
	router.With(h.loginLimiter.Middleware).Post("/auth/login", h.Login)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Post("/auth/logout", h.Logout)

	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/accounts/{id}/balance", h.GetBalance)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/accounts/{id}/history", h.GetHistory)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/accounts/{id}/notifications", h.ListNotifications)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Post("/accounts/{id}/notifications/read", h.MarkNotificationsRead)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Post("/transfers", h.Transfer)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/transactions", h.ListTransactions)

	router.Get("/presence/online", h.ListOnline)
	router.Get("/ws/updates", h.WSUpdates)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Method(http.MethodGet, "/metrics", h.metrics)
	return router
}
