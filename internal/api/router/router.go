// Package router assembles the HTTP surface of the bot.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/maiyu/lanchonete-bot/internal/messaging"
)

// Config holds router configuration.
type Config struct {
	Webhook        *messaging.Handler
	MetricsHandler http.Handler
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", cfg.Webhook.HealthCheck)
	r.Get("/webhook", cfg.Webhook.VerifyWebhook)
	r.Post("/webhook", cfg.Webhook.ReceiveMessage)
	r.Post("/send-text", cfg.Webhook.SendText)

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
