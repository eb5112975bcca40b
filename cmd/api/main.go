package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/maiyu/lanchonete-bot/internal/api/router"
	appconfig "github.com/maiyu/lanchonete-bot/internal/config"
	"github.com/maiyu/lanchonete-bot/internal/conversation"
	"github.com/maiyu/lanchonete-bot/internal/llm"
	"github.com/maiyu/lanchonete-bot/internal/menu"
	"github.com/maiyu/lanchonete-bot/internal/messaging"
	"github.com/maiyu/lanchonete-bot/internal/observability/metrics"
	"github.com/maiyu/lanchonete-bot/pkg/logging"
)

func main() {
	// .env is optional; real deployments configure the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting lanchonete bot",
		"env", cfg.Env,
		"port", cfg.Port,
		"bot_name", cfg.BotName,
	)

	catalog := menu.Default()

	store := buildStateStore(cfg, logger)

	engineMetrics := metrics.NewEngineMetrics(nil)
	webhookMetrics := metrics.NewWebhookMetrics(nil)

	var responder conversation.Responder
	if cfg.GroqAPIKey != "" {
		groq, err := llm.NewGroqClient(llm.Options{
			APIKey:  cfg.GroqAPIKey,
			BaseURL: cfg.GroqBaseURL,
			Model:   cfg.GroqModel,
			BotName: cfg.BotName,
			Menu:    catalog,
			Timeout: cfg.LLMTimeout,
			Logger:  logger,
		})
		if err != nil {
			logger.Error("failed to build groq client", "error", err)
			os.Exit(1)
		}
		responder = groq
	} else {
		// The engine degrades to its apology reply on free-form messages.
		logger.Warn("GROQ_API_KEY not set; language model replies disabled")
	}

	engine := conversation.NewEngine(store, catalog, responder, cfg.BotName, logger, engineMetrics)

	sender := messaging.NewSender(cfg.WhatsAppToken, cfg.WhatsAppBusinessID, cfg.WhatsAppBaseURL, logger, webhookMetrics)
	webhookHandler := messaging.NewHandler(cfg.WebhookVerifyToken, engine, sender, logger, webhookMetrics)

	r := router.New(&router.Config{
		Webhook:        webhookHandler,
		MetricsHandler: promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildStateStore selects the conversation state backend: Redis when
// configured, otherwise process memory.
func buildStateStore(cfg *appconfig.Config, logger *logging.Logger) conversation.StateStore {
	if cfg.RedisAddr == "" {
		logger.Info("using in-memory conversation state")
		return conversation.NewMemoryStore()
	}

	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to redis", "error", err, "addr", cfg.RedisAddr)
		os.Exit(1)
	}

	logger.Info("using redis conversation state", "addr", cfg.RedisAddr, "ttl", cfg.StateTTL)
	return conversation.NewRedisStore(client, cfg.StateTTL)
}
