package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// WhatsApp Cloud API
	WebhookVerifyToken string
	WhatsAppToken      string
	WhatsAppBusinessID string
	WhatsAppBaseURL    string

	// Groq (OpenAI-compatible) language model
	GroqAPIKey  string
	GroqBaseURL string
	GroqModel   string
	LLMTimeout  time.Duration

	// Bot persona
	BotName string

	// Conversation state store. When RedisAddr is empty, state is kept
	// in process memory for the lifetime of the server.
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	StateTTL      time.Duration
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "3333"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		WebhookVerifyToken: getEnv("WEBHOOK_VERIFY_TOKEN", ""),
		WhatsAppToken:      getEnv("WPP_API_TOKEN", ""),
		WhatsAppBusinessID: getEnv("WPP_BUSINESS_ID", ""),
		WhatsAppBaseURL:    getEnv("WPP_BASE_URL", "https://graph.facebook.com/v22.0"),

		GroqAPIKey:  getEnv("GROQ_API_KEY", ""),
		GroqBaseURL: getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GroqModel:   getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		LLMTimeout:  getEnvAsDuration("LLM_TIMEOUT", 15*time.Second),

		BotName: getEnv("BOT_NAME", "Maiyu Bot"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		StateTTL:      getEnvAsDuration("STATE_TTL", 24*time.Hour),
	}
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
