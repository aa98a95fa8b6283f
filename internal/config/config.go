package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LLM providers.
const (
	ProviderOpenAI    = "openai"
	ProviderXAI       = "xai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// Messaging channels.
const (
	ChannelTelegram = "telegram"
	ChannelTwilio   = "twilio"
	ChannelBoth     = "both"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// Messaging
	Channel            string
	BotToken           string
	TelegramWebhookURL string
	TwilioAccountSID   string
	TwilioAuthToken    string
	TwilioFrom         string
	HTTPAddr           string

	// LLM
	LLMProvider     string
	OpenAIAPIKey    string
	OpenAIModel     string
	XAIAPIKey       string
	XAIModel        string
	XAIBaseURL      string
	GeminiAPIKey    string
	GeminiModel     string
	AnthropicAPIKey string
	AnthropicModel  string
	OllamaHost      string
	OllamaModel     string
	LLMCallTimeout  time.Duration

	// Embeddings (optional; empty provider disables semantic knowledge search)
	EmbedProvider  string
	EmbedModel     string
	EmbedDimension int

	// Reminders
	ReminderInterval time.Duration
	Location         *time.Location

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment win.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "watson"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "stark"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		Channel:            strings.ToLower(getEnv("CHANNEL", ChannelTelegram)),
		BotToken:           getEnv("BOT_TOKEN", ""),
		TelegramWebhookURL: getEnv("TELEGRAM_WEBHOOK_URL", ""),
		TwilioAccountSID:   getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:    getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFrom:         getEnv("TWILIO_FROM", ""),
		HTTPAddr:           getEnv("HTTP_ADDR", ":3000"),

		LLMProvider:     strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenAI)),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		XAIAPIKey:       getEnv("XAI_API_KEY", ""),
		XAIModel:        getEnv("XAI_MODEL", "grok-4"),
		XAIBaseURL:      getEnv("XAI_BASE_URL", "https://api.x.ai/v1"),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:     getEnv("OLLAMA_MODEL", "llama3.1"),
		LLMCallTimeout:  parseDuration(getEnv("LLM_CALL_TIMEOUT", "60s"), 60*time.Second),

		EmbedProvider:  strings.ToLower(getEnv("EMBED_PROVIDER", "")),
		EmbedModel:     getEnv("EMBED_MODEL", "all-minilm:l6-v2"),
		EmbedDimension: parseInt(getEnv("EMBED_DIMENSION", "384"), 384),

		ReminderInterval: parseDuration(getEnv("REMINDER_INTERVAL", "60s"), time.Minute),
		Location:         parseLocation(getEnv("TIMEZONE", "UTC")),

		LogFile:  getEnv("WATSON_LOG_FILE", "/tmp/watson.log"),
		LogLevel: parseLogLevel(getEnv("WATSON_LOG_LEVEL", "INFO")),
	}
}

// UsesTelegram reports whether the Telegram channel is enabled.
func (c Config) UsesTelegram() bool {
	return c.Channel == ChannelTelegram || c.Channel == ChannelBoth
}

// UsesTwilio reports whether the WhatsApp/Twilio channel is enabled.
func (c Config) UsesTwilio() bool {
	return c.Channel == ChannelTwilio || c.Channel == ChannelBoth
}

// Validate checks that every credential the selected channel and provider
// need at startup is present. Missing credentials are fatal for serve.
func (c Config) Validate() error {
	return errors.Join(c.ValidateChannel(), c.ValidateProvider())
}

// ValidateChannel checks only the messaging channel credentials.
func (c Config) ValidateChannel() error {
	var errs []error

	switch c.Channel {
	case ChannelTelegram, ChannelTwilio, ChannelBoth:
	default:
		errs = append(errs, fmt.Errorf("unsupported channel: %s", c.Channel))
	}
	if c.UsesTelegram() && c.BotToken == "" {
		errs = append(errs, errors.New("BOT_TOKEN is required for the telegram channel"))
	}
	if c.UsesTwilio() {
		if c.TwilioAccountSID == "" || c.TwilioAuthToken == "" || c.TwilioFrom == "" {
			errs = append(errs, errors.New("TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM are required for the twilio channel"))
		}
	}

	return errors.Join(errs...)
}

// ValidateProvider checks only the LLM provider credentials.
func (c Config) ValidateProvider() error {
	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return errors.New("OPENAI_API_KEY is required for the openai provider")
		}
	case ProviderXAI:
		if c.XAIAPIKey == "" {
			return errors.New("XAI_API_KEY is required for the xai provider")
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is required for the gemini provider")
		}
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return errors.New("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case ProviderOllama:
	default:
		return fmt.Errorf("unsupported LLM provider: %s", c.LLMProvider)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
