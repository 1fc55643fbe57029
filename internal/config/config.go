package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vladimiradmaev/diet-rpg/internal/logger"
)

// DefaultModels is the Gemini fallback order: newest first, most stable last.
var DefaultModels = []string{
	"gemini-2.5-flash",
	"gemini-2.0-flash",
	"gemini-flash-latest",
}

// DefaultOpenAIModels is the fallback order when AI_PROVIDER=openai.
var DefaultOpenAIModels = []string{
	"gpt-4o-mini",
	"gpt-4o",
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	TelegramToken  string
	BotDisabled    bool
	SharedAPIKey   string // default key for users without their own
	AI             AIConfig
	Storage        string // "postgres" or "memory"
	DB             DBConfig
	Redis          RedisConfig
	BarcodeBaseURL string
	Mirror         MirrorConfig
	Logger         LoggerConfig
}

type AIConfig struct {
	Provider       string
	OpenAIBaseURL  string
	Models         []string
	Backoff        time.Duration
	PromptLanguage string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type RedisConfig struct {
	Host string
	Port string
}

// Enabled reports whether a Redis host was configured.
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type MirrorConfig struct {
	WebhookURL string
	QueueSize  int
	Timeout    time.Duration
}

type LoggerConfig struct {
	Level      logger.LogLevel
	OutputPath string
	Format     string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return logger.LevelDebug
	case "info":
		return logger.LevelInfo
	case "warn", "warning":
		return logger.LevelWarn
	case "error":
		return logger.LevelError
	default:
		return logger.LevelInfo
	}
}

func parseModels(raw string, defaults []string) []string {
	if strings.TrimSpace(raw) == "" {
		return append([]string(nil), defaults...)
	}
	var models []string
	for _, m := range strings.Split(raw, ",") {
		if m = strings.TrimSpace(m); m != "" {
			models = append(models, m)
		}
	}
	return models
}

func Load() (*Config, error) {
	backoff, err := time.ParseDuration(getEnvOrDefault("AI_BACKOFF", "1s"))
	if err != nil {
		return nil, fmt.Errorf("invalid AI_BACKOFF: %w", err)
	}
	queueSize, err := strconv.Atoi(getEnvOrDefault("MIRROR_QUEUE_SIZE", "64"))
	if err != nil {
		return nil, fmt.Errorf("invalid MIRROR_QUEUE_SIZE: %w", err)
	}
	mirrorTimeout, err := time.ParseDuration(getEnvOrDefault("MIRROR_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid MIRROR_TIMEOUT: %w", err)
	}

	provider := strings.ToLower(getEnvOrDefault("AI_PROVIDER", ProviderGemini))
	models := parseModels(os.Getenv("GEMINI_MODELS"), DefaultModels)
	sharedKey := os.Getenv("GEMINI_API_KEY")
	if provider == ProviderOpenAI {
		models = parseModels(os.Getenv("OPENAI_MODELS"), DefaultOpenAIModels)
		sharedKey = os.Getenv("OPENAI_API_KEY")
	}

	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		BotDisabled:   strings.EqualFold(os.Getenv("BOT_DISABLED"), "true"),
		SharedAPIKey:  sharedKey,
		AI: AIConfig{
			Provider:       provider,
			OpenAIBaseURL:  os.Getenv("OPENAI_BASE_URL"),
			Models:         models,
			Backoff:        backoff,
			PromptLanguage: getEnvOrDefault("PROMPT_LANGUAGE", "Traditional Chinese"),
		},
		Storage: strings.ToLower(getEnvOrDefault("STORAGE", "postgres")),
		DB: DBConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getEnvOrDefault("DB_PORT", "5432"),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrDefault("DB_NAME", "diet_rpg"),
		},
		Redis: RedisConfig{
			Host: os.Getenv("REDIS_HOST"),
			Port: getEnvOrDefault("REDIS_PORT", "6379"),
		},
		BarcodeBaseURL: getEnvOrDefault("BARCODE_BASE_URL", "https://world.openfoodfacts.org"),
		Mirror: MirrorConfig{
			WebhookURL: os.Getenv("SHEET_WEBHOOK_URL"),
			QueueSize:  queueSize,
			Timeout:    mirrorTimeout,
		},
		Logger: LoggerConfig{
			Level:      parseLogLevel(getEnvOrDefault("LOG_LEVEL", "info")),
			OutputPath: getEnvOrDefault("LOG_OUTPUT", "logs/app.log"),
			Format:     getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var problems []string
	if !c.BotDisabled && c.TelegramToken == "" {
		problems = append(problems, "TELEGRAM_BOT_TOKEN is required (or set BOT_DISABLED=true)")
	}
	if c.AI.Provider != ProviderGemini && c.AI.Provider != ProviderOpenAI {
		problems = append(problems, fmt.Sprintf("AI_PROVIDER must be gemini or openai, got %q", c.AI.Provider))
	}
	if len(c.AI.Models) == 0 {
		problems = append(problems, "the model list (GEMINI_MODELS or OPENAI_MODELS) must name at least one model")
	}
	if c.AI.Backoff < 0 {
		problems = append(problems, "AI_BACKOFF must not be negative")
	}
	if c.Storage != "postgres" && c.Storage != "memory" {
		problems = append(problems, fmt.Sprintf("STORAGE must be postgres or memory, got %q", c.Storage))
	}
	if c.Mirror.QueueSize <= 0 {
		problems = append(problems, "MIRROR_QUEUE_SIZE must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}
