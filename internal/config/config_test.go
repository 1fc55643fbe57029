package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladimiradmaev/diet-rpg/internal/logger"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("AI_PROVIDER", "")
	t.Setenv("GEMINI_MODELS", "")
	t.Setenv("AI_BACKOFF", "")
	t.Setenv("STORAGE", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultModels, cfg.AI.Models)
	assert.Equal(t, ProviderGemini, cfg.AI.Provider)
	assert.Equal(t, time.Second, cfg.AI.Backoff)
	assert.Equal(t, "postgres", cfg.Storage)
	assert.Equal(t, logger.LevelInfo, cfg.Logger.Level)
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BOT_DISABLED", "true")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("GEMINI_MODELS", " a , b,,c ")
	t.Setenv("AI_BACKOFF", "250ms")
	t.Setenv("STORAGE", "Memory")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("LOG_LEVEL", "warning")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.AI.Models)
	assert.Equal(t, 250*time.Millisecond, cfg.AI.Backoff)
	assert.Equal(t, "memory", cfg.Storage)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, logger.LevelWarn, cfg.Logger.Level)
}

func TestLoadOpenAIProvider(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("AI_PROVIDER", "OpenAI")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("OPENAI_API_KEY", "sk-shared")
	t.Setenv("OPENAI_MODELS", "")
	t.Setenv("OPENAI_BASE_URL", "http://proxy.local/v1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.AI.Provider)
	assert.Equal(t, DefaultOpenAIModels, cfg.AI.Models)
	assert.Equal(t, "sk-shared", cfg.SharedAPIKey)
	assert.Equal(t, "http://proxy.local/v1", cfg.AI.OpenAIBaseURL)

	t.Setenv("AI_PROVIDER", "claude")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AI_PROVIDER")
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("BOT_DISABLED", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("STORAGE", "sqlite")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_BOT_TOKEN")
	assert.Contains(t, err.Error(), "STORAGE")

	t.Setenv("AI_BACKOFF", "soon")
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AI_BACKOFF")
}
