package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/vladimiradmaev/diet-rpg/internal/config"
)

func main() {
	fmt.Println("🔍 Checking configuration...")

	if err := godotenv.Load(); err != nil {
		fmt.Printf("⚠️  .env file not found: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Configuration is invalid:\n%v\n", err)
		os.Exit(1)
	}

	fmt.Println("✅ Configuration is valid!")
	fmt.Printf("📋 Details:\n")
	fmt.Printf("  - Telegram Token: %s\n", maskToken(cfg.TelegramToken))
	fmt.Printf("  - Bot Disabled: %t\n", cfg.BotDisabled)
	fmt.Printf("  - Shared API Key: %s\n", maskToken(cfg.SharedAPIKey))
	fmt.Printf("  - AI Provider: %s\n", cfg.AI.Provider)
	fmt.Printf("  - Models: %s\n", strings.Join(cfg.AI.Models, " -> "))
	fmt.Printf("  - Retry Backoff: %s\n", cfg.AI.Backoff)
	fmt.Printf("  - Prompt Language: %s\n", cfg.AI.PromptLanguage)
	fmt.Printf("  - Storage: %s\n", cfg.Storage)
	if cfg.Storage == "postgres" {
		fmt.Printf("  - DB: %s@%s:%s/%s\n", cfg.DB.User, cfg.DB.Host, cfg.DB.Port, cfg.DB.DBName)
	}
	if cfg.Redis.Enabled() {
		fmt.Printf("  - Redis: %s:%s\n", cfg.Redis.Host, cfg.Redis.Port)
	} else {
		fmt.Printf("  - Redis: <disabled, using memory>\n")
	}
	fmt.Printf("  - Barcode API: %s\n", cfg.BarcodeBaseURL)
	fmt.Printf("  - Sheet Webhook: %s\n", maskToken(cfg.Mirror.WebhookURL))
	fmt.Printf("  - Log Level: %v\n", cfg.Logger.Level)
	fmt.Printf("  - Log Output: %s\n", cfg.Logger.OutputPath)
	fmt.Printf("  - Log Format: %s\n", cfg.Logger.Format)
}

func maskToken(token string) string {
	if token == "" {
		return "<not set>"
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
