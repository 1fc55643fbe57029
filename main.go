package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vladimiradmaev/diet-rpg/internal/analysis"
	"github.com/vladimiradmaev/diet-rpg/internal/barcode"
	"github.com/vladimiradmaev/diet-rpg/internal/bot"
	"github.com/vladimiradmaev/diet-rpg/internal/bot/handlers"
	"github.com/vladimiradmaev/diet-rpg/internal/bot/state"
	"github.com/vladimiradmaev/diet-rpg/internal/config"
	"github.com/vladimiradmaev/diet-rpg/internal/database"
	"github.com/vladimiradmaev/diet-rpg/internal/diary"
	"github.com/vladimiradmaev/diet-rpg/internal/domain"
	apperrors "github.com/vladimiradmaev/diet-rpg/internal/errors"
	"github.com/vladimiradmaev/diet-rpg/internal/logger"
	"github.com/vladimiradmaev/diet-rpg/internal/mirror"
	"github.com/vladimiradmaev/diet-rpg/internal/progression"
	"github.com/vladimiradmaev/diet-rpg/internal/repository"
	"github.com/vladimiradmaev/diet-rpg/internal/services"
	"github.com/vladimiradmaev/diet-rpg/internal/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Warn(".env file not found, using environment only")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", "error", err)
	}

	if err := logger.InitWithConfig(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	}); err != nil {
		logger.Fatal("Failed to initialize logger", "error", err)
	}
	logger.Info("Starting DietRPG", "version", domain.AppVersion, "storage", cfg.Storage, "ai_provider", cfg.AI.Provider)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repo domain.StateRepository
	if cfg.Storage == "postgres" {
		db, err := database.NewPostgresDB(cfg.DB)
		if err != nil {
			logger.Fatal("Failed to connect to database", "error", err)
		}
		repo = repository.NewPostgresStateRepository(db)
	} else {
		repo = repository.NewMemoryStateRepository()
		logger.Warn("Using in-memory storage; progress is lost on restart")
	}

	var (
		cache        barcode.Cache
		stateManager state.StateManager
	)
	if cfg.Redis.Enabled() {
		rdb, err := database.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Fatal("Failed to connect to redis", "error", err)
		}
		defer rdb.Close()
		cache = barcode.NewRedisCache(rdb, barcode.DefaultTTL)
		stateManager = state.NewRedisManager(rdb)
		logger.Info("Redis connection established")
	} else {
		cache = barcode.NewMemoryCache(barcode.DefaultTTL)
		stateManager = state.NewManager()
	}

	var backend analysis.Backend = analysis.NewGeminiBackend()
	if cfg.AI.Provider == config.ProviderOpenAI {
		backend = analysis.NewOpenAIBackend(cfg.AI.OpenAIBaseURL)
	}
	dispatcher := analysis.NewDispatcher(
		backend,
		analysis.WithProvider(cfg.AI.Provider),
		analysis.WithModels(cfg.AI.Models...),
		analysis.WithBackoff(cfg.AI.Backoff),
		analysis.WithLanguage(cfg.AI.PromptLanguage),
	)

	sheet := mirror.NewWorker(cfg.Mirror.WebhookURL, cfg.Mirror.QueueSize, cfg.Mirror.Timeout)
	if sheet.Enabled() {
		sheet.Start(context.Background())
		defer sheet.Stop()
		logger.Info("Sheet mirror enabled")
	}

	engine := progression.NewEngine(utils.SystemClock{})
	tracker := services.NewTrackerService(
		repo,
		engine,
		diary.NewLedger(engine),
		dispatcher,
		barcode.NewClient(cfg.BarcodeBaseURL, cache),
		sheet,
		cfg.SharedAPIKey,
	)
	logger.Info("Services initialized successfully")

	if cfg.BotDisabled {
		logger.Info("Bot disabled; waiting for shutdown signal")
		<-ctx.Done()
		return
	}

	telegramBot, err := bot.NewBot(cfg.TelegramToken, handlers.Dependencies{
		Tracker:  tracker,
		Analysis: tracker,
		Errors:   apperrors.NewHandler(logger.GetLogger()),
	}, stateManager)
	if err != nil {
		logger.Fatal("Failed to create bot", "error", err)
	}

	logger.Info("Bot is running. Press Ctrl+C to stop.")
	if err := telegramBot.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("Bot stopped with error", "error", err)
	}
	logger.Info("Shutdown complete")
}
