package interfaces

import (
	"context"

	"github.com/vladimiradmaev/diet-rpg/internal/diary"
	"github.com/vladimiradmaev/diet-rpg/internal/domain"
	"github.com/vladimiradmaev/diet-rpg/internal/progression"
	"github.com/vladimiradmaev/diet-rpg/internal/services"
)

// TrackerServiceInterface defines the contract the bot front end relies on
type TrackerServiceInterface interface {
	Dashboard(ctx context.Context, userID int64) (*services.Dashboard, error)
	AddLog(ctx context.Context, userID int64, result domain.NutritionResult, meal domain.MealType, source domain.LogSource) (diary.AddResult, error)
	RemoveLog(ctx context.Context, userID int64, logID string) (bool, error)
	AddWater(ctx context.Context, userID int64, ml int) (progression.Outcome, *services.Dashboard, error)
	RecordWeight(ctx context.Context, userID int64, kg float64) error
	UpdateProfile(ctx context.Context, userID int64, patch domain.ProfilePatch) (domain.Targets, error)
	UpdateSettings(ctx context.Context, userID int64, patch domain.SettingsPatch) error
	SetAPIKey(ctx context.Context, userID int64, key string) error
	Logout(ctx context.Context, userID int64) error
	TodayLogs(ctx context.Context, userID int64) ([]domain.DiaryLog, error)
	RecentLogs(ctx context.Context, userID int64, limit int) ([]domain.DiaryLog, error)
	History(ctx context.Context, userID int64, days int) ([]domain.DaySummary, error)
	WeightHistory(ctx context.Context, userID int64) ([]domain.WeightEntry, error)
}

// AnalysisServiceInterface defines the contract for turning user input into nutrition values
type AnalysisServiceInterface interface {
	AnalyzeImage(ctx context.Context, userID int64, data []byte, mimeType string) (*domain.NutritionResult, error)
	AnalyzeText(ctx context.Context, userID int64, text string) (*domain.NutritionResult, error)
	LookupBarcode(ctx context.Context, code string) (*domain.NutritionResult, error)
}

var (
	_ TrackerServiceInterface  = (*services.TrackerService)(nil)
	_ AnalysisServiceInterface = (*services.TrackerService)(nil)
)
