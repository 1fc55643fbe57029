package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vladimiradmaev/diet-rpg/internal/config"
	"github.com/vladimiradmaev/diet-rpg/internal/database/migrations"
	"github.com/vladimiradmaev/diet-rpg/internal/logger"
)

// User is one row per Telegram user: profile, settings and game state.
type User struct {
	ID        int64 `gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Name          string
	Gender        string
	Age           int
	HeightCM      float64
	WeightKG      float64
	ActivityLevel float64
	Goal          string

	APIKey        string
	Theme         string
	Notifications bool

	Level         int
	CurrentXP     int
	TotalXP       int
	Streak        int
	WaterIntakeML int
	LastLoginDate *string
	QuestDate     string
}

type Quest struct {
	UserID      int64  `gorm:"primaryKey;autoIncrement:false"`
	QuestID     string `gorm:"primaryKey"`
	Position    int
	Title       string
	Description string
	XPReward    int
	Completed   bool
}

type WeightEntry struct {
	UserID   int64  `gorm:"primaryKey;autoIncrement:false"`
	Date     string `gorm:"primaryKey"`
	WeightKG float64
}

type DiaryLog struct {
	ID        string `gorm:"primaryKey"`
	UserID    int64  `gorm:"index"`
	Timestamp time.Time
	Date      string
	FoodName  string
	Calories  float64
	Protein   float64
	Fat       float64
	Carbs     float64
	MealType  string
	Advice    string
	Source    string
}

// Models lists every table owned by the application.
func Models() []interface{} {
	return []interface{}{&User{}, &Quest{}, &WeightEntry{}, &DiaryLog{}}
}

func DSN(cfg config.DBConfig) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName)
}

func NewPostgresDB(cfg config.DBConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(DSN(cfg)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Tables first; the SQL migrations only add indexes on top of them.
	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	if err := migrations.LoadEmbedded(); err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	if err := migrations.RunMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Database connection established and migrations completed")
	return db, nil
}
