package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/vladimiradmaev/diet-rpg/internal/database"
	"github.com/vladimiradmaev/diet-rpg/internal/domain"
)

func sampleState() *domain.State {
	s := domain.NewState()
	s.Profile.Name = "Mei"
	s.Settings.APIKey = "k-123"
	last := "2024-05-14"
	s.Game = domain.GameState{
		Level:         3,
		CurrentXP:     30,
		TotalXP:       280,
		Streak:        4,
		WaterIntakeML: 750,
		LastLoginDate: &last,
		DailyQuests: domain.DailyQuests{
			Date: last,
			Items: []domain.Quest{
				{ID: "login", Title: "Daily check-in", XPReward: 10, Completed: true},
				{ID: "scan", Title: "Log a meal", XPReward: 50},
				{ID: "protein", Title: "Hit your protein", XPReward: 100},
				{ID: "water", Title: "Hydrate", Description: "Drink enough water (2000ml)", XPReward: 30},
			},
		},
	}
	s.WeightHistory = []domain.WeightEntry{{Date: "2024-05-13", WeightKG: 50.5}, {Date: "2024-05-14", WeightKG: 50.2}}
	s.Logs = []domain.DiaryLog{
		{
			ID:        "a",
			Timestamp: time.Date(2024, 5, 14, 0, 30, 0, 0, time.UTC),
			Date:      last,
			FoodName:  "egg pancake",
			Calories:  300,
			Protein:   12,
			MealType:  domain.MealBreakfast,
			Source:    domain.SourceImage,
		},
		{
			ID:        "b",
			Timestamp: time.Date(2024, 5, 14, 4, 0, 0, 0, time.UTC),
			Date:      last,
			FoodName:  "beef noodles",
			Calories:  650,
			MealType:  domain.MealLunch,
			Source:    domain.SourceText,
			Advice:    "ok",
		},
	}
	return s
}

func TestRowMappingRoundTrip(t *testing.T) {
	s := sampleState()
	rows := toRows(42, s)

	assert.Equal(t, int64(42), rows.user.ID)
	require.Len(t, rows.quests, 4)
	assert.Equal(t, 3, rows.quests[3].Position)
	assert.Len(t, rows.logs, 2)

	// storage order of child rows must not matter
	rows.quests[0], rows.quests[3] = rows.quests[3], rows.quests[0]
	rows.weights[0], rows.weights[1] = rows.weights[1], rows.weights[0]

	assert.Equal(t, s, fromRows(rows))
}

func TestMemoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStateRepository()

	fresh, err := repo.Load(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, domain.NewState(), fresh)

	s := sampleState()
	require.NoError(t, repo.Save(ctx, 7, s))

	loaded, err := repo.Load(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)

	// snapshots are isolated from later mutation
	s.Game.Level = 99
	loaded.Logs[0].FoodName = "changed"
	again, err := repo.Load(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, again.Game.Level)
	assert.Equal(t, "egg pancake", again.Logs[0].FoodName)

	other, err := repo.Load(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, 1, other.Game.Level)
}

// TestPostgresRepository needs a scratch database, e.g.
// TEST_DATABASE_DSN="host=localhost user=postgres password=postgres dbname=diet_rpg_test sslmode=disable"
func TestPostgresRepository(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.Models()...))

	ctx := context.Background()
	repo := NewPostgresStateRepository(db)
	const owner = int64(900001)
	t.Cleanup(func() {
		db.Where("user_id = ?", owner).Delete(&database.DiaryLog{})
		db.Where("user_id = ?", owner).Delete(&database.WeightEntry{})
		db.Where("user_id = ?", owner).Delete(&database.Quest{})
		db.Delete(&database.User{}, owner)
	})

	fresh, err := repo.Load(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.Game.Level)

	s := sampleState()
	require.NoError(t, repo.Save(ctx, owner, s))

	loaded, err := repo.Load(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, s.Profile, loaded.Profile)
	assert.Equal(t, s.Game, loaded.Game)
	assert.Equal(t, s.WeightHistory, loaded.WeightHistory)
	require.Len(t, loaded.Logs, 2)
	assert.Equal(t, "a", loaded.Logs[0].ID)
	assert.True(t, s.Logs[1].Timestamp.Equal(loaded.Logs[1].Timestamp))

	// removed entries disappear on the next save
	s.Logs = s.Logs[1:]
	require.NoError(t, repo.Save(ctx, owner, s))
	loaded, err = repo.Load(ctx, owner)
	require.NoError(t, err)
	require.Len(t, loaded.Logs, 1)
	assert.Equal(t, "b", loaded.Logs[0].ID)

	s.Logs = nil
	require.NoError(t, repo.Save(ctx, owner, s))
	loaded, err = repo.Load(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, loaded.Logs)
}
