package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vladimiradmaev/diet-rpg/internal/database"
	"github.com/vladimiradmaev/diet-rpg/internal/domain"
	apperrors "github.com/vladimiradmaev/diet-rpg/internal/errors"
)

// PostgresStateRepository persists user state in PostgreSQL across four tables.
type PostgresStateRepository struct {
	db *gorm.DB
}

// NewPostgresStateRepository creates a new PostgreSQL-backed repository
func NewPostgresStateRepository(db *gorm.DB) *PostgresStateRepository {
	return &PostgresStateRepository{db: db}
}

func (r *PostgresStateRepository) Load(ctx context.Context, ownerID int64) (*domain.State, error) {
	db := r.db.WithContext(ctx)

	var rows userRows
	err := db.First(&rows.user, "id = ?", ownerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NewState(), nil
	}
	if err != nil {
		return nil, apperrors.NewDatabaseError(err).WithContext("owner_id", ownerID)
	}

	if err := db.Where("user_id = ?", ownerID).Order("position").Find(&rows.quests).Error; err != nil {
		return nil, apperrors.NewDatabaseError(err).WithContext("owner_id", ownerID)
	}
	if err := db.Where("user_id = ?", ownerID).Order("date").Find(&rows.weights).Error; err != nil {
		return nil, apperrors.NewDatabaseError(err).WithContext("owner_id", ownerID)
	}
	if err := db.Where("user_id = ?", ownerID).Order("timestamp, id").Find(&rows.logs).Error; err != nil {
		return nil, apperrors.NewDatabaseError(err).WithContext("owner_id", ownerID)
	}

	return fromRows(rows), nil
}

// Save replaces the stored state with s in a single transaction.
func (r *PostgresStateRepository) Save(ctx context.Context, ownerID int64, s *domain.State) error {
	rows := toRows(ownerID, s)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows.user).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", ownerID).Delete(&database.Quest{}).Error; err != nil {
			return err
		}
		if len(rows.quests) > 0 {
			if err := tx.Create(&rows.quests).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("user_id = ?", ownerID).Delete(&database.WeightEntry{}).Error; err != nil {
			return err
		}
		if len(rows.weights) > 0 {
			if err := tx.Create(&rows.weights).Error; err != nil {
				return err
			}
		}

		stale := tx.Where("user_id = ?", ownerID)
		if len(rows.logs) > 0 {
			ids := make([]string, len(rows.logs))
			for i, l := range rows.logs {
				ids[i] = l.ID
			}
			stale = stale.Where("id NOT IN ?", ids)
		}
		if err := stale.Delete(&database.DiaryLog{}).Error; err != nil {
			return err
		}
		if len(rows.logs) > 0 {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(&rows.logs, 200).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return apperrors.NewDatabaseError(err).WithContext("owner_id", ownerID)
	}
	return nil
}
