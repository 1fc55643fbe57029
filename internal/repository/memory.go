package repository

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/vladimiradmaev/diet-rpg/internal/domain"
	apperrors "github.com/vladimiradmaev/diet-rpg/internal/errors"
)

// MemoryStateRepository keeps each user's state as a JSON snapshot, so callers
// never share memory with what is stored.
type MemoryStateRepository struct {
	mu        sync.RWMutex
	snapshots map[int64][]byte
}

func NewMemoryStateRepository() *MemoryStateRepository {
	return &MemoryStateRepository{snapshots: make(map[int64][]byte)}
}

func (r *MemoryStateRepository) Load(ctx context.Context, ownerID int64) (*domain.State, error) {
	r.mu.RLock()
	data, ok := r.snapshots[ownerID]
	r.mu.RUnlock()
	if !ok {
		return domain.NewState(), nil
	}

	var s domain.State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, apperrors.NewDatabaseError(err).WithContext("owner_id", ownerID)
	}
	return &s, nil
}

func (r *MemoryStateRepository) Save(ctx context.Context, ownerID int64, s *domain.State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return apperrors.NewDatabaseError(err).WithContext("owner_id", ownerID)
	}
	r.mu.Lock()
	r.snapshots[ownerID] = data
	r.mu.Unlock()
	return nil
}
