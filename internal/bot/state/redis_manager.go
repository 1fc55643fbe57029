package state

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vladimiradmaev/diet-rpg/internal/logger"
)

// stateTTL expires conversations of inactive users.
const stateTTL = 24 * time.Hour

// RedisManager manages user states using Redis, so a conversation survives
// a restart of the bot.
type RedisManager struct {
	client *redis.Client
}

// NewRedisManager creates a Redis-based state manager on an existing client
func NewRedisManager(client *redis.Client) *RedisManager {
	return &RedisManager{client: client}
}

func stateKey(userID int64) string {
	return fmt.Sprintf("dietrpg:user:%d:state", userID)
}

func tempKey(userID int64) string {
	return fmt.Sprintf("dietrpg:user:%d:temp", userID)
}

// SetUserState sets the state for a user with TTL
func (m *RedisManager) SetUserState(userID int64, state string) {
	if err := m.client.Set(context.Background(), stateKey(userID), state, stateTTL).Err(); err != nil {
		logger.Warn("Failed to save user state", "user_id", userID, "error", err)
	}
}

// GetUserState gets the state for a user
func (m *RedisManager) GetUserState(userID int64) string {
	val, err := m.client.Get(context.Background(), stateKey(userID)).Result()
	if err == redis.Nil {
		return None
	}
	if err != nil {
		logger.Warn("Failed to read user state", "user_id", userID, "error", err)
		return None
	}
	return val
}

func (m *RedisManager) ClearUserState(userID int64) {
	m.client.Del(context.Background(), stateKey(userID))
}

// SetTempData sets one temporary field for a user; the hash shares the state TTL.
func (m *RedisManager) SetTempData(userID int64, key string, value string) {
	ctx := context.Background()
	_, err := m.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, tempKey(userID), key, value)
		pipe.Expire(ctx, tempKey(userID), stateTTL)
		return nil
	})
	if err != nil {
		logger.Warn("Failed to save temp data", "user_id", userID, "key", key, "error", err)
	}
}

// GetTempData gets temporary data for a user
func (m *RedisManager) GetTempData(userID int64, key string) (string, bool) {
	val, err := m.client.HGet(context.Background(), tempKey(userID), key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// TakeTempData reads and deletes a temp field inside one MULTI/EXEC.
func (m *RedisManager) TakeTempData(userID int64, key string) (string, bool) {
	ctx := context.Background()
	var get *redis.StringCmd
	_, err := m.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.HGet(ctx, tempKey(userID), key)
		pipe.HDel(ctx, tempKey(userID), key)
		return nil
	})
	if err != nil && err != redis.Nil {
		logger.Warn("Failed to take temp data", "user_id", userID, "key", key, "error", err)
		return "", false
	}
	val, err := get.Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// ClearTempData clears all temporary data for a user
func (m *RedisManager) ClearTempData(userID int64) {
	m.client.Del(context.Background(), tempKey(userID))
}

var (
	_ StateManager = (*Manager)(nil)
	_ StateManager = (*RedisManager)(nil)
)
