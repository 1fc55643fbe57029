package barcode

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vladimiradmaev/diet-rpg/internal/domain"
	"github.com/vladimiradmaev/diet-rpg/internal/logger"
)

// DefaultTTL keeps product lookups for a day.
const DefaultTTL = 24 * time.Hour

// RedisCache stores lookups as JSON under "barcode:<code>".
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) key(code string) string {
	return "barcode:" + code
}

func (c *RedisCache) Get(ctx context.Context, code string) (*domain.NutritionResult, bool) {
	data, err := c.client.Get(ctx, c.key(code)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Warn("Barcode cache read failed", "barcode", code, "error", err)
		return nil, false
	}

	var result domain.NutritionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false
	}
	return &result, true
}

func (c *RedisCache) Set(ctx context.Context, code string, result *domain.NutritionResult) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(code), data, c.ttl).Err(); err != nil {
		logger.Warn("Barcode cache write failed", "barcode", code, "error", err)
	}
}

// MemoryCache is an in-process cache used when Redis is not configured.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	result  domain.NutritionResult
	expires time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{ttl: ttl, now: time.Now, entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(ctx context.Context, code string) (*domain.NutritionResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[code]
	if !ok || c.now().After(e.expires) {
		return nil, false
	}
	result := e.result
	return &result, true
}

func (c *MemoryCache) Set(ctx context.Context, code string, result *domain.NutritionResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[code] = memoryEntry{result: *result, expires: c.now().Add(c.ttl)}
}
