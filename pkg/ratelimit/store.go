package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// RedisKeyPrefix prefixes all quota keys stored in Redis.
const RedisKeyPrefix = "etsy:quota:"

// DefaultStateTTL bounds how long a quota observation is kept. Etsy windows are daily.
const DefaultStateTTL = 24 * time.Hour

// Store persists the quota state of one API key.
// Get returns (nil, nil) when no state has been recorded yet.
type Store interface {
	Get(ctx context.Context) (*QuotaState, error)
	Set(ctx context.Context, state *QuotaState) error
}

// MemoryStore keeps quota state in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	state *QuotaState
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get returns a copy of the stored state.
func (m *MemoryStore) Get(_ context.Context) (*QuotaState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.state == nil {
		return nil, nil
	}
	s := *m.state
	return &s, nil
}

// Set replaces the stored state.
func (m *MemoryStore) Set(_ context.Context, state *QuotaState) error {
	if state == nil {
		return errors.New("quota state cannot be nil")
	}
	s := *state
	m.mu.Lock()
	m.state = &s
	m.mu.Unlock()
	return nil
}

// RedisStore keeps quota state in Redis so that every process using the
// same API key sees the same quota.
type RedisStore struct {
	redis *redis.Client
	key   string
	ttl   time.Duration
}

// NewRedisStore creates a Redis-backed store for apiKey.
// The key itself is never written to Redis, only its hash.
func NewRedisStore(redisClient *redis.Client, apiKey string) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{
		redis: redisClient,
		key:   RedisKey(apiKey),
		ttl:   DefaultStateTTL,
	}
}

// RedisKey returns the Redis key holding the quota state for apiKey.
func RedisKey(apiKey string) string {
	return RedisKeyPrefix + strconv.FormatUint(xxhash.Sum64String(apiKey), 16)
}

// Get retrieves the quota state from Redis.
func (r *RedisStore) Get(ctx context.Context) (*QuotaState, error) {
	data, err := r.redis.Get(ctx, r.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var state QuotaState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse quota state: %w", err)
	}
	return &state, nil
}

// Set stores the quota state in Redis with DefaultStateTTL.
func (r *RedisStore) Set(ctx context.Context, state *QuotaState) error {
	if state == nil {
		return errors.New("quota state cannot be nil")
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal quota state: %w", err)
	}

	if err := r.redis.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
