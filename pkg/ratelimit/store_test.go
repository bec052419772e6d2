package ratelimit

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
)

// setupTestRedis creates a test Redis client.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use a separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestRedisStore_GetSet(t *testing.T) {
	redisClient := setupTestRedis(t)
	store := NewRedisStore(redisClient, "test-key")
	ctx := context.Background()

	state, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if state != nil {
		t.Fatalf("Get() on empty store = %+v, want nil", state)
	}

	if err := store.Set(ctx, &QuotaState{Limit: 10000, Remaining: 42}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	state, err = store.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if state.Limit != 10000 || state.Remaining != 42 {
		t.Errorf("state = %+v", state)
	}
}

func TestRedisStore_CorruptState(t *testing.T) {
	redisClient := setupTestRedis(t)
	ctx := context.Background()

	if err := redisClient.Set(ctx, RedisKey("corrupt"), "not json", 0).Err(); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := NewRedisStore(redisClient, "corrupt").Get(ctx); err == nil {
		t.Error("Get() should fail on corrupt state")
	}
}

func TestNewRedisStore_NilClientPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for nil redis client")
		}
	}()
	NewRedisStore(nil, "key")
}
