package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// setupTestRedis connects to a local Redis on DB 15 and skips when none is running.
// The integration tests start their own container instead.
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

func TestNewRedisStorage_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewRedisStorage should panic with nil redis client")
		}
	}()
	NewRedisStorage(nil)
}

func TestRedisStorage_Kind(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	if got := NewRedisStorage(client).Kind(); got != "redis" {
		t.Errorf("Kind() = %q, want redis", got)
	}
}

func TestRedisStorage_GetSet(t *testing.T) {
	s := NewRedisStorage(setupTestRedis(t))
	ctx := context.Background()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}

	if err := s.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Errorf("Get() = %q, %v", got, err)
	}
}

func TestRedisStorage_IncrAndCount(t *testing.T) {
	s := NewRedisStorage(setupTestRedis(t))
	ctx := context.Background()

	if ok, err := s.SetNX(ctx, "catalog_filter_version", []byte("1")); err != nil || !ok {
		t.Fatalf("SetNX() = %v, %v", ok, err)
	}
	n, err := s.Incr(ctx, "catalog_filter_version")
	if err != nil || n != 2 {
		t.Errorf("Incr() = %d, %v; want 2", n, err)
	}

	s.Set(ctx, "catalog_filter_v2_a", []byte("1"), time.Minute)
	s.Set(ctx, "catalog_filter_v2_b", []byte("1"), time.Minute)
	s.Set(ctx, "catalog_filter_v1_a", []byte("1"), time.Minute)

	count, err := s.Count(ctx, "catalog_filter_v2_")
	if err != nil || count != 2 {
		t.Errorf("Count() = %d, %v; want 2", count, err)
	}

	if err := s.Delete(ctx, "catalog_filter_v2_a", "catalog_filter_v2_b"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if count, _ := s.Count(ctx, "catalog_filter_v2_"); count != 0 {
		t.Errorf("Count() after Delete = %d, want 0", count)
	}
}
