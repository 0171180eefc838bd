package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// An unreachable server must behave like an empty cache.
func TestRedisCacheFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	c := NewRedisCache[[]int](client, "budget:test:", time.Minute)
	ctx := context.Background()
	c.Set(ctx, "k", []int{1, 2})
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatalf("unreachable redis cannot produce a hit")
	}
	c.Delete(ctx, "k")
}

func TestNewRedisClientRejectsBadURL(t *testing.T) {
	if _, err := NewRedisClient(context.Background(), "not-a-url"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestRedisCacheRoundTrip(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()
	client, err := NewRedisClient(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	type payload struct {
		Year  int      `json:"year"`
		Names []string `json:"names"`
	}
	c := NewRedisCache[payload](client, "budget:test:", time.Minute)
	c.Set(ctx, "2025", payload{Year: 2025, Names: []string{"Loyer"}})
	got, ok := c.Get(ctx, "2025")
	if !ok || got.Year != 2025 || len(got.Names) != 1 {
		t.Fatalf("got %+v, %v", got, ok)
	}
	c.Delete(ctx, "2025")
	if _, ok := c.Get(ctx, "2025"); ok {
		t.Fatalf("entry should be gone")
	}
}
