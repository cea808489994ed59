package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	type payload struct {
		Ticker string  `json:"ticker"`
		Price  float64 `json:"price"`
	}

	if err := c.Set(ctx, "k", payload{Ticker: "AAPL", Price: 185.64}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got payload
	if err := c.Get(ctx, "k", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Ticker != "AAPL" || got.Price != 185.64 {
		t.Fatalf("unexpected value %+v", got)
	}
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()

	var out string
	if err := c.Get(context.Background(), "absent", &out); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCacheExpiration(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "k", "v", time.Nanosecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	var out string
	if err := c.Get(ctx, "k", &out); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected expired entry to miss, got %v", err)
	}
}

func TestMemoryCacheEvictsLRU(t *testing.T) {
	c := NewMemoryCache(WithMemoryMaxSize(2))
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "a", "1", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if err := c.Set(ctx, "b", "2", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(2 * time.Millisecond)

	// touch "a" so "b" becomes the eviction candidate
	var out string
	if err := c.Get(ctx, "a", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	time.Sleep(2 * time.Millisecond)

	if err := c.Set(ctx, "c", "3", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	if err := c.Get(ctx, "b", &out); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected b evicted, got %v", err)
	}
	if err := c.Get(ctx, "a", &out); err != nil {
		t.Fatalf("a should survive: %v", err)
	}
}

func TestMemoryCacheDeleteAndExists(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	ok, err := c.Exists(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("exists: %v %v", ok, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	ok, err = c.Exists(ctx, "k")
	if err != nil || ok {
		t.Fatalf("expected gone, got %v %v", ok, err)
	}
}
