package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"stockintel/internal/models"
)

type fakeFetcher struct {
	mu     sync.Mutex
	calls  int32
	quotes map[string]*models.Quote
	err    error
}

func (f *fakeFetcher) Quote(_ context.Context, symbol string) (*models.Quote, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if q, ok := f.quotes[symbol]; ok {
		copied := *q
		return &copied, nil
	}
	return &models.Quote{Symbol: symbol, Price: 100}, nil
}

func (f *fakeFetcher) callCount() int32 {
	return atomic.LoadInt32(&f.calls)
}

func TestIsStale(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ttl := 60 * time.Second

	tests := []struct {
		name      string
		fetchedAt time.Time
		want      bool
	}{
		{name: "just fetched", fetchedAt: now, want: false},
		{name: "within ttl", fetchedAt: now.Add(-30 * time.Second), want: false},
		{name: "exactly at ttl", fetchedAt: now.Add(-60 * time.Second), want: true},
		{name: "past ttl", fetchedAt: now.Add(-5 * time.Minute), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsStale(tt.fetchedAt, ttl, now); got != tt.want {
				t.Errorf("IsStale(%v) = %v, want %v", now.Sub(tt.fetchedAt), got, tt.want)
			}
		})
	}
}

func TestQuoteCache_FreshHitSkipsFetch(t *testing.T) {
	fetcher := &fakeFetcher{}
	cache := NewQuoteCache(fetcher, time.Minute, zerolog.Nop())

	ctx := context.Background()
	if _, err := cache.Get(ctx, "AAPL"); err != nil {
		t.Fatalf("first Get failed: %v", err)
	}
	if _, err := cache.Get(ctx, "AAPL"); err != nil {
		t.Fatalf("second Get failed: %v", err)
	}

	if fetcher.callCount() != 1 {
		t.Errorf("expected 1 upstream fetch, got %d", fetcher.callCount())
	}
	if cache.Len() != 1 {
		t.Errorf("expected 1 cached symbol, got %d", cache.Len())
	}
}

func TestQuoteCache_MissFetchFailurePropagates(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("upstream down")}
	cache := NewQuoteCache(fetcher, time.Minute, zerolog.Nop())

	if _, err := cache.Get(context.Background(), "AAPL"); err == nil {
		t.Fatal("expected error on cold miss with failing upstream")
	}
	if cache.Len() != 0 {
		t.Errorf("failed fetch must not populate the cache, got %d entries", cache.Len())
	}
}

func TestQuoteCache_StaleServesImmediatelyAndRefreshes(t *testing.T) {
	fetcher := &fakeFetcher{quotes: map[string]*models.Quote{
		"AAPL": {Symbol: "AAPL", Price: 100},
	}}
	cache := NewQuoteCache(fetcher, time.Minute, zerolog.Nop())

	ctx := context.Background()
	if _, err := cache.Get(ctx, "AAPL"); err != nil {
		t.Fatalf("warm-up Get failed: %v", err)
	}

	// Age the entry past the TTL and move the upstream price
	cache.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	fetcher.mu.Lock()
	fetcher.quotes["AAPL"].Price = 150
	fetcher.mu.Unlock()

	quote, err := cache.Get(ctx, "AAPL")
	if err != nil {
		t.Fatalf("stale Get failed: %v", err)
	}
	if quote.Price != 100 {
		t.Errorf("stale Get must serve the cached quote, got price %f", quote.Price)
	}

	// The background refresh lands the new price
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if q, ok, _ := cache.Peek("AAPL"); ok && q.Price == 150 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("background refresh never replaced the stale entry")
}

func TestQuoteCache_RefreshFailureKeepsStaleEntry(t *testing.T) {
	fetcher := &fakeFetcher{quotes: map[string]*models.Quote{
		"AAPL": {Symbol: "AAPL", Price: 100},
	}}
	cache := NewQuoteCache(fetcher, time.Minute, zerolog.Nop())

	ctx := context.Background()
	if _, err := cache.Get(ctx, "AAPL"); err != nil {
		t.Fatalf("warm-up Get failed: %v", err)
	}

	cache.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	fetcher.err = errors.New("upstream down")

	quote, err := cache.Get(ctx, "AAPL")
	if err != nil {
		t.Fatalf("stale Get failed: %v", err)
	}
	if quote.Price != 100 {
		t.Errorf("expected the stale quote to keep serving, got %f", quote.Price)
	}

	time.Sleep(100 * time.Millisecond)
	if q, ok, stale := cache.Peek("AAPL"); !ok || !stale || q.Price != 100 {
		t.Errorf("failed refresh must keep the stale entry, got ok=%v stale=%v", ok, stale)
	}
}

func TestQuoteCache_Invalidate(t *testing.T) {
	fetcher := &fakeFetcher{}
	cache := NewQuoteCache(fetcher, time.Minute, zerolog.Nop())

	ctx := context.Background()
	if _, err := cache.Get(ctx, "AAPL"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	cache.Invalidate("AAPL")
	if _, err := cache.Get(ctx, "AAPL"); err != nil {
		t.Fatalf("Get after invalidate failed: %v", err)
	}

	if fetcher.callCount() != 2 {
		t.Errorf("expected 2 upstream fetches, got %d", fetcher.callCount())
	}
}
