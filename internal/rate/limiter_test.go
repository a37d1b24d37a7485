package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLimiterTest(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(rdb, cfg), mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func TestCheckRefreshDisabledAllowsEverything(t *testing.T) {
	l, _, done := newLimiterTest(t, Config{EnableRefreshThrottle: false})
	defer done()

	for i := 0; i < 100; i++ {
		if err := l.CheckRefresh(context.Background(), "digest-1"); err != nil {
			t.Fatalf("expected disabled throttle to allow attempt %d: %v", i, err)
		}
	}
}

func TestCheckRefreshEnforcesBudget(t *testing.T) {
	l, _, done := newLimiterTest(t, Config{
		EnableRefreshThrottle:   true,
		MaxRefreshAttempts:      3,
		RefreshCooldownDuration: time.Minute,
	})
	defer done()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.CheckRefresh(ctx, "digest-1"); err != nil {
			t.Fatalf("attempt %d within budget failed: %v", i, err)
		}
	}
	if err := l.CheckRefresh(ctx, "digest-1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited over budget, got %v", err)
	}

	// Other tokens keep their own budget.
	if err := l.CheckRefresh(ctx, "digest-2"); err != nil {
		t.Fatalf("unrelated digest should not be limited: %v", err)
	}
}

func TestCheckRefreshWindowResets(t *testing.T) {
	l, mr, done := newLimiterTest(t, Config{
		EnableRefreshThrottle:   true,
		MaxRefreshAttempts:      1,
		RefreshCooldownDuration: time.Minute,
	})
	defer done()
	ctx := context.Background()

	if err := l.CheckRefresh(ctx, "digest-1"); err != nil {
		t.Fatalf("first attempt: %v", err)
	}
	if err := l.CheckRefresh(ctx, "digest-1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if err := l.CheckRefresh(ctx, "digest-1"); err != nil {
		t.Fatalf("expected fresh window after cooldown: %v", err)
	}
}
