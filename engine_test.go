package bearauth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]UserRecord
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[string]UserRecord)}
}

func (p *memoryUsers) add(userID, email string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.users[userID] = UserRecord{UserID: userID, Email: email, CreatedAt: now, UpdatedAt: now}
}

func (p *memoryUsers) remove(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.users, userID)
}

func (p *memoryUsers) GetUserByID(_ context.Context, userID string) (UserRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	user, ok := p.users[userID]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return user, nil
}

type engineTestOption func(*Config)

func withRefreshThrottle(maxAttempts int, cooldown time.Duration) engineTestOption {
	return func(cfg *Config) {
		cfg.RateLimit.EnableRefreshThrottle = true
		cfg.RateLimit.MaxRefreshAttempts = maxAttempts
		cfg.RateLimit.RefreshCooldownDuration = cooldown
	}
}

func newEngineTest(t *testing.T, opts ...engineTestOption) (*Engine, *memoryUsers, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := DefaultConfig()
	cfg.Metrics.EnableLatencyHistograms = true
	for _, opt := range opts {
		opt(&cfg)
	}

	users := newMemoryUsers()
	users.add("u-1", "u1@example.com")

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserProvider(users).
		WithSecrets(
			[]byte("test-access-secret-test-access-01"),
			[]byte("test-refresh-secret-test-refresh"),
		).
		Build()
	if err != nil {
		mr.Close()
		t.Fatalf("build engine: %v", err)
	}

	return engine, users, func() {
		engine.Close()
		rdb.Close()
		mr.Close()
	}
}

func TestEngineNotReady(t *testing.T) {
	var e *Engine

	if _, err := e.IssueAndPersist(context.Background(), "u-1", ""); err != ErrEngineNotReady {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if _, err := e.Rotate(context.Background(), "tok"); err != ErrEngineNotReady {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if _, err := e.Authenticate(context.Background(), "tok"); err != ErrEngineNotReady {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if err := e.RevokeUser(context.Background(), "u-1"); err != ErrEngineNotReady {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
}

func TestBuilderValidation(t *testing.T) {
	users := newMemoryUsers()

	if _, err := New().WithUserProvider(users).Build(); err == nil {
		t.Fatal("expected build without redis to fail")
	}

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	if _, err := New().WithRedis(rdb).Build(); err == nil {
		t.Fatal("expected build without user provider to fail")
	}
	if _, err := New().WithRedis(rdb).WithUserProvider(users).Build(); err == nil {
		t.Fatal("expected build without secrets to fail")
	}

	b := New().
		WithRedis(rdb).
		WithUserProvider(users).
		WithSecrets(
			[]byte("test-access-secret-test-access-01"),
			[]byte("test-refresh-secret-test-refresh"),
		)
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("expected valid build: %v", err)
	}
	defer engine.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build on same builder to fail")
	}
}
