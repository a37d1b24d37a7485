package bearauth

import (
	"context"
	"errors"
	"testing"
)

func TestRevokeUserBlocksRefresh(t *testing.T) {
	engine, _, done := newEngineTest(t)
	defer done()
	ctx := context.Background()

	desktop, err := engine.IssueAndPersist(ctx, "u-1", "")
	if err != nil {
		t.Fatalf("issue desktop: %v", err)
	}
	mobile, err := engine.IssueAndPersist(ctx, "u-1", "")
	if err != nil {
		t.Fatalf("issue mobile: %v", err)
	}

	if err := engine.RevokeUser(ctx, "u-1"); err != nil {
		t.Fatalf("revoke user: %v", err)
	}

	for _, tok := range []string{desktop.RefreshToken, mobile.RefreshToken} {
		if _, err := engine.Rotate(ctx, tok); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("expected ErrSessionNotFound after revocation, got %v", err)
		}
	}

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricLogoutAll] != 1 {
		t.Fatalf("expected 1 logout-all, got %d", snap.Counters[MetricLogoutAll])
	}
	if snap.Counters[MetricSessionInvalidated] != 2 {
		t.Fatalf("expected 2 invalidated sessions, got %d", snap.Counters[MetricSessionInvalidated])
	}
}

func TestRevokeUserIdempotent(t *testing.T) {
	engine, _, done := newEngineTest(t)
	defer done()
	ctx := context.Background()

	if err := engine.RevokeUser(ctx, "u-1"); err != nil {
		t.Fatalf("revoke with no sessions: %v", err)
	}
	if err := engine.RevokeUser(ctx, "nobody"); err != nil {
		t.Fatalf("revoke unknown user: %v", err)
	}
}

func TestRevokeByToken(t *testing.T) {
	engine, _, done := newEngineTest(t)
	defer done()
	ctx := context.Background()

	pair, err := engine.IssueAndPersist(ctx, "u-1", "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if err := engine.RevokeByToken(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("revoke by token: %v", err)
	}
	if _, err := engine.Rotate(ctx, pair.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after logout, got %v", err)
	}

	// Idempotent.
	if err := engine.RevokeByToken(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
}

func TestRevokeSession(t *testing.T) {
	engine, _, done := newEngineTest(t)
	defer done()
	ctx := context.Background()

	pair, err := engine.IssueAndPersist(ctx, "u-1", "")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	rec, err := engine.sessionStore.GetByToken(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}

	if err := engine.RevokeSession(ctx, rec.SessionID); err != nil {
		t.Fatalf("revoke session: %v", err)
	}
	if _, err := engine.Rotate(ctx, pair.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	// Idempotent.
	if err := engine.RevokeSession(ctx, rec.SessionID); err != nil {
		t.Fatalf("second revoke: %v", err)
	}
}

func TestRevokeOnlyTargetsGivenUser(t *testing.T) {
	engine, users, done := newEngineTest(t)
	defer done()
	ctx := context.Background()

	users.add("u-2", "u2@example.com")

	u1, err := engine.IssueAndPersist(ctx, "u-1", "")
	if err != nil {
		t.Fatalf("issue u-1: %v", err)
	}
	u2, err := engine.IssueAndPersist(ctx, "u-2", "")
	if err != nil {
		t.Fatalf("issue u-2: %v", err)
	}

	if err := engine.RevokeUser(ctx, "u-1"); err != nil {
		t.Fatalf("revoke u-1: %v", err)
	}

	if _, err := engine.Rotate(ctx, u1.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected u-1 refresh to fail, got %v", err)
	}
	if _, err := engine.Rotate(ctx, u2.RefreshToken); err != nil {
		t.Fatalf("expected u-2 refresh to survive: %v", err)
	}
}
