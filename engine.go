package bearauth

import (
	"time"

	internalaudit "github.com/kmathur2/bearauth/internal/audit"
	"github.com/kmathur2/bearauth/internal/rate"
	"github.com/kmathur2/bearauth/session"
	"github.com/kmathur2/bearauth/token"
)

// Engine is the credential lifecycle coordinator. It issues matched
// access/refresh pairs, rotates refresh chains atomically, validates access
// tokens, and revokes sessions. Safe for concurrent use after
// [Builder.Build].
type Engine struct {
	config       Config
	tokens       *token.Manager
	sessionStore *session.Store
	rateLimiter  *rate.Limiter
	audit        *internalaudit.Dispatcher
	metrics      *Metrics
	userProvider UserProvider
}

// Close flushes and stops the audit dispatcher. The Engine must not be used
// after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were dropped because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all engine metrics.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricObserve(id MetricID, d time.Duration) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(id, d)
}

func (e *Engine) ready() bool {
	return e != nil && e.tokens != nil && e.sessionStore != nil && e.userProvider != nil
}
