package bearauth

import (
	"context"
	"errors"

	"github.com/kmathur2/bearauth/internal/rate"
	"github.com/kmathur2/bearauth/session"
)

// Rotate exchanges a valid refresh token for a new access/refresh pair,
// invalidating every session record the user holds. Rotation is a
// single-active-chain policy: any one refresh invalidates every other
// device's pending refresh chain.
//
// The checks run in a fixed order — lookup, expiry, signature, user
// existence, version — and the final store write is a compare-and-swap that
// re-verifies existence and version, so two concurrent rotations of the same
// token yield exactly one success. The loser observes [ErrSessionNotFound]
// or [ErrTokenVersionMismatch], never a second valid pair. No state is
// mutated before the final write except the mandated lazy deletion of an
// expired record.
func (e *Engine) Rotate(ctx context.Context, refreshToken string) (TokenPair, error) {
	if !e.ready() {
		return TokenPair{}, ErrEngineNotReady
	}

	if e.rateLimiter != nil {
		if err := e.rateLimiter.CheckRefresh(ctx, session.TokenDigest(refreshToken)); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				e.metricInc(MetricRefreshRateLimited)
				e.emitAudit(ctx, auditEventRefreshRateLimited, false, "", "", ErrRefreshRateLimited, nil)
				return TokenPair{}, ErrRefreshRateLimited
			}
			e.metricInc(MetricRefreshFailure)
			return TokenPair{}, err
		}
	}

	rec, err := e.sessionStore.GetByToken(ctx, refreshToken)
	if err != nil {
		return TokenPair{}, e.rotateLookupFailure(ctx, err)
	}

	claims, err := e.tokens.ParseRefresh(refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, rec.UserID, rec.SessionID, ErrTokenInvalid, func() map[string]string {
			return map[string]string{"reason": "signature_check"}
		})
		return TokenPair{}, ErrTokenInvalid
	}

	user, err := e.userProvider.GetUserByID(ctx, claims.UID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, auditEventRefreshInvalid, false, claims.UID, rec.SessionID, ErrUserNotFound, func() map[string]string {
				return map[string]string{"reason": "user_check"}
			})
			return TokenPair{}, ErrUserNotFound
		}
		e.metricInc(MetricRefreshFailure)
		return TokenPair{}, err
	}

	if claims.TokenVersion != rec.TokenVersion {
		e.metricInc(MetricRefreshFailure)
		e.metricInc(MetricReplayDetected)
		e.emitAudit(ctx, auditEventReplayDetected, false, rec.UserID, rec.SessionID, ErrTokenVersionMismatch, func() map[string]string {
			return map[string]string{"reason": "version_check"}
		})
		return TokenPair{}, ErrTokenVersionMismatch
	}

	newVersion := rec.TokenVersion + 1
	pair, next, err := e.issueTokenPair(user.UserID, user.Email, newVersion)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, rec.UserID, rec.SessionID, err, func() map[string]string {
			return map[string]string{"reason": "issue_failed"}
		})
		return TokenPair{}, err
	}

	if err := e.sessionStore.Rotate(ctx, refreshToken, rec.TokenVersion, next, e.config.Token.RefreshTTL); err != nil {
		return TokenPair{}, e.rotateSwapFailure(ctx, rec, err)
	}

	e.metricInc(MetricRefreshSuccess)
	e.metricInc(MetricSessionInvalidated)
	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, rec.UserID, next.SessionID, nil, func() map[string]string {
		return map[string]string{"superseded_session": rec.SessionID}
	})

	return pair, nil
}

// rotateLookupFailure maps store lookup errors to the public taxonomy.
// An absent record covers: never issued, already consumed by a prior
// rotation, or logged out.
func (e *Engine) rotateLookupFailure(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, session.ErrRecordNotFound):
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, "", "", ErrSessionNotFound, func() map[string]string {
			return map[string]string{"reason": "lookup"}
		})
		return ErrSessionNotFound
	case errors.Is(err, session.ErrRecordExpired):
		e.metricInc(MetricRefreshFailure)
		e.metricInc(MetricSessionInvalidated)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, "", "", ErrRefreshTokenExpired, func() map[string]string {
			return map[string]string{"reason": "expiry_check"}
		})
		return ErrRefreshTokenExpired
	default:
		e.metricInc(MetricRefreshFailure)
		return err
	}
}

// rotateSwapFailure maps the compare-and-swap outcome for the losing side of
// a rotation race.
func (e *Engine) rotateSwapFailure(ctx context.Context, rec *session.Record, err error) error {
	switch {
	case errors.Is(err, session.ErrRecordNotFound):
		// winner's delete ran first
		e.metricInc(MetricRefreshFailure)
		e.metricInc(MetricReplayDetected)
		e.emitAudit(ctx, auditEventReplayDetected, false, rec.UserID, rec.SessionID, ErrSessionNotFound, func() map[string]string {
			return map[string]string{"reason": "lost_rotation"}
		})
		return ErrSessionNotFound
	case errors.Is(err, session.ErrVersionMismatch):
		// winner's create ran first and the re-read saw the new chain
		e.metricInc(MetricRefreshFailure)
		e.metricInc(MetricReplayDetected)
		e.emitAudit(ctx, auditEventReplayDetected, false, rec.UserID, rec.SessionID, ErrTokenVersionMismatch, func() map[string]string {
			return map[string]string{"reason": "lost_rotation"}
		})
		return ErrTokenVersionMismatch
	case errors.Is(err, session.ErrRecordExpired):
		e.metricInc(MetricRefreshFailure)
		e.metricInc(MetricSessionInvalidated)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, rec.UserID, rec.SessionID, ErrRefreshTokenExpired, nil)
		return ErrRefreshTokenExpired
	default:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, rec.UserID, rec.SessionID, err, func() map[string]string {
			return map[string]string{"reason": "rotate_failed"}
		})
		return err
	}
}
