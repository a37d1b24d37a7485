package bearauth

import (
	"context"
	"errors"
	"time"

	"github.com/kmathur2/bearauth/token"
)

// Authenticate verifies a bearer access token and confirms the user still
// exists. Access tokens are never checked against the session store:
// revoking a user's sessions blocks subsequent refresh but an already-issued
// access token remains usable until its short TTL elapses.
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (Identity, error) {
	if !e.ready() {
		return Identity{}, ErrEngineNotReady
	}

	start := time.Now()

	claims, err := e.tokens.ParseAccess(accessToken)
	if err != nil {
		e.metricInc(MetricValidateFailure)
		if errors.Is(err, token.ErrExpired) {
			e.emitAudit(ctx, auditEventValidateFailure, false, "", "", ErrAccessTokenExpired, nil)
			return Identity{}, ErrAccessTokenExpired
		}
		e.emitAudit(ctx, auditEventValidateFailure, false, "", "", ErrAccessTokenInvalid, nil)
		return Identity{}, ErrAccessTokenInvalid
	}

	if _, err := e.userProvider.GetUserByID(ctx, claims.UID); err != nil {
		e.metricInc(MetricValidateFailure)
		if errors.Is(err, ErrUserNotFound) {
			e.emitAudit(ctx, auditEventValidateFailure, false, claims.UID, "", ErrUserNotFound, nil)
			return Identity{}, ErrUserNotFound
		}
		return Identity{}, err
	}

	e.metricInc(MetricValidateSuccess)
	e.metricObserve(MetricValidateLatency, time.Since(start))

	return Identity{UserID: claims.UID, Email: claims.Email}, nil
}

// OptionalAuthenticate runs the same checks as [Engine.Authenticate] but
// resolves every failure to "no identity" instead of an error. Used for
// routes where authentication is advisory.
func (e *Engine) OptionalAuthenticate(ctx context.Context, accessToken string) *Identity {
	identity, err := e.Authenticate(ctx, accessToken)
	if err != nil {
		return nil
	}
	return &identity
}
