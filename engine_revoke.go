package bearauth

import "context"

// RevokeUser deletes every session record the user holds. Used by logout-all
// and password-change flows. Idempotent: revoking a user with no live
// sessions is not an error.
func (e *Engine) RevokeUser(ctx context.Context, userID string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	removed, err := e.sessionStore.DeleteAllForUser(ctx, userID)
	if err != nil {
		e.emitAudit(ctx, auditEventLogoutAll, false, userID, "", err, nil)
		return err
	}

	e.metricInc(MetricLogoutAll)
	for i := int64(0); i < removed; i++ {
		e.metricInc(MetricSessionInvalidated)
	}
	e.emitAudit(ctx, auditEventLogoutAll, true, userID, "", nil, nil)

	return nil
}

// RevokeSession deletes the single session record with the given session ID.
// Idempotent.
func (e *Engine) RevokeSession(ctx context.Context, sessionID string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	if err := e.sessionStore.DeleteBySessionID(ctx, sessionID); err != nil {
		e.emitAudit(ctx, auditEventLogoutSession, false, "", sessionID, err, nil)
		return err
	}

	e.metricInc(MetricLogout)
	e.metricInc(MetricSessionInvalidated)
	e.emitAudit(ctx, auditEventLogoutSession, true, "", sessionID, nil, nil)

	return nil
}

// RevokeByToken deletes the session record anchoring the given refresh
// token. Idempotent.
func (e *Engine) RevokeByToken(ctx context.Context, refreshToken string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	if err := e.sessionStore.DeleteByToken(ctx, refreshToken); err != nil {
		e.emitAudit(ctx, auditEventLogoutSession, false, "", "", err, nil)
		return err
	}

	e.metricInc(MetricLogout)
	e.metricInc(MetricSessionInvalidated)
	e.emitAudit(ctx, auditEventLogoutSession, true, "", "", nil, nil)

	return nil
}
