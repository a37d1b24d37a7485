package bearauth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/kmathur2/bearauth/internal"
	"github.com/kmathur2/bearauth/session"
)

// IssueAndPersist produces a matched access/refresh token pair for the user
// and persists one refresh session record at the user's current token
// version. Used by login and register flows; a user may hold several live
// sessions concurrently (one per device) until any of them is rotated.
func (e *Engine) IssueAndPersist(ctx context.Context, userID, email string) (TokenPair, error) {
	if !e.ready() {
		return TokenPair{}, ErrEngineNotReady
	}

	version, err := e.sessionStore.CurrentVersion(ctx, userID)
	if err != nil {
		e.metricInc(MetricIssueFailure)
		e.emitAudit(ctx, auditEventIssueFailure, false, userID, "", err, nil)
		return TokenPair{}, err
	}

	pair, rec, err := e.issueTokenPair(userID, email, version)
	if err != nil {
		e.metricInc(MetricIssueFailure)
		e.emitAudit(ctx, auditEventIssueFailure, false, userID, "", err, nil)
		return TokenPair{}, err
	}

	if err := e.sessionStore.Save(ctx, rec, e.config.Token.RefreshTTL); err != nil {
		e.metricInc(MetricIssueFailure)
		e.emitAudit(ctx, auditEventIssueFailure, false, userID, rec.SessionID, err, nil)
		return TokenPair{}, err
	}

	e.metricInc(MetricIssueSuccess)
	e.metricInc(MetricSessionCreated)
	e.emitAudit(ctx, auditEventIssueSuccess, true, userID, rec.SessionID, nil, nil)

	return pair, nil
}

// issueTokenPair builds both claim sets with fresh jti values, signs them,
// and constructs the session record that anchors the refresh token. The
// record's TokenVersion and the version claim inside its token are written
// from the same value.
func (e *Engine) issueTokenPair(userID, email string, version int64) (TokenPair, *session.Record, error) {
	access, err := e.tokens.CreateAccess(userID, email)
	if err != nil {
		return TokenPair{}, nil, err
	}

	refresh, err := e.tokens.CreateRefresh(userID, version)
	if err != nil {
		return TokenPair{}, nil, err
	}

	sid, err := internal.NewSessionID()
	if err != nil {
		return TokenPair{}, nil, err
	}

	now := time.Now()
	rec := &session.Record{
		ID:           uuid.NewString(),
		Token:        refresh,
		UserID:       userID,
		TokenVersion: version,
		SessionID:    sid.String(),
		ExpiresAt:    now.Add(e.config.Token.RefreshTTL),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, rec, nil
}
