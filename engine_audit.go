package bearauth

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventIssueSuccess       = "issue_success"
	auditEventIssueFailure       = "issue_failure"
	auditEventRefreshSuccess     = "refresh_success"
	auditEventRefreshInvalid     = "refresh_invalid"
	auditEventRefreshRateLimited = "refresh_rate_limited"
	auditEventReplayDetected     = "replay_detected"
	auditEventValidateFailure    = "validate_failure"
	auditEventLogoutSession      = "logout_session"
	auditEventLogoutAll          = "logout_all"
)

// AuditErrorCode is the stable error identifier attached to audit events.
type AuditErrorCode string

const (
	auditErrSessionNotFound AuditErrorCode = "session_not_found"
	auditErrRefreshExpired  AuditErrorCode = "refresh_token_expired"
	auditErrInvalidToken    AuditErrorCode = "invalid_token"
	auditErrVersionMismatch AuditErrorCode = "token_version_mismatch"
	auditErrUserNotFound    AuditErrorCode = "user_not_found"
	auditErrAccessExpired   AuditErrorCode = "access_token_expired"
	auditErrAccessInvalid   AuditErrorCode = "invalid_access_token"
	auditErrRateLimited     AuditErrorCode = "rate_limited"
	auditErrInternal        AuditErrorCode = "internal_error"
)

func auditErrorCode(err error) AuditErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrRefreshTokenExpired):
		return auditErrRefreshExpired
	case errors.Is(err, ErrTokenVersionMismatch):
		return auditErrVersionMismatch
	case errors.Is(err, ErrTokenInvalid):
		return auditErrInvalidToken
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrAccessTokenExpired):
		return auditErrAccessExpired
	case errors.Is(err, ErrAccessTokenInvalid):
		return auditErrAccessInvalid
	case errors.Is(err, ErrRefreshRateLimited):
		return auditErrRateLimited
	default:
		return auditErrInternal
	}
}

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}
