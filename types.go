package bearauth

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/kmathur2/bearauth/internal/audit"
)

// UserRecord is the account record returned by [UserProvider]. The engine
// only reads identity and existence from it; credentials and account status
// belong to the embedding service.
type UserRecord struct {
	UserID    string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserProvider is the interface callers implement to integrate bearauth with
// their user directory. GetUserByID must return [ErrUserNotFound] when no
// account exists for the given ID.
type UserProvider interface {
	GetUserByID(ctx context.Context, userID string) (UserRecord, error)
}

// Identity is the authenticated principal returned by [Engine.Authenticate].
type Identity struct {
	UserID string
	Email  string
}

// TokenPair is a matched access/refresh token pair. Both strings are opaque
// signed bearer credentials; how callers carry them (header vs. cookie) is
// outside this package's concern.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}
