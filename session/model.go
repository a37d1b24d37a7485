package session

import "time"

// Record is one live refresh session. A user may hold several records
// concurrently (one per device) until any of them is rotated.
//
// TokenVersion always equals the version claim embedded in Token: both are
// written from the same value when the record is created.
type Record struct {
	ID           string
	Token        string
	UserID       string
	TokenVersion int64
	SessionID    string

	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Expired reports whether the record's absolute expiry has passed.
func (r *Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}
