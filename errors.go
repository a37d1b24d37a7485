package bearauth

import "errors"

var (
	// ErrSessionNotFound is returned when the presented refresh token has no
	// live session record: never issued, already consumed by a prior
	// rotation, or revoked by logout.
	ErrSessionNotFound = errors.New("session not found")
	// ErrRefreshTokenExpired is returned when the session record for a
	// refresh token exists but its absolute expiry has passed. The record is
	// deleted as a side effect.
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	// ErrTokenInvalid is returned when a refresh token fails signature,
	// issuer, audience, or expiry verification.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenVersionMismatch is returned when a refresh token's version
	// claim no longer matches the stored session record: the chain was
	// superseded by a concurrent rotation.
	ErrTokenVersionMismatch = errors.New("token version mismatch")
	// ErrUserNotFound is returned when the user a token was issued for no
	// longer exists in the user directory.
	ErrUserNotFound = errors.New("user not found")
	// ErrAccessTokenExpired is returned by Authenticate when the access
	// token's signature is valid but its exp claim is in the past.
	ErrAccessTokenExpired = errors.New("access token expired")
	// ErrAccessTokenInvalid is returned by Authenticate for any other access
	// token verification failure.
	ErrAccessTokenInvalid = errors.New("invalid access token")
	// ErrRefreshRateLimited is returned when refresh throttling is enabled
	// and a token exceeds its rotation attempt budget.
	ErrRefreshRateLimited = errors.New("refresh rate limited")
	// ErrEngineNotReady is returned when an Engine method is called on an
	// engine that was not constructed through Builder.Build.
	ErrEngineNotReady = errors.New("engine not initialized")
)
