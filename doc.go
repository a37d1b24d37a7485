// Package bearauth provides the token-lifecycle and session-invalidation
// engine for a multi-device authentication service: signed credential
// issuance, atomic refresh rotation with version-based replay protection,
// and user-scoped bulk revocation over Redis-backed session records.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// bearauth is the public surface. It exposes [Engine], [Builder], [Config],
// and value types (Identity, TokenPair, MetricsSnapshot, etc.). All internal
// coordination — record encoding, rotation scripting, rate limiting, audit
// dispatch — lives under token/, session/, and internal/ and is never
// exported beyond what this package re-exports.
//
// Account management (registration, password verification, password hashing)
// and HTTP transport (headers, cookies, CORS) are external collaborators:
// the embedding service owns them and integrates through [UserProvider] and
// the opaque bearer strings this package returns.
//
// # What this package must NOT do
//
//   - Expose Redis clients, internal stores, or encoding details in its
//     public API.
//   - Perform I/O outside of Engine methods (construction via Builder is
//     allocation-only until Build).
//   - Consult the session store when validating access tokens; access tokens
//     die by expiry, not by revocation.
//
// # Performance contract
//
// Authenticate is the hot path. It must not allocate beyond the returned
// Identity and completes with a single user-directory round trip. Rotate,
// IssueAndPersist, and revocation operations are allowed one Redis script
// round trip per call.
package bearauth
