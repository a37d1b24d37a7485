// Package session provides Redis-backed refresh-session persistence and a
// compact binary record encoding shared between Go and the Lua scripts that
// run inside Redis.
//
// # Binary encoding
//
// Records are stored as a versioned binary blob: fixed-width integer fields
// first (token version, expiry, timestamps) so the rotation script can read
// them at constant offsets, then length-prefixed strings. The encoder is
// append-only: new schema versions add fields but never reinterpret old ones.
//
// # Atomicity
//
// Rotation is a single Lua script: it re-checks record existence and token
// version, deletes every record the user holds, and inserts exactly one
// replacement. Redis executes scripts serially, so concurrent rotations of
// the same token produce exactly one winner.
//
// # Architecture boundaries
//
// This package owns the [Store] (Redis operations) and the [Record] model.
// It does NOT interpret signed tokens or decide authentication outcomes —
// those responsibilities belong to the Engine.
package session
