// Package audit provides the event model and asynchronous dispatch used by
// the engine to report credential lifecycle activity (issuance, rotation,
// validation failures, revocation) to caller-supplied sinks without blocking
// the authentication hot path.
package audit
