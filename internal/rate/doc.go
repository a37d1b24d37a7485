// Package rate implements the Redis-backed fixed-window counter used to
// throttle refresh rotation attempts per presented token.
package rate
