// Package internal contains helper utilities that are intentionally private
// to bearauth, including secure random session identifier generation.
//
// # Sub-packages
//
//   - audit — async event dispatch (Dispatcher + Sink implementations)
//   - rate — Redis-backed fixed-window refresh throttling
//
// # What this package must NOT do
//
//   - Export types that appear in the public bearauth API.
//   - Be imported by any package outside the bearauth module.
package internal
