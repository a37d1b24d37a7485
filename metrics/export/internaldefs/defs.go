package internaldefs

import (
	bearauth "github.com/kmathur2/bearauth"
)

// CounterDef binds a [bearauth.MetricID] to its exported name and help text.
type CounterDef struct {
	ID   bearauth.MetricID
	Name string
	Help string
}

// HistogramDef binds a histogram [bearauth.MetricID] to its exported name
// and help text.
type HistogramDef struct {
	ID   bearauth.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in snapshot order.
var CounterDefs = []CounterDef{
	{ID: bearauth.MetricIssueSuccess, Name: "bearauth_issue_success_total", Help: "Successful token pair issuances."},
	{ID: bearauth.MetricIssueFailure, Name: "bearauth_issue_failure_total", Help: "Failed token pair issuances."},
	{ID: bearauth.MetricRefreshSuccess, Name: "bearauth_refresh_success_total", Help: "Successful refresh rotations."},
	{ID: bearauth.MetricRefreshFailure, Name: "bearauth_refresh_failure_total", Help: "Failed refresh rotations."},
	{ID: bearauth.MetricReplayDetected, Name: "bearauth_replay_detected_total", Help: "Version-mismatch and lost-rotation outcomes."},
	{ID: bearauth.MetricRefreshRateLimited, Name: "bearauth_refresh_rate_limited_total", Help: "Rate-limited refresh attempts."},
	{ID: bearauth.MetricValidateSuccess, Name: "bearauth_validate_success_total", Help: "Successful access token validations."},
	{ID: bearauth.MetricValidateFailure, Name: "bearauth_validate_failure_total", Help: "Failed access token validations."},
	{ID: bearauth.MetricSessionCreated, Name: "bearauth_session_created_total", Help: "Created session records."},
	{ID: bearauth.MetricSessionInvalidated, Name: "bearauth_session_invalidated_total", Help: "Invalidated session records."},
	{ID: bearauth.MetricLogout, Name: "bearauth_logout_total", Help: "Single-session revocations."},
	{ID: bearauth.MetricLogoutAll, Name: "bearauth_logout_all_total", Help: "User-scoped bulk revocations."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: bearauth.MetricValidateLatency, Name: "bearauth_validate_latency_seconds", Help: "Authenticate latency histogram."},
}

// HistogramBounds are the upper bucket bounds in seconds.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix are bound labels safe for instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed
// bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// both exporters expose.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
