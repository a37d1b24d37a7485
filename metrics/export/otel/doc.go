// Package otel bridges engine metrics into the OpenTelemetry metric API
// using observable instruments. The caller owns the MeterProvider and
// pipeline; this package only registers a snapshot-reading callback.
package otel
