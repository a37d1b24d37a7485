// Package prometheus exposes engine metrics in Prometheus text exposition
// format without importing the Prometheus client library. The exporter reads
// point-in-time snapshots from the engine, so scraping never contends with
// the hot path.
package prometheus
