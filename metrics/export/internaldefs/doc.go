// Package internaldefs holds the shared metric name and bucket definitions
// used by the Prometheus and OpenTelemetry exporters. It is internal to the
// metrics/export tree and carries no exporter dependencies of its own.
package internaldefs
