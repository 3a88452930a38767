// Package telemetry provides the observability plumbing for toolgrab:
// structured logging on zerolog, Prometheus metrics for runs, attempts and
// classifications, and OpenTelemetry tracing with a stdout exporter.
//
// Components receive their logger, metrics and tracer explicitly; nothing
// here is a hidden global beyond what the underlying libraries install.
package telemetry
