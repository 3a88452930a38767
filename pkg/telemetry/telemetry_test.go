package telemetry

import (
	"context"
	"testing"
)

func TestNewLoggerLevels(t *testing.T) {
	for _, level := range []string{"trace", "debug", "info", "warn", "error", ""} {
		if _, err := NewLogger(LoggingConfig{Level: level, Output: "stderr"}); err != nil {
			t.Errorf("NewLogger(level=%q) error = %v", level, err)
		}
	}
}

func TestLoggerContextRoundTrip(t *testing.T) {
	logger, err := NewLogger(LoggingConfig{Level: "info", Output: "stderr"})
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}

	ctx := logger.WithContext(context.Background())
	if got := FromContext(ctx); got == nil {
		t.Fatal("FromContext() returned nil for a context carrying a logger")
	}
	if got := FromContext(context.Background()); got == nil {
		t.Fatal("FromContext() must fall back to a usable logger")
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics

	// All recording methods must be no-ops on a nil receiver.
	m.RunStarted("ripgrep")
	m.RunCompleted("ripgrep", "succeeded", 1.5)
	m.AttemptExecuted("apt", "failure")
	m.FailureClassified("method_family", "package_manager")
	m.RemediationDecided("retry")
	m.VersionLookup("success")
}

func TestNilTracerIsSafe(t *testing.T) {
	var tr *Tracer

	ctx, span := tr.Start(context.Background(), "test")
	if ctx == nil || span == nil {
		t.Fatal("nil tracer must still produce a usable span")
	}
	span.End()

	if err := tr.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() on nil tracer error = %v", err)
	}
}

func TestMetricsDisabledByDefault(t *testing.T) {
	m, err := NewMetrics(MetricsConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	// Recording on a disabled collector is a no-op, not a panic.
	m.RunStarted("ripgrep")
	m.RunCompleted("ripgrep", "aborted", 0.1)
}
