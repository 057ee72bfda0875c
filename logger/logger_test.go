package logger

import (
	"testing"
)

func TestWithComponent(t *testing.T) {
	log := Logger()
	entry := log.WithComponent("test")
	if v, ok := entry.Entry.Data["component"]; !ok || v != "test" {
		t.Fatalf("component field missing: %v", entry.Entry.Data)
	}
}

func TestConfigureInvalidLevel(t *testing.T) {
	// Ensure environment variables do not override the provided level
	t.Setenv("LOG_LEVEL", "")

	log := Logger()
	if err := log.Configure("invalid", "json", "stdout", 0); err == nil {
		t.Fatalf("expected error for invalid level")
	}
}

func TestConfigureInvalidFormat(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")

	log := Logger()
	if err := log.Configure("info", "xml", "stdout", 0); err == nil {
		t.Fatalf("expected error for invalid format")
	}
}

func TestLogMetricWithoutCloudWatch(t *testing.T) {
	// Publishing must degrade to a log line when no CloudWatch client has
	// been initialised.
	log := Logger()
	log.LogMetric("test", "symbols_fetched", 42, "counter", Fields{"format": "csv"})
	log.WithComponent("test").LogMetric("test", "rows_exported", 5, "", nil)
}

func TestReportCounters(t *testing.T) {
	IncrementFetchOK()
	IncrementFetchFailure("not_found")
	IncrementFetchFailure("not_found")
	IncrementRowsExported(5)

	fields := reportFields()
	if fields["fetch_fail_not_found"].(int64) < 2 {
		t.Fatalf("expected at least 2 not_found failures, got %v", fields["fetch_fail_not_found"])
	}
	if fields["fetch_ok"].(int64) < 1 {
		t.Fatalf("expected at least 1 fetch_ok, got %v", fields["fetch_ok"])
	}
}
