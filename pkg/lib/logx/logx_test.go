package logx

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestValidLevel(t *testing.T) {
	for _, name := range []string{"", "trace", "DEBUG", "info", "warn", "error"} {
		if !ValidLevel(name) {
			t.Fatalf("expected %q to be valid", name)
		}
	}
	if ValidLevel("verbose") {
		t.Fatalf("expected verbose to be rejected")
	}
	if _, err := Options("verbose", false); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "info", true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("shown", "pid", 42)

	entries := decodeEntries(t, buf.Bytes())
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d: %s", len(entries), buf.String())
	}
	if entries[0]["pid"] != float64(42) {
		t.Fatalf("expected pid field, got %+v", entries[0])
	}
}

func TestWithRunAddsField(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "info", true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	WithRun(logger, "run-1").Info("hello")

	entries := decodeEntries(t, buf.Bytes())
	if len(entries) != 1 || entries[0]["run_id"] != "run-1" {
		t.Fatalf("expected run_id field, got %s", buf.String())
	}
}

func TestWithRunSkipsEmpty(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "info", true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	WithRun(logger, "").Info("hello")

	entries := decodeEntries(t, buf.Bytes())
	if _, ok := entries[0]["run_id"]; ok {
		t.Fatalf("did not expect run_id, got %+v", entries[0])
	}
}

func decodeEntries(t *testing.T, data []byte) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(data), []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		entry := map[string]any{}
		if err := json.Unmarshal(line, &entry); err != nil {
			t.Fatalf("parse log entry %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}
