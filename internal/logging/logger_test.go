package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{"info", "info", slog.LevelInfo},
		{"debug", "debug", slog.LevelDebug},
		{"trace", "trace", LevelTrace},
		{"uppercase DEBUG", "DEBUG", slog.LevelDebug},
		{"mixed case Trace", "Trace", LevelTrace},
		{"unknown defaults to info", "verbose", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level      string
		logAtTrace bool
		logAtDebug bool
	}{
		{"info", false, false},
		{"debug", false, true},
		{"trace", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, &buf)

			logger.Log(context.Background(), LevelTrace, "walker step")
			if got := strings.Contains(buf.String(), "walker step"); got != tt.logAtTrace {
				t.Errorf("trace visible = %v, want %v (buf: %q)", got, tt.logAtTrace, buf.String())
			}

			buf.Reset()
			logger.Debug("tick complete")
			if got := strings.Contains(buf.String(), "tick complete"); got != tt.logAtDebug {
				t.Errorf("debug visible = %v, want %v (buf: %q)", got, tt.logAtDebug, buf.String())
			}

			buf.Reset()
			logger.Info("world created")
			if !strings.Contains(buf.String(), "world created") {
				t.Errorf("info should always be visible, buf: %q", buf.String())
			}
		})
	}
}

func TestNewLogger_TraceLabel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("trace", &buf)
	logger.Log(context.Background(), LevelTrace, "walker step")

	if !strings.Contains(buf.String(), "level=TRACE") {
		t.Errorf("expected level=TRACE, got %q", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("Discard logger should not be enabled at error level")
	}
}

func TestNewDecisionLogger_InfoLevel(t *testing.T) {
	dir := t.TempDir()
	dl := NewDecisionLogger(dir, "info")
	if dl != nil {
		t.Error("expected nil DecisionLogger at info level")
	}

	dl.Log(map[string]any{"event": "walker_step"})
	dl.Close()

	if _, err := os.Stat(filepath.Join(dir, DecisionsFile)); err == nil {
		t.Errorf("%s should not exist at info level", DecisionsFile)
	}
}

func TestNewDecisionLogger_WritesJSONL(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "out", "run-1")

	dl := NewDecisionLogger(dir, "debug")
	if dl == nil {
		t.Fatal("expected non-nil DecisionLogger at debug level")
	}
	dl.Log(map[string]any{"event": "walker_step", "walker": 3, "score": 4.25})
	dl.Log(map[string]any{"event": "walker_step", "walker": 4, "score": 5.5})
	dl.Close()

	path := filepath.Join(dir, DecisionsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", DecisionsFile, err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), string(data))
	}

	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("failed to parse line: %v", err)
	}
	if first["walker"] != float64(3) {
		t.Errorf("walker = %v, want 3", first["walker"])
	}
	if first["score"] != 4.25 {
		t.Errorf("score = %v, want 4.25", first["score"])
	}
	if _, ok := first["time"]; !ok {
		t.Error("expected 'time' field in decision entry")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}
}

func TestDecisionWriter(t *testing.T) {
	var buf bytes.Buffer
	dl := NewDecisionWriter(&buf)
	dl.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	event := map[string]any{"event": "walker_step"}
	dl.Log(event)

	if _, hasTime := event["time"]; hasTime {
		t.Error("Log() should not mutate caller's map")
	}
	if !strings.Contains(buf.String(), `"time":"2024-05-01T12:00:00Z"`) {
		t.Errorf("unexpected entry: %q", buf.String())
	}

	dl.Close()
	buf.Reset()
	dl.Log(map[string]any{"event": "after_close"})
	if buf.Len() != 0 {
		t.Errorf("Log after Close wrote %q", buf.String())
	}
}

func TestDecisionLogger_NilSafety(t *testing.T) {
	var dl *DecisionLogger
	dl.Log(map[string]any{"event": "should_not_panic"})
	dl.Close()
}
