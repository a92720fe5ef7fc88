package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/campusnav/campus-navigator-go/internal/ctxutil"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log %q: %v", buf.String(), err)
	}
	return entry
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewWithWriter_KeyNames(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWithWriter("debug", &buf)
	log.Warn("disk almost full")

	entry := decodeLine(t, &buf)
	if entry["level"] != "warning" {
		t.Errorf("level = %v, want warning", entry["level"])
	}
	if entry["message"] != "disk almost full" {
		t.Errorf("message = %v, want 'disk almost full'", entry["message"])
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Errorf("timestamp key missing: %v", entry)
	}
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWithWriter("error", &buf)
	log.Info("ignored")

	if buf.Len() != 0 {
		t.Errorf("info record should be filtered at error level, got %s", buf.String())
	}
}

func TestLogger_Fields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWithWriter("info", &buf).
		WithModule("resolver").
		WithRequestID("req-1").
		WithError(errors.New("boom")).
		WithFields(map[string]any{"kind": "route"})

	log.Info("resolved")

	entry := decodeLine(t, &buf)
	want := map[string]string{
		"module":     "resolver",
		"request_id": "req-1",
		"error":      "boom",
		"kind":       "route",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %q", k, entry[k], v)
		}
	}
}

func TestLogger_ContextValues(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	ctx := ctxutil.WithRequestID(context.Background(), "req-ctx")
	ctx = ctxutil.WithClientIP(ctx, "127.0.0.1")
	log.InfoContext(ctx, "handled")

	entry := decodeLine(t, &buf)
	if entry["request_id"] != "req-ctx" {
		t.Errorf("request_id = %v, want req-ctx", entry["request_id"])
	}
	if entry["client_ip"] != "127.0.0.1" {
		t.Errorf("client_ip = %v, want 127.0.0.1", entry["client_ip"])
	}
}

func TestLogger_ShutdownWithoutRemoteSink(t *testing.T) {
	t.Parallel()

	log := NewWithWriter("info", &bytes.Buffer{})
	if err := log.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v, want nil", err)
	}

	var nilLogger *Logger
	if err := nilLogger.Shutdown(context.Background()); err != nil {
		t.Errorf("nil Shutdown() error = %v, want nil", err)
	}
}
