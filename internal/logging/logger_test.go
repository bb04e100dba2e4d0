package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInit_JSON(t *testing.T) {
	defer Init(DefaultConfig())

	var buf bytes.Buffer
	Init(Config{Level: "warn", Format: "json", Output: &buf})

	Info().Msg("hidden")
	Warn().Str("component", "ranker").Msg("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["message"] != "shown" || entry["component"] != "ranker" || entry["level"] != "warn" {
		t.Errorf("entry = %v", entry)
	}
}

func TestCtx_RequestID(t *testing.T) {
	defer Init(DefaultConfig())

	var buf bytes.Buffer
	Init(Config{Level: "info", Format: "json", Output: &buf})

	ctx := WithRequestID(context.Background(), "req-42")
	l := Ctx(ctx)
	l.Info().Msg("handled")

	if !strings.Contains(buf.String(), `"request_id":"req-42"`) {
		t.Errorf("log output %q lacks request id", buf.String())
	}
}
