package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("json respects level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&buf, slog.LevelWarn, JSON)
		logger.Info("hidden")
		logger.Warn("shown", "wallet_id", "w1")

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 1 {
			t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
			t.Fatalf("not JSON: %v", err)
		}
		if rec["msg"] != "shown" || rec["wallet_id"] != "w1" {
			t.Errorf("unexpected record: %v", rec)
		}
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		New(&buf, slog.LevelInfo, Text).Info("hello", "owner_id", "o1")
		if !strings.Contains(buf.String(), "hello") || !strings.Contains(buf.String(), "o1") {
			t.Errorf("unexpected output: %q", buf.String())
		}
	})
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"json": JSON, " JSON ": JSON, "text": Text, "": Text, "yaml": Text} {
		if got := ParseFormat(in); got != want {
			t.Errorf("ParseFormat(%q) = %q, want %q", in, got, want)
		}
	}
}
