// Package logging installs the process-wide slog handler.
//
// Usage:
//
//	logging.Setup(cfg.Level(), logging.Text)  // colored, for terminals
//	logging.Setup(slog.LevelInfo, logging.JSON)
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Format selects the handler.
type Format string

const (
	Text Format = "text"
	JSON Format = "json"
)

// ParseFormat maps LOG_FORMAT values; anything but "json" is Text.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), string(JSON)) {
		return JSON
	}
	return Text
}

// Setup makes a logger at level the default and returns it.
func Setup(level slog.Level, format Format) *slog.Logger {
	logger := New(os.Stderr, level, format)
	slog.SetDefault(logger)
	return logger
}

// New builds a logger writing to w.
func New(w io.Writer, level slog.Level, format Format) *slog.Logger {
	if format == JSON {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		AddSource:  level <= slog.LevelDebug,
	}))
}
