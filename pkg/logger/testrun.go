package logger

import (
	"io"
	"log/slog"
	"os"
)

func NewTestHandler(level slog.Level) slog.Handler {
	return slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: level})
}

// NewConsoleHandler writes human-readable lines to stderr, for CLI use.
func NewConsoleHandler(level slog.Level) slog.Handler {
	return slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
}
