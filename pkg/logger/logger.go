package logger

import (
	"log/slog"
	"strings"
)

// New builds a logger from a level name ("debug", "info", "warn", "error")
// and a handler constructor such as NewCloudRunHandler or NewConsoleHandler.
func New(level string, handler func(level slog.Level) slog.Handler) *slog.Logger {
	h := handler(ParseLevel(level))
	return slog.New(h)
}

// ParseLevel defaults to info for unknown names.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
