package logger

import (
	"log/slog"
	"os"
	"strings"
)

func New(level string, handler func(level slog.Level) slog.Handler) *slog.Logger {
	h := handler(ParseLevel(level))
	return slog.New(h)
}

// NewTextHandler is the human readable handler used for local runs.
func NewTextHandler(level slog.Level) slog.Handler {
	return slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
}

// HandlerFor picks the handler factory for a LOGFORMAT value.
func HandlerFor(format string) func(level slog.Level) slog.Handler {
	if strings.EqualFold(format, "text") {
		return NewTextHandler
	}
	return NewCloudRunHandler
}

// ---- Helpers ----
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
