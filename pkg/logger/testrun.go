package logger

import (
	"io"
	"log/slog"
)

// NewTestHandler discards all output; tests only care that logging does not panic.
func NewTestHandler(level slog.Level) slog.Handler {
	return slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: level})
}
