package logger

import (
	"context"
	"log/slog"
)

// contextKey is used to store the logger in context
type contextKey string

const loggerKey contextKey = "logger"

// ToContext stores a logger in the context
func ToContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger from context, falling back to
// slog.Default so callers never get nil.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// With adds attributes to the context logger and stores the result back, so
// everything downstream of the auth middleware or a scheduler tick logs them:
//
//	_, ctx = logger.With(ctx, "uid", token.UID)
//	next.ServeHTTP(w, r.WithContext(ctx))
func With(ctx context.Context, args ...any) (*slog.Logger, context.Context) {
	logger := FromContext(ctx).With(args...)
	return logger, ToContext(ctx, logger)
}
