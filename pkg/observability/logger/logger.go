// Package logger provides structured logging for the service. All log
// methods take a message followed by alternating key-value pairs.
package logger

import "context"

// Logger is the logging contract used throughout the service.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// With returns a child logger whose entries always carry the given
	// key-value pairs.
	With(args ...any) Logger

	// WithContext returns a child logger annotated with the request ID
	// from ctx, when one is present.
	WithContext(ctx context.Context) Logger
}

type ctxKey int

const requestIDKey ctxKey = iota

// ContextWithRequestID stores a request ID for later extraction by
// WithContext.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request ID stored in ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
