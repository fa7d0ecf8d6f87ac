package logging

import "context"

// NoOpLogger discards all logs. Useful for tests.
type NoOpLogger struct{}

// NewNoOpLogger creates a logger that discards everything.
func NewNoOpLogger() Logger {
	return &NoOpLogger{}
}

// Debug is a no-op.
func (n *NoOpLogger) Debug(msg string, fields ...interface{}) {}

// Info is a no-op.
func (n *NoOpLogger) Info(msg string, fields ...interface{}) {}

// Warn is a no-op.
func (n *NoOpLogger) Warn(msg string, fields ...interface{}) {}

// Error is a no-op.
func (n *NoOpLogger) Error(msg string, fields ...interface{}) {}

// DebugContext is a no-op.
func (n *NoOpLogger) DebugContext(ctx context.Context, msg string, fields ...interface{}) {}

// InfoContext is a no-op.
func (n *NoOpLogger) InfoContext(ctx context.Context, msg string, fields ...interface{}) {}

// WarnContext is a no-op.
func (n *NoOpLogger) WarnContext(ctx context.Context, msg string, fields ...interface{}) {}

// ErrorContext is a no-op.
func (n *NoOpLogger) ErrorContext(ctx context.Context, msg string, fields ...interface{}) {}

// WithTraceID returns the same no-op logger.
func (n *NoOpLogger) WithTraceID(traceID string) Logger { return n }

// WithComponent returns the same no-op logger.
func (n *NoOpLogger) WithComponent(component string) Logger { return n }
