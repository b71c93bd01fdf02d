package logger

import (
	"context"

	"github.com/shopadmin/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

type contextKey string

const (
	// LoggerKey is the context key for the logger
	LoggerKey contextKey = "logger"
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"
	// ViewIDKey is the context key for the table view session ID
	ViewIDKey contextKey = "view_id"
	// ResourceKey is the context key for the admin resource name
	ResourceKey contextKey = "resource"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID adds request ID to context and returns enriched logger
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	return withValue(ctx, logger, RequestIDKey, requestID)
}

// WithViewID adds a table view ID to context and returns enriched logger
func WithViewID(ctx context.Context, logger *zap.Logger, viewID string) (context.Context, *zap.Logger) {
	return withValue(ctx, logger, ViewIDKey, viewID)
}

// WithResource adds an admin resource name to context and returns enriched logger
func WithResource(ctx context.Context, logger *zap.Logger, resource string) (context.Context, *zap.Logger) {
	return withValue(ctx, logger, ResourceKey, resource)
}

func withValue(ctx context.Context, logger *zap.Logger, key contextKey, value string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, key, value)
	enriched := logger.With(zap.String(string(key), value))
	return WithContext(ctx, enriched), enriched
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	return stringValue(ctx, RequestIDKey)
}

// GetViewID retrieves the table view ID from context
func GetViewID(ctx context.Context) string {
	return stringValue(ctx, ViewIDKey)
}

// GetResource retrieves the admin resource name from context
func GetResource(ctx context.Context) string {
	return stringValue(ctx, ResourceKey)
}

func stringValue(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}

// WithTraceContext adds trace_id and span_id from the context's span.
// Without a valid span the logger is returned unchanged.
func WithTraceContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	traceID := telemetry.GetTraceID(ctx)
	if traceID == "" {
		return logger
	}
	return logger.With(
		zap.String("trace_id", traceID),
		zap.String("span_id", telemetry.GetSpanID(ctx)),
	)
}

// ContextLogger logs with the trace and request fields found in its context
type ContextLogger struct {
	ctx    context.Context
	logger *zap.Logger
}

// L returns a ContextLogger over the logger stored in ctx.
// Usage: logger.L(ctx).Info("message", zap.String("key", "value"))
func L(ctx context.Context) *ContextLogger {
	return &ContextLogger{
		ctx:    ctx,
		logger: FromContext(ctx),
	}
}

// WithLogger returns a ContextLogger using the provided logger instead of
// the one stored in ctx
func WithLogger(ctx context.Context, logger *zap.Logger) *ContextLogger {
	return &ContextLogger{
		ctx:    ctx,
		logger: logger,
	}
}

// enrichedLogger adds trace ids and the view and resource fields. The request
// ID is not repeated: the request logger stored by GinMiddleware already has it.
func (cl *ContextLogger) enrichedLogger() *zap.Logger {
	l := cl.logger
	if l == nil {
		l = zap.NewNop()
	}
	l = WithTraceContext(cl.ctx, l)
	if id := GetViewID(cl.ctx); id != "" {
		l = l.With(zap.String("view_id", id))
	}
	if res := GetResource(cl.ctx); res != "" {
		l = l.With(zap.String("resource", res))
	}
	return l
}

// With creates a child ContextLogger with additional fields
func (cl *ContextLogger) With(fields ...zap.Field) *ContextLogger {
	base := cl.logger
	if base == nil {
		base = zap.NewNop()
	}
	return &ContextLogger{
		ctx:    cl.ctx,
		logger: base.With(fields...),
	}
}

// Debug logs a debug level message with trace context
func (cl *ContextLogger) Debug(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Debug(msg, fields...)
}

// Info logs an info level message with trace context
func (cl *ContextLogger) Info(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Info(msg, fields...)
}

// Warn logs a warning level message with trace context
func (cl *ContextLogger) Warn(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Warn(msg, fields...)
}

// Error logs an error level message with trace context
func (cl *ContextLogger) Error(msg string, fields ...zap.Field) {
	cl.enrichedLogger().Error(msg, fields...)
}

// Zap returns the underlying zap.Logger enriched with trace context
func (cl *ContextLogger) Zap() *zap.Logger {
	return cl.enrichedLogger()
}
