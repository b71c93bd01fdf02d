package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func spanContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestFromContext(t *testing.T) {
	logger := zap.NewExample()
	ctx := WithContext(context.Background(), logger)

	assert.Same(t, logger, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
	assert.NotNil(t, FromContext(context.WithValue(context.Background(), LoggerKey, "not a logger")))
}

func TestContextValues(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx, l := WithRequestID(context.Background(), base, "req-1")
	ctx, l = WithResource(ctx, l, "products")
	ctx, l = WithViewID(ctx, l, "view-9")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "products", GetResource(ctx))
	assert.Equal(t, "view-9", GetViewID(ctx))
	assert.Same(t, l, FromContext(ctx))

	l.Info("hello")
	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "products", fields["resource"])
	assert.Equal(t, "view-9", fields["view_id"])
}

func TestContextValues_Missing(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetResource(ctx))
	assert.Empty(t, GetViewID(ctx))
}

func TestWithTraceContext(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	assert.Same(t, base, WithTraceContext(context.Background(), base))

	WithTraceContext(spanContext(t), base).Info("traced")
	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", fields["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", fields["span_id"])
}

func TestContextLogger_Enriches(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	ctx := WithContext(spanContext(t), base)
	ctx = context.WithValue(ctx, ViewIDKey, "view-1")
	ctx = context.WithValue(ctx, ResourceKey, "orders")

	L(ctx).With(zap.Int("page", 2)).Warn("fetch slow")

	entries := recorded.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "view-1", fields["view_id"])
	assert.Equal(t, "orders", fields["resource"])
	assert.Equal(t, int64(2), fields["page"])
	assert.NotEmpty(t, fields["trace_id"])
}

func TestContextLogger_Levels(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	cl := WithLogger(context.Background(), zap.New(core))

	cl.Debug("d")
	cl.Info("i")
	cl.Warn("w")
	cl.Error("e")
	assert.NotNil(t, cl.Zap())

	require.Equal(t, 4, recorded.Len())
	for _, e := range recorded.All() {
		assert.Empty(t, e.ContextMap(), "no context fields without a span or view")
	}
}

func TestContextLogger_NilLogger(t *testing.T) {
	cl := WithLogger(context.Background(), nil)

	assert.NotPanics(t, func() {
		cl.Info("dropped")
		cl.With(zap.String("k", "v")).Error("dropped")
	})
}
