package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopadmin/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware
type TracingConfig struct {
	ServiceName string
	Enabled     bool
	// Options are passed to otelgin, e.g. a tracer provider in tests
	Options []otelgin.Option
}

// DefaultTracingConfig returns default tracing configuration
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "shop-admin",
		Enabled:     true,
	}
}

// TracingWithConfig returns the otelgin middleware, which runs the rest of
// the chain inside a server span named after the route
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return otelgin.Middleware(cfg.ServiceName, cfg.Options...)
}

// SpanEnricher annotates the request span. It must run after TracingWithConfig
// so the span exists, and marks the span failed once the handler answered 5xx.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}

		if id := GetRequestID(c); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}
		if res := c.Param("resource"); res != "" {
			span.SetAttributes(attribute.String(telemetry.SpanAttrResource, res))
		}
		if id := c.Param("id"); id != "" && c.Param("resource") == "" {
			span.SetAttributes(attribute.String(telemetry.SpanAttrViewID, id))
		}

		c.Next()

		if status := c.Writer.Status(); status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
