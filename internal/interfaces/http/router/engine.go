package router

import (
	"github.com/gin-gonic/gin"
	"github.com/shopadmin/backend/internal/infrastructure/config"
	"github.com/shopadmin/backend/internal/infrastructure/logger"
	"github.com/shopadmin/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// HealthPath is served outside the versioned API for load balancer probes
const HealthPath = "/health"

// EngineConfig holds what the middleware chain needs
type EngineConfig struct {
	HTTP           config.HTTPConfig
	Production     bool
	Logger         *zap.Logger
	TracingEnabled bool
	ServiceName    string
	// TracingOptions are passed to otelgin, e.g. a tracer provider in tests
	TracingOptions []otelgin.Option
}

// Engine is the configured gin engine plus the resources it owns
type Engine struct {
	*gin.Engine
	limiter *middleware.RateLimiter
}

// Close stops background work started for the engine
func (e *Engine) Close() {
	if e.limiter != nil {
		e.limiter.Stop()
	}
}

// NewEngine creates a gin engine with the middleware chain:
// request id, logging, recovery, security headers, CORS, body limit,
// rate limit and tracing
func NewEngine(cfg EngineConfig) (*Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, err
	}

	security := middleware.DefaultSecurityConfig()
	security.HSTSEnabled = cfg.Production

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddlewareWithConfig(log, logger.GinConfig{SkipPaths: []string{HealthPath}}),
		logger.Recovery(log),
		middleware.SecureWithConfig(security),
		middleware.CORSWithConfig(cors),
	)
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}

	e := &Engine{Engine: engine}
	if cfg.HTTP.RateLimitEnabled {
		e.limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(e.limiter))
	}

	tracing := middleware.DefaultTracingConfig()
	tracing.Enabled = cfg.TracingEnabled
	if cfg.ServiceName != "" {
		tracing.ServiceName = cfg.ServiceName
	}
	tracing.Options = cfg.TracingOptions
	engine.Use(middleware.TracingWithConfig(tracing), middleware.SpanEnricher())

	return e, nil
}

// Mount registers the dashboard routes on the engine
func Mount(e *Engine, h Handlers) {
	e.GET(HealthPath, h.System.Health)
	NewRouter(e.Engine, WithAPIVersion("v1")).
		Register(SystemRoutes(h), AdminRoutes(h)).
		Setup()
}
