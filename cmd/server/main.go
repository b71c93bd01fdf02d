package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopadmin/backend/internal/application/listing"
	"github.com/shopadmin/backend/internal/application/pricing"
	"github.com/shopadmin/backend/internal/application/tableview"
	"github.com/shopadmin/backend/internal/domain/catalog"
	"github.com/shopadmin/backend/internal/infrastructure/cache"
	"github.com/shopadmin/backend/internal/infrastructure/config"
	"github.com/shopadmin/backend/internal/infrastructure/logger"
	"github.com/shopadmin/backend/internal/infrastructure/telemetry"
	"github.com/shopadmin/backend/internal/infrastructure/upstream"
	"github.com/shopadmin/backend/internal/interfaces/http/handler"
	"github.com/shopadmin/backend/internal/interfaces/http/middleware"
	"github.com/shopadmin/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

//	@title			Shop Admin API
//	@version		1.0
//	@description	Admin dashboard backend: URL-synchronized resource tables, row CRUD and pricing configuration

//	@BasePath	/api/v1

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
		Fields: map[string]string{"service": cfg.App.Name, "env": cfg.App.Env},
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting shop admin",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", cfg.App.Version),
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	ctx := context.Background()
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		_ = tp.Shutdown(context.Background())
	}()

	pages, err := cache.NewPageCacheFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.Cache.RequireRedis),
	).CreateCache()
	if err != nil {
		log.Fatal("Failed to create page cache", zap.Error(err))
	}
	defer func() {
		if err := pages.Close(); err != nil {
			log.Error("Error closing page cache", zap.Error(err))
		}
	}()

	api, err := upstream.NewClient(upstream.Config{
		BaseURL:         cfg.Upstream.BaseURL,
		Token:           cfg.Upstream.Token,
		Timeout:         cfg.Upstream.Timeout,
		MaxResponseSize: cfg.Upstream.MaxResponseSize,
	}, upstream.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to create upstream client", zap.Error(err))
	}

	listingOpts := []listing.Option{listing.WithLogger(log)}
	if cfg.Cache.Enabled {
		listingOpts = append(listingOpts, listing.WithCache(pages, cfg.Cache.PageTTL))
	}
	listings := listing.NewService(api, listingOpts...)

	sessions := tableview.NewSessionService(catalog.Resolve, listings, tableview.ServiceConfig{
		IdleTTL:          cfg.Table.IdleTTL,
		SweepInterval:    cfg.Table.SweepInterval,
		MaxSessions:      cfg.Table.MaxSessions,
		DebounceWindow:   cfg.Table.DebounceWindow,
		SubscriberBuffer: tableview.DefaultServiceConfig().SubscriberBuffer,
		FetchTimeout:     cfg.Table.FetchTimeout,
	}, tableview.WithServiceLogger(log))
	defer sessions.Shutdown()

	events := handler.NewViewEventsHandler(sessions,
		handler.WithSSELogger(log),
		handler.WithSSEHeartbeat(cfg.Table.SSEHeartbeat),
		handler.WithSSEMaxClients(cfg.Table.SSEMaxClients),
	)

	engine, err := router.NewEngine(router.EngineConfig{
		HTTP:           cfg.HTTP,
		Production:     cfg.IsProduction(),
		Logger:         log,
		TracingEnabled: cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
	})
	if err != nil {
		log.Fatal("Failed to create HTTP engine", zap.Error(err))
	}
	defer engine.Close()

	router.Mount(engine, router.Handlers{
		Admin:  handler.NewAdminHandler(listings),
		Views:  handler.NewViewHandler(sessions),
		Events: events,
		Config: handler.NewConfigHandler(pricing.NewService(api, log)),
		System: handler.NewSystemHandler(cfg.App.Name, cfg.App.Version,
			handler.WithHealthCheck("cache", func(ctx context.Context) error {
				return cache.Ping(ctx, pages)
			}),
		),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// streams never finish on their own
	events.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
