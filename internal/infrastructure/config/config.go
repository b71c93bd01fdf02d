package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Upstream  UpstreamConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Table     TableConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name    string
	Env     string
	Port    string
	Version string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
}

// UpstreamConfig holds the remote REST API settings
type UpstreamConfig struct {
	BaseURL         string
	Token           string
	Timeout         time.Duration
	MaxResponseSize int64
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// CacheConfig holds list page caching settings
type CacheConfig struct {
	Enabled      bool
	PageTTL      time.Duration
	RequireRedis bool // fail startup instead of falling back to memory
}

// TableConfig holds the table view session settings
type TableConfig struct {
	DebounceWindow time.Duration
	IdleTTL        time.Duration
	SweepInterval  time.Duration
	MaxSessions    int
	FetchTimeout   time.Duration
	SSEHeartbeat   time.Duration
	SSEMaxClients  int
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string  // e.g. localhost:4317
	SamplingRatio     float64 // 0.0-1.0
	ServiceName       string
	Insecure          bool // development only
}

// Load reads config.toml and SHOP_ prefixed environment variables
// (e.g. SHOP_UPSTREAM_TOKEN). Environment wins over the file, the file wins
// over built-in defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("SHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:    v.GetString("app.name"),
			Env:     v.GetString("app.env"),
			Port:    v.GetString("app.port"),
			Version: v.GetString("app.version"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Upstream: UpstreamConfig{
			BaseURL:         v.GetString("upstream.base_url"),
			Token:           v.GetString("upstream.token"),
			Timeout:         v.GetDuration("upstream.timeout"),
			MaxResponseSize: v.GetInt64("upstream.max_response_size"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Cache: CacheConfig{
			Enabled:      v.GetBool("cache.enabled"),
			PageTTL:      v.GetDuration("cache.page_ttl"),
			RequireRedis: v.GetBool("cache.require_redis"),
		},
		Table: TableConfig{
			DebounceWindow: v.GetDuration("table.debounce_window"),
			IdleTTL:        v.GetDuration("table.idle_ttl"),
			SweepInterval:  v.GetDuration("table.sweep_interval"),
			MaxSessions:    v.GetInt("table.max_sessions"),
			FetchTimeout:   v.GetDuration("table.fetch_timeout"),
			SSEHeartbeat:   v.GetDuration("table.sse_heartbeat"),
			SSEMaxClients:  v.GetInt("table.sse_max_clients"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "shop-admin"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.App.Version == "" {
		cfg.App.Version = "dev"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	// SSE streams stay open, the write deadline is cleared per stream
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 2 << 20
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 300
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	// no CORS origin default: cross-origin requests stay blocked until configured
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID", "Last-Event-ID"}
	}
	if cfg.Upstream.BaseURL == "" {
		cfg.Upstream.BaseURL = "http://localhost:4000/api"
	}
	if cfg.Upstream.Timeout == 0 {
		cfg.Upstream.Timeout = 15 * time.Second
	}
	if cfg.Upstream.MaxResponseSize == 0 {
		cfg.Upstream.MaxResponseSize = 10 << 20
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Cache.PageTTL == 0 {
		cfg.Cache.PageTTL = 30 * time.Second
	}
	if cfg.Table.DebounceWindow == 0 {
		cfg.Table.DebounceWindow = 500 * time.Millisecond
	}
	if cfg.Table.IdleTTL == 0 {
		cfg.Table.IdleTTL = 30 * time.Minute
	}
	if cfg.Table.SweepInterval == 0 {
		cfg.Table.SweepInterval = time.Minute
	}
	if cfg.Table.MaxSessions == 0 {
		cfg.Table.MaxSessions = 1000
	}
	if cfg.Table.FetchTimeout == 0 {
		cfg.Table.FetchTimeout = 10 * time.Second
	}
	if cfg.Table.SSEHeartbeat == 0 {
		cfg.Table.SSEHeartbeat = 30 * time.Second
	}
	if cfg.Table.SSEMaxClients == 0 {
		cfg.Table.SSEMaxClients = 5000
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "shop-admin"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("upstream.base_url must be an absolute http(s) URL, got %q", c.Upstream.BaseURL)
	}
	if c.Table.DebounceWindow < 0 {
		return fmt.Errorf("table.debounce_window cannot be negative")
	}
	if c.Table.MaxSessions < 0 {
		return fmt.Errorf("table.max_sessions cannot be negative")
	}
	if c.Cache.PageTTL < 0 {
		return fmt.Errorf("cache.page_ttl cannot be negative")
	}
	if c.Cache.RequireRedis && !c.Redis.Enabled {
		return fmt.Errorf("cache.require_redis needs redis.enabled")
	}

	if c.App.Env == "production" {
		if c.Upstream.Token == "" {
			return fmt.Errorf("upstream.token is required in production")
		}
		if u.Scheme != "https" {
			return fmt.Errorf("upstream.base_url must use https in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	return nil
}

// IsProduction reports whether the app runs in production
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
