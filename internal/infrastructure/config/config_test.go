package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirTemp runs the test in an empty directory so no config.toml is found
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "shop-admin", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "http://localhost:4000/api", cfg.Upstream.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Cache.PageTTL)
	assert.Equal(t, 500*time.Millisecond, cfg.Table.DebounceWindow)
	assert.Equal(t, 30*time.Minute, cfg.Table.IdleTTL)
	assert.Equal(t, 1000, cfg.Table.MaxSessions)
	assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
	assert.Empty(t, cfg.HTTP.CORSAllowOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("SHOP_APP_PORT", "9000")
	t.Setenv("SHOP_UPSTREAM_BASE_URL", "https://api.shop.test/v2")
	t.Setenv("SHOP_UPSTREAM_TOKEN", "tok")
	t.Setenv("SHOP_REDIS_ENABLED", "true")
	t.Setenv("SHOP_REDIS_PORT", "6380")
	t.Setenv("SHOP_TABLE_DEBOUNCE_WINDOW", "250ms")
	t.Setenv("SHOP_CACHE_PAGE_TTL", "1m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, "https://api.shop.test/v2", cfg.Upstream.BaseURL)
	assert.Equal(t, "tok", cfg.Upstream.Token)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 6380, cfg.Redis.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Table.DebounceWindow)
	assert.Equal(t, time.Minute, cfg.Cache.PageTTL)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := chdirTemp(t)
	content := `
[app]
name = "from-file"

[upstream]
base_url = "http://upstream.local:8081"

[table]
max_sessions = 12
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600))
	t.Setenv("SHOP_TABLE_MAX_SESSIONS", "20")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.App.Name)
	assert.Equal(t, "http://upstream.local:8081", cfg.Upstream.BaseURL)
	assert.Equal(t, 20, cfg.Table.MaxSessions, "environment wins over the file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid development",
			mutate: func(c *Config) {},
		},
		{
			name:    "relative upstream",
			mutate:  func(c *Config) { c.Upstream.BaseURL = "/api" },
			wantErr: "upstream.base_url",
		},
		{
			name:    "negative debounce",
			mutate:  func(c *Config) { c.Table.DebounceWindow = -time.Second },
			wantErr: "table.debounce_window",
		},
		{
			name:    "require redis without redis",
			mutate:  func(c *Config) { c.Cache.RequireRedis = true },
			wantErr: "cache.require_redis",
		},
		{
			name: "production without token",
			mutate: func(c *Config) {
				c.App.Env = "production"
				c.Upstream.BaseURL = "https://api.shop.test"
			},
			wantErr: "upstream.token",
		},
		{
			name: "production over http",
			mutate: func(c *Config) {
				c.App.Env = "production"
				c.Upstream.Token = "tok"
			},
			wantErr: "https",
		},
		{
			name: "production wildcard cors",
			mutate: func(c *Config) {
				c.App.Env = "production"
				c.Upstream.Token = "tok"
				c.Upstream.BaseURL = "https://api.shop.test"
				c.HTTP.CORSAllowOrigins = []string{"*"}
			},
			wantErr: "cors_allow_origins",
		},
		{
			name:    "sampling ratio",
			mutate:  func(c *Config) { c.Telemetry.SamplingRatio = 1.5 },
			wantErr: "sampling_ratio",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			applyDefaults(cfg)
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
