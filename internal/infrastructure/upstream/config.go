package upstream

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds one upstream request
	DefaultTimeout = 15 * time.Second
	// DefaultMaxResponseSize caps the bytes read from one response (10MB)
	DefaultMaxResponseSize = 10 * 1024 * 1024
)

// Errors for upstream configuration
var (
	ErrConfigMissingBaseURL = errors.New("upstream: base URL is required")
	ErrConfigInvalidBaseURL = errors.New("upstream: base URL must be an absolute http(s) URL")
)

// Config holds the connection settings of the remote REST API
type Config struct {
	// BaseURL is the API root, e.g. https://api.example.com/v1
	BaseURL string
	// Token is sent as a bearer token when set
	Token string
	// Timeout bounds each request
	Timeout time.Duration
	// MaxResponseSize caps response bodies
	MaxResponseSize int64
}

// Validate checks the configuration and fills in defaults
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrConfigInvalidBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxResponseSize <= 0 {
		c.MaxResponseSize = DefaultMaxResponseSize
	}
	return nil
}
