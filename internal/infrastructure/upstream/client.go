// Package upstream is the HTTP client of the remote REST API that owns the
// shop's data.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopadmin/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Errors returned by the client
var (
	ErrUnavailable     = errors.New("upstream: service unavailable")
	ErrRequestFailed   = errors.New("upstream: request failed")
	ErrNotFound        = errors.New("upstream: not found")
	ErrInvalidResponse = errors.New("upstream: invalid response")
)

// StatusError is an HTTP error answered by the API
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream: HTTP %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps the status to ErrNotFound, ErrUnavailable or ErrRequestFailed
func (e *StatusError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode >= 500:
		return ErrUnavailable
	default:
		return ErrRequestFailed
	}
}

// ListResult is one page of a collection
type ListResult struct {
	Data      []json.RawMessage `json:"data"`
	PageCount int               `json:"pageCount"`
	Total     int64             `json:"total"`
}

// Client talks to the remote REST API
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the client logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient validates cfg and creates a client
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// List fetches one page of the collection at path
func (c *Client) List(ctx context.Context, path string, params url.Values) (*ListResult, error) {
	var out ListResult
	if err := c.do(ctx, http.MethodGet, path, params, nil, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		out.Data = []json.RawMessage{}
	}
	return &out, nil
}

// Get fetches one item
func (c *Client) Get(ctx context.Context, path, id string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, http.MethodGet, itemPath(path, id), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create posts a new item and returns the stored representation
func (c *Client) Create(ctx context.Context, path string, body json.RawMessage) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, http.MethodPost, path, nil, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces an item and returns the stored representation
func (c *Client) Update(ctx context.Context, path, id string, body json.RawMessage) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, http.MethodPut, itemPath(path, id), nil, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes an item
func (c *Client) Delete(ctx context.Context, path, id string) error {
	return c.do(ctx, http.MethodDelete, itemPath(path, id), nil, nil, nil)
}

// GetConfig decodes the configuration document key into out
func (c *Client) GetConfig(ctx context.Context, key string, out any) error {
	return c.do(ctx, http.MethodGet, configPath(key), nil, nil, out)
}

// PutConfig replaces the configuration document key
func (c *Client) PutConfig(ctx context.Context, key string, in any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("upstream: failed to encode %s config: %w", key, err)
	}
	return c.do(ctx, http.MethodPut, configPath(key), nil, body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body []byte, out any) error {
	ctx, span := telemetry.StartSpan(ctx, "upstream "+method,
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute("http.request.method", method),
		telemetry.WithAttribute("url.path", path),
	)
	defer span.End()

	err := c.roundTrip(ctx, method, path, params, body, out)
	if err != nil {
		telemetry.RecordError(span, err)
		c.logger.Debug("Upstream request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, params url.Values, body []byte, out any) error {
	target := c.config.BaseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("upstream: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxResponseSize+1))
	if err != nil {
		return fmt.Errorf("upstream: failed to read response: %w", err)
	}
	if int64(len(data)) > c.config.MaxResponseSize {
		return fmt.Errorf("%w: response exceeds %d bytes", ErrInvalidResponse, c.config.MaxResponseSize)
	}

	if resp.StatusCode >= 400 {
		return &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// errorMessage extracts {"message": ...} or {"error": ...} from an error body
func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	msg := strings.TrimSpace(string(data))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

func itemPath(path, id string) string {
	return path + "/" + url.PathEscape(id)
}

func configPath(key string) string {
	return "/config/" + url.PathEscape(key)
}
