// Package listing loads admin list pages through the page cache and proxies
// single-row writes to the upstream API.
package listing

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/shopadmin/backend/internal/domain/catalog"
	"github.com/shopadmin/backend/internal/domain/table"
	"github.com/shopadmin/backend/internal/infrastructure/cache"
	"github.com/shopadmin/backend/internal/infrastructure/telemetry"
	"github.com/shopadmin/backend/internal/infrastructure/upstream"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Upstream is the part of the remote API the service uses
type Upstream interface {
	List(ctx context.Context, path string, params url.Values) (*upstream.ListResult, error)
	Get(ctx context.Context, path, id string) (json.RawMessage, error)
	Create(ctx context.Context, path string, body json.RawMessage) (json.RawMessage, error)
	Update(ctx context.Context, path, id string, body json.RawMessage) (json.RawMessage, error)
	Delete(ctx context.Context, path, id string) error
}

// Service serves list pages and row writes for the admin resources
type Service struct {
	api     Upstream
	pages   cache.PageCache
	ttl     time.Duration
	logger  *zap.Logger
	resolve func(name string) (catalog.Resource, error)
	// misses for the same page share one upstream call
	inflight singleflight.Group
}

// Option configures a Service
type Option func(*Service)

// WithCache enables page caching for ttl
func WithCache(pages cache.PageCache, ttl time.Duration) Option {
	return func(s *Service) {
		s.pages = pages
		s.ttl = ttl
	}
}

// WithLogger sets the service logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a listing service over the upstream API
func NewService(api Upstream, opts ...Option) *Service {
	s := &Service{
		api:     api,
		logger:  zap.NewNop(),
		resolve: catalog.Lookup,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns the page of resource described by state
func (s *Service) List(ctx context.Context, resource string, state table.State) (*table.Page, error) {
	res, err := s.resolve(resource)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "listing", "list",
		telemetry.WithAttribute(telemetry.SpanAttrResource, resource),
		telemetry.WithAttribute(telemetry.SpanAttrPage, state.Page()),
		telemetry.WithAttribute(telemetry.SpanAttrPageSize, state.PageSize),
	)
	defer span.End()

	params := table.FetchParams(res.WithDefaultSort(state))
	key := cache.Key(resource, params.Encode())

	if page, ok := s.cached(ctx, key); ok {
		telemetry.SetAttributes(span, telemetry.SpanAttrCacheHit, true)
		return page, nil
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrCacheHit, false)

	// the flight outlives any single caller; the upstream client bounds it
	// with its own request timeout
	flightCtx := context.WithoutCancel(ctx)
	flight := s.inflight.DoChan(key, func() (any, error) {
		result, err := s.api.List(flightCtx, res.UpstreamPath, params)
		if err != nil {
			return nil, err
		}
		page := &table.Page{
			Rows:      result.Data,
			PageCount: result.PageCount,
			Total:     result.Total,
		}
		if page.PageCount == 0 && page.Total > 0 {
			page.PageCount = int((page.Total + int64(state.PageSize) - 1) / int64(state.PageSize))
		}
		s.store(flightCtx, key, page)
		return page, nil
	})

	var out singleflight.Result
	select {
	case out = <-flight:
	case <-ctx.Done():
		telemetry.RecordError(span, ctx.Err())
		return nil, ctx.Err()
	}
	if out.Err != nil {
		telemetry.RecordError(span, out.Err)
		return nil, out.Err
	}
	page := out.Val.(*table.Page)
	telemetry.SetAttributes(span, telemetry.SpanAttrRowCount, len(page.Rows))
	if out.Shared {
		telemetry.SetAttributes(span, telemetry.SpanAttrShared, true)
	}
	return page, nil
}

// Fetch implements the table view data source
func (s *Service) Fetch(ctx context.Context, resource string, state table.State) (*table.Page, error) {
	return s.List(ctx, resource, state)
}

// Get returns one row
func (s *Service) Get(ctx context.Context, resource, id string) (json.RawMessage, error) {
	res, err := s.resolve(resource)
	if err != nil {
		return nil, err
	}
	return s.api.Get(ctx, res.UpstreamPath, id)
}

// Create adds a row and drops the cached pages of the resource
func (s *Service) Create(ctx context.Context, resource string, body json.RawMessage) (json.RawMessage, error) {
	res, err := s.resolve(resource)
	if err != nil {
		return nil, err
	}
	out, err := s.api.Create(ctx, res.UpstreamPath, body)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, resource)
	return out, nil
}

// Update replaces a row and drops the cached pages of the resource
func (s *Service) Update(ctx context.Context, resource, id string, body json.RawMessage) (json.RawMessage, error) {
	res, err := s.resolve(resource)
	if err != nil {
		return nil, err
	}
	out, err := s.api.Update(ctx, res.UpstreamPath, id, body)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, resource)
	return out, nil
}

// Delete removes a row and drops the cached pages of the resource
func (s *Service) Delete(ctx context.Context, resource, id string) error {
	res, err := s.resolve(resource)
	if err != nil {
		return err
	}
	if err := s.api.Delete(ctx, res.UpstreamPath, id); err != nil {
		return err
	}
	s.invalidate(ctx, resource)
	return nil
}

// Invalidate drops every cached page of resource
func (s *Service) Invalidate(ctx context.Context, resource string) error {
	if s.pages == nil {
		return nil
	}
	n, err := s.pages.InvalidatePrefix(ctx, cache.ResourcePrefix(resource))
	if err != nil {
		return err
	}
	s.logger.Debug("Invalidated cached pages", zap.String("resource", resource), zap.Int("count", n))
	return nil
}

func (s *Service) invalidate(ctx context.Context, resource string) {
	if err := s.Invalidate(ctx, resource); err != nil {
		s.logger.Warn("Failed to invalidate cached pages", zap.String("resource", resource), zap.Error(err))
	}
}

// cached reads a page. Cache errors are logged and treated as a miss.
func (s *Service) cached(ctx context.Context, key string) (*table.Page, bool) {
	if s.pages == nil || s.ttl <= 0 {
		return nil, false
	}
	data, ok, err := s.pages.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Page cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var page table.Page
	if err := json.Unmarshal(data, &page); err != nil {
		s.logger.Warn("Discarding undecodable cached page", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &page, true
}

func (s *Service) store(ctx context.Context, key string, page *table.Page) {
	if s.pages == nil || s.ttl <= 0 {
		return
	}
	data, err := json.Marshal(page)
	if err != nil {
		s.logger.Warn("Failed to encode page for cache", zap.Error(err))
		return
	}
	if err := s.pages.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.Warn("Page cache write failed", zap.String("key", key), zap.Error(err))
	}
}
