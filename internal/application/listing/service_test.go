package listing

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/shopadmin/backend/internal/domain/catalog"
	"github.com/shopadmin/backend/internal/domain/table"
	"github.com/shopadmin/backend/internal/infrastructure/cache"
	"github.com/shopadmin/backend/internal/infrastructure/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeUpstream struct {
	mu        sync.Mutex
	listCalls []string
	writes    []string
	result    *upstream.ListResult
	err       error
}

func (f *fakeUpstream) List(_ context.Context, path string, params url.Values) (*upstream.ListResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls = append(f.listCalls, path+"?"+params.Encode())
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeUpstream) Get(_ context.Context, path, id string) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(`{"id":"` + id + `"}`), nil
}

func (f *fakeUpstream) Create(_ context.Context, path string, body json.RawMessage) (json.RawMessage, error) {
	f.record("POST " + path)
	return body, f.err
}

func (f *fakeUpstream) Update(_ context.Context, path, id string, body json.RawMessage) (json.RawMessage, error) {
	f.record("PUT " + path + "/" + id)
	return body, f.err
}

func (f *fakeUpstream) Delete(_ context.Context, path, id string) error {
	f.record("DELETE " + path + "/" + id)
	return f.err
}

func (f *fakeUpstream) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, call)
}

func (f *fakeUpstream) lists() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.listCalls...)
}

func newTestService(t *testing.T, api *fakeUpstream) *Service {
	t.Helper()
	pages := cache.NewInMemoryPageCache()
	t.Cleanup(func() { _ = pages.Close() })
	return NewService(api, WithCache(pages, time.Minute), WithLogger(zaptest.NewLogger(t)))
}

func sampleResult() *upstream.ListResult {
	return &upstream.ListResult{
		Data:      []json.RawMessage{json.RawMessage(`{"id":"p-1"}`), json.RawMessage(`{"id":"p-2"}`)},
		PageCount: 5,
		Total:     42,
	}
}

func TestService_List(t *testing.T) {
	api := &fakeUpstream{result: sampleResult()}
	svc := newTestService(t, api)

	state := table.Parse(url.Values{"page": {"2"}, "status": {"draft.active"}, "name": {"tee"}}, catalogColumns(t, "products"))
	page, err := svc.List(context.Background(), "products", state)

	require.NoError(t, err)
	assert.Len(t, page.Rows, 2)
	assert.Equal(t, 5, page.PageCount)
	assert.Equal(t, int64(42), page.Total)

	calls := api.lists()
	require.Len(t, calls, 1)
	assert.Equal(t, "/products?limit=10&name=tee&page=2&sortcolumn=created_at&sortdir=1&status=active.draft", calls[0],
		"default sort is applied and facets are canonical")
}

func TestService_ListUsesCache(t *testing.T) {
	api := &fakeUpstream{result: sampleResult()}
	svc := newTestService(t, api)
	ctx := context.Background()

	a := table.Parse(url.Values{"status": {"active.draft"}}, catalogColumns(t, "products"))
	b := table.Parse(url.Values{"status": {"draft.active"}}, catalogColumns(t, "products"))

	_, err := svc.List(ctx, "products", a)
	require.NoError(t, err)
	page, err := svc.List(ctx, "products", b)
	require.NoError(t, err)

	assert.Len(t, api.lists(), 1, "equal intents share a cache entry")
	assert.Len(t, page.Rows, 2)
}

func TestService_WriteInvalidatesCache(t *testing.T) {
	api := &fakeUpstream{result: sampleResult()}
	svc := newTestService(t, api)
	ctx := context.Background()
	state := table.NewState()

	_, err := svc.List(ctx, "products", state)
	require.NoError(t, err)

	_, err = svc.Update(ctx, "products", "p-1", json.RawMessage(`{"name":"New"}`))
	require.NoError(t, err)

	_, err = svc.List(ctx, "products", state)
	require.NoError(t, err)

	assert.Len(t, api.lists(), 2)
	assert.Equal(t, []string{"PUT /products/p-1"}, api.writes)
}

func TestService_FailedWriteKeepsCache(t *testing.T) {
	api := &fakeUpstream{result: sampleResult()}
	svc := newTestService(t, api)
	ctx := context.Background()

	_, err := svc.List(ctx, "orders", table.NewState())
	require.NoError(t, err)

	api.err = upstream.ErrRequestFailed
	err = svc.Delete(ctx, "orders", "o-1")
	assert.ErrorIs(t, err, upstream.ErrRequestFailed)

	api.err = nil
	_, err = svc.List(ctx, "orders", table.NewState())
	require.NoError(t, err)
	assert.Len(t, api.lists(), 1)
}

func TestService_UnknownResource(t *testing.T) {
	svc := newTestService(t, &fakeUpstream{result: sampleResult()})

	_, err := svc.List(context.Background(), "invoices", table.NewState())
	assert.ErrorIs(t, err, catalog.ErrUnknownResource)

	_, err = svc.Get(context.Background(), "invoices", "1")
	assert.ErrorIs(t, err, catalog.ErrUnknownResource)
}

func TestService_UpstreamError(t *testing.T) {
	api := &fakeUpstream{err: errors.New("boom")}
	svc := newTestService(t, api)

	_, err := svc.List(context.Background(), "sellers", table.NewState())

	assert.EqualError(t, err, "boom")
}

func TestService_DerivesPageCount(t *testing.T) {
	api := &fakeUpstream{result: &upstream.ListResult{Data: []json.RawMessage{}, Total: 21}}
	svc := NewService(api)

	page, err := svc.List(context.Background(), "categories", table.NewState())

	require.NoError(t, err)
	assert.Equal(t, 3, page.PageCount)
}

func TestService_FetchMatchesList(t *testing.T) {
	api := &fakeUpstream{result: sampleResult()}
	svc := NewService(api)

	page, err := svc.Fetch(context.Background(), "promotions", table.NewState())

	require.NoError(t, err)
	assert.Equal(t, 5, page.PageCount)
	assert.Len(t, api.lists(), 1)
}

func catalogColumns(t *testing.T, name string) table.Columns {
	t.Helper()
	r, err := catalog.Lookup(name)
	require.NoError(t, err)
	return r.Columns
}

type gatedUpstream struct {
	*fakeUpstream
	entered chan struct{}
	release chan struct{}
}

func (g *gatedUpstream) List(ctx context.Context, path string, params url.Values) (*upstream.ListResult, error) {
	select {
	case g.entered <- struct{}{}:
	default:
	}
	<-g.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g.fakeUpstream.List(ctx, path, params)
}

func TestService_ConcurrentMissesShareOneFetch(t *testing.T) {
	api := &gatedUpstream{
		fakeUpstream: &fakeUpstream{result: sampleResult()},
		entered:      make(chan struct{}, 1),
		release:      make(chan struct{}),
	}
	svc := NewService(api, WithLogger(zaptest.NewLogger(t)))
	state := table.Parse(url.Values{"page": {"3"}}, catalogColumns(t, "products"))

	const callers = 5
	var wg sync.WaitGroup
	pages := make([]*table.Page, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pages[i], errs[i] = svc.List(context.Background(), "products", state)
		}()
	}

	<-api.entered
	time.Sleep(100 * time.Millisecond)
	close(api.release)
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, int64(42), pages[i].Total)
	}
	assert.Len(t, api.lists(), 1)
}

func TestService_CancelledCallerDoesNotFailSharedFetch(t *testing.T) {
	api := &gatedUpstream{
		fakeUpstream: &fakeUpstream{result: sampleResult()},
		entered:      make(chan struct{}, 1),
		release:      make(chan struct{}),
	}
	svc := NewService(api, WithLogger(zaptest.NewLogger(t)))
	state := table.Parse(url.Values{"page": {"2"}}, catalogColumns(t, "products"))

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.List(ctx, "products", state)
		firstErr <- err
	}()
	<-api.entered

	type listResult struct {
		page *table.Page
		err  error
	}
	second := make(chan listResult, 1)
	go func() {
		page, err := svc.List(context.Background(), "products", state)
		second <- listResult{page, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(api.release)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, int64(42), got.page.Total)
	assert.Len(t, api.lists(), 1)
}
