package tableview

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopadmin/backend/internal/domain/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var errUnknownResource = errors.New("unknown resource")

func testResolver(resource string) (table.Columns, string, error) {
	if resource != "products" {
		return table.Columns{}, "", errUnknownResource
	}
	return productColumns, "/admin/products", nil
}

type recordingFetcher struct {
	mu     sync.Mutex
	states []table.State
	err    error
}

func (f *recordingFetcher) Fetch(_ context.Context, _ string, state table.State) (*table.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states = append(f.states, state)
	if f.err != nil {
		return nil, f.err
	}
	return &table.Page{
		Rows:      []json.RawMessage{json.RawMessage(`{"id":"p-1"}`)},
		PageCount: 3,
		Total:     int64(len(f.states)),
	}, nil
}

func (f *recordingFetcher) calls() []table.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]table.State(nil), f.states...)
}

func newTestService(t *testing.T, fetcher Fetcher, cfg ServiceConfig, opts ...ServiceOption) (*SessionService, *fakeClock) {
	t.Helper()
	clock := &fakeClock{}
	opts = append([]ServiceOption{
		WithServiceLogger(zaptest.NewLogger(t)),
		WithServiceTimerFunc(clock.AfterFunc),
	}, opts...)
	svc := NewSessionService(testResolver, fetcher, cfg, opts...)
	t.Cleanup(svc.Shutdown)
	return svc, clock
}

func nextEvent(t *testing.T, sub *Subscriber) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.Events:
		require.True(t, ok, "subscriber channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestSessionService_OpenLoadsFirstPage(t *testing.T) {
	fetcher := &recordingFetcher{}
	svc, _ := newTestService(t, fetcher, ServiceConfig{})

	sess, err := svc.Open(context.Background(), "products", "page=2&status=active")
	require.NoError(t, err)
	sess.Wait()

	require.Len(t, fetcher.calls(), 1)
	state := fetcher.calls()[0]
	assert.Equal(t, 1, state.PageIndex)
	assert.Equal(t, []string{"active"}, state.FacetFilters["status"])

	require.NotNil(t, sess.Page())
	assert.Equal(t, 3, sess.Page().PageCount)
	assert.Equal(t, "/admin/products?page=2&status=active", sess.URL())
	assert.Equal(t, 1, svc.Len())
}

func TestSessionService_OpenUnknownResource(t *testing.T) {
	svc, _ := newTestService(t, &recordingFetcher{}, ServiceConfig{})

	_, err := svc.Open(context.Background(), "invoices", "")

	assert.ErrorIs(t, err, errUnknownResource)
	assert.Equal(t, 0, svc.Len())
}

func TestSessionService_MaxSessions(t *testing.T) {
	svc, _ := newTestService(t, &recordingFetcher{}, ServiceConfig{MaxSessions: 1})

	_, err := svc.Open(context.Background(), "products", "")
	require.NoError(t, err)

	_, err = svc.Open(context.Background(), "products", "")
	assert.ErrorIs(t, err, ErrTooManySessions)
}

func TestSessionService_DispatchPublishesNavigateThenData(t *testing.T) {
	fetcher := &recordingFetcher{}
	svc, _ := newTestService(t, fetcher, ServiceConfig{})

	sess, err := svc.Open(context.Background(), "products", "category=shirt")
	require.NoError(t, err)
	sess.Wait()

	_, sub, err := svc.Subscribe(sess.ID)
	require.NoError(t, err)

	_, err = svc.Dispatch(context.Background(), sess.ID, Action{Type: ActionSort, ColumnID: "name", Descending: true})
	require.NoError(t, err)

	nav := nextEvent(t, sub)
	assert.Equal(t, EventNavigate, nav.Type)
	assert.Equal(t, uint64(1), nav.Seq)
	assert.Equal(t, "category=shirt&sortcolumn=name&sortdir=1", nav.Query)
	assert.False(t, nav.Scroll)

	data := nextEvent(t, sub)
	assert.Equal(t, EventData, data.Type)
	assert.Equal(t, uint64(1), data.Seq)
	require.NotNil(t, data.Page)

	calls := fetcher.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "name", calls[1].Sort.ColumnID)
}

func TestSessionService_TextFilterDebouncedThroughSession(t *testing.T) {
	fetcher := &recordingFetcher{}
	svc, clock := newTestService(t, fetcher, ServiceConfig{})

	sess, err := svc.Open(context.Background(), "products", "page=4")
	require.NoError(t, err)
	sess.Wait()

	for _, v := range []string{"a", "ab", "abc"} {
		_, err := svc.Dispatch(context.Background(), sess.ID, Action{Type: ActionTextFilter, ColumnID: "name", Value: v})
		require.NoError(t, err)
	}
	assert.Len(t, fetcher.calls(), 1, "typing does not fetch")

	clock.FireAll()
	sess.Wait()

	calls := fetcher.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "abc", calls[1].TextFilters["name"])
	assert.Equal(t, 0, calls[1].PageIndex)
	assert.Equal(t, "name=abc", sess.Query())
}

func TestSessionService_FetchErrorPublishesErrorEvent(t *testing.T) {
	fetcher := &recordingFetcher{err: errors.New("upstream down")}
	svc, _ := newTestService(t, fetcher, ServiceConfig{})

	sess, err := svc.Open(context.Background(), "products", "")
	require.NoError(t, err)
	sess.Wait()

	_, sub, err := svc.Subscribe(sess.ID)
	require.NoError(t, err)

	_, err = svc.Dispatch(context.Background(), sess.ID, Action{Type: ActionReset})
	require.NoError(t, err)

	assert.Equal(t, EventNavigate, nextEvent(t, sub).Type)
	ev := nextEvent(t, sub)
	assert.Equal(t, EventError, ev.Type)
	assert.Equal(t, "upstream down", ev.Message)
	assert.Equal(t, "upstream down", sess.LastError())
}

type gatedFetcher struct {
	mu    sync.Mutex
	gates map[int]chan struct{}
}

func (f *gatedFetcher) Fetch(ctx context.Context, _ string, state table.State) (*table.Page, error) {
	f.mu.Lock()
	gate := f.gates[state.PageIndex]
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &table.Page{PageCount: 10, Total: int64(state.PageIndex)}, nil
}

func TestSession_StaleResultIsDropped(t *testing.T) {
	slow := make(chan struct{})
	fetcher := &gatedFetcher{gates: map[int]chan struct{}{1: slow}}
	svc, _ := newTestService(t, fetcher, ServiceConfig{})

	sess, err := svc.Open(context.Background(), "products", "")
	require.NoError(t, err)
	sess.Wait()

	one, two := 1, 2
	_, err = svc.Dispatch(context.Background(), sess.ID, Action{Type: ActionPage, PageIndex: &one})
	require.NoError(t, err)
	_, err = svc.Dispatch(context.Background(), sess.ID, Action{Type: ActionPage, PageIndex: &two})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		p := sess.Page()
		return p != nil && p.Total == 2
	}, 2*time.Second, 5*time.Millisecond)

	close(slow)
	sess.Wait()

	assert.Equal(t, int64(2), sess.Page().Total, "page 2 result is kept")
}

func TestSessionService_InvalidAction(t *testing.T) {
	svc, _ := newTestService(t, &recordingFetcher{}, ServiceConfig{})
	sess, err := svc.Open(context.Background(), "products", "")
	require.NoError(t, err)

	_, err = svc.Dispatch(context.Background(), sess.ID, Action{Type: ActionSort})
	assert.ErrorIs(t, err, ErrInvalidAction)

	_, err = svc.Dispatch(context.Background(), sess.ID, Action{Type: "explode"})
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestSessionService_RowSelectionAndVisibility(t *testing.T) {
	svc, _ := newTestService(t, &recordingFetcher{}, ServiceConfig{})
	sess, err := svc.Open(context.Background(), "products", "")
	require.NoError(t, err)

	_, err = svc.Dispatch(context.Background(), sess.ID, Action{Type: ActionRowSelection, Flags: map[string]bool{"p-1": true}})
	require.NoError(t, err)
	_, err = svc.Dispatch(context.Background(), sess.ID, Action{Type: ActionColumnVisibility, Flags: map[string]bool{"sku": false}})
	require.NoError(t, err)

	view := sess.Controller().View()
	assert.Equal(t, map[string]bool{"p-1": true}, view.RowSelection)
	assert.Equal(t, map[string]bool{"sku": false}, view.ColumnVisibility)
	assert.Empty(t, sess.Query())
}

func TestSessionService_Close(t *testing.T) {
	svc, _ := newTestService(t, &recordingFetcher{}, ServiceConfig{})
	sess, err := svc.Open(context.Background(), "products", "")
	require.NoError(t, err)
	sess.Wait()

	sub, err := sess.Subscribe()
	require.NoError(t, err)

	require.NoError(t, svc.Close(sess.ID))

	_, open := <-sub.Events
	assert.False(t, open, "subscriber channel is closed")
	assert.ErrorIs(t, svc.Close(sess.ID), ErrSessionNotFound)
	_, err = svc.Get(sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.Dispatch(context.Background(), sess.ID, Action{Type: ActionReset})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionService_SweepEvictsIdleSessions(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(d)
	}

	svc, _ := newTestService(t, &recordingFetcher{}, ServiceConfig{IdleTTL: 10 * time.Minute}, WithNow(clock))

	idle, err := svc.Open(context.Background(), "products", "")
	require.NoError(t, err)
	active, err := svc.Open(context.Background(), "products", "")
	require.NoError(t, err)
	watched, err := svc.Open(context.Background(), "products", "")
	require.NoError(t, err)
	_, sub, err := svc.Subscribe(watched.ID)
	require.NoError(t, err)
	defer watched.Unsubscribe(sub)

	advance(8 * time.Minute)
	_, err = svc.Get(active.ID)
	require.NoError(t, err)
	advance(5 * time.Minute)

	assert.Equal(t, 1, svc.Sweep())

	_, err = svc.Get(idle.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.Get(active.ID)
	assert.NoError(t, err)
	_, err = svc.Get(watched.ID)
	assert.NoError(t, err, "sessions with subscribers are kept")
}

func TestSession_ConcurrentDispatchAndWait(t *testing.T) {
	fetcher := &recordingFetcher{}
	svc, _ := newTestService(t, fetcher, ServiceConfig{})

	sess, err := svc.Open(context.Background(), "products", "")
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := range 5 {
				_, err := svc.Dispatch(context.Background(), sess.ID,
					Action{Type: ActionSort, ColumnID: "name", Descending: (i+j)%2 == 0})
				assert.NoError(t, err)
			}
		}()
		go func() {
			defer wg.Done()
			for range 5 {
				sess.Wait()
			}
		}()
	}
	wg.Wait()

	sess.Wait()
	assert.NotNil(t, sess.Page())
	assert.GreaterOrEqual(t, len(fetcher.calls()), 1)
}

func TestSession_WaitForTracksItsCommit(t *testing.T) {
	slow := make(chan struct{})
	fetcher := &gatedFetcher{gates: map[int]chan struct{}{3: slow}}
	svc, _ := newTestService(t, fetcher, ServiceConfig{})

	sess, err := svc.Open(context.Background(), "products", "")
	require.NoError(t, err)
	sess.Wait()

	three := 3
	_, err = svc.Dispatch(context.Background(), sess.ID, Action{Type: ActionPage, PageIndex: &three})
	require.NoError(t, err)
	seq := sess.Seq()
	require.Equal(t, uint64(1), seq)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, sess.WaitFor(ctx, seq), context.DeadlineExceeded)
	assert.NoError(t, sess.WaitFor(context.Background(), 0), "the initial load already finished")

	close(slow)
	require.NoError(t, sess.WaitFor(context.Background(), seq))
	assert.Equal(t, int64(3), sess.Page().Total)
}

func TestSession_WaitForClosedSession(t *testing.T) {
	svc, _ := newTestService(t, &recordingFetcher{}, ServiceConfig{})
	sess, err := svc.Open(context.Background(), "products", "")
	require.NoError(t, err)
	require.NoError(t, svc.Close(sess.ID))

	assert.ErrorIs(t, sess.WaitFor(context.Background(), sess.Seq()+1), ErrSessionNotFound)
}
