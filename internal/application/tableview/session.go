package tableview

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopadmin/backend/internal/domain/table"
	"go.uber.org/zap"
)

// EventType identifies what a session event carries
type EventType string

const (
	EventNavigate EventType = "navigate"
	EventData     EventType = "data"
	EventError    EventType = "error"
)

// Event is pushed to the subscribers of a session
type Event struct {
	Type    EventType    `json:"type"`
	Seq     uint64       `json:"seq"`
	Query   string       `json:"query,omitempty"`
	Scroll  bool         `json:"scroll"`
	State   *table.State `json:"state,omitempty"`
	Page    *table.Page  `json:"page,omitempty"`
	Message string       `json:"message,omitempty"`
	At      time.Time    `json:"at"`
}

// Fetcher loads the rows of a resource for a table state
type Fetcher interface {
	Fetch(ctx context.Context, resource string, state table.State) (*table.Page, error)
}

// FetcherFunc adapts a function to Fetcher
type FetcherFunc func(ctx context.Context, resource string, state table.State) (*table.Page, error)

// Fetch calls f
func (f FetcherFunc) Fetch(ctx context.Context, resource string, state table.State) (*table.Page, error) {
	return f(ctx, resource, state)
}

// Subscriber receives the events of one session
type Subscriber struct {
	ID     string
	Events <-chan Event

	ch chan Event
}

// Session is one mounted table view held on the server. Its URL lives in a
// MemoryLocation and every committed URL write triggers a data refresh.
type Session struct {
	ID       string
	Resource string

	loc        *MemoryLocation
	controller *Controller
	fetcher    Fetcher
	logger     *zap.Logger
	buffer     int
	fetchTTL   time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	// wg tracks background fetches for close only
	wg sync.WaitGroup

	latest     atomic.Uint64
	lastActive atomic.Int64

	mu       sync.Mutex
	subs     map[string]*Subscriber
	page     *table.Page
	pageSeq  uint64
	lastErr  string
	closed   bool
	closeOne sync.Once

	// settled is the newest commit whose fetch finished, -1 before the first
	settled   int64
	settledCh chan struct{}
}

type sessionParams struct {
	resource     string
	path         string
	rawQuery     string
	cols         table.Columns
	fetcher      Fetcher
	logger       *zap.Logger
	window       time.Duration
	after        TimerFunc
	buffer       int
	fetchTimeout time.Duration
	now          time.Time
}

func newSession(p sessionParams) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.New().String()
	logger := p.logger.With(zap.String("view_id", id), zap.String("resource", p.resource))

	s := &Session{
		ID:       id,
		Resource: p.resource,
		loc:      NewMemoryLocation(p.path, p.rawQuery),
		fetcher:  p.fetcher,
		logger:   logger,
		buffer:   p.buffer,
		fetchTTL: p.fetchTimeout,
		ctx:      ctx,
		cancel:   cancel,
		subs:     make(map[string]*Subscriber),

		settled:   -1,
		settledCh: make(chan struct{}),
	}
	s.touch(p.now)

	opts := []ControllerOption{
		WithLogger(logger),
		WithCommitFunc(s.handleCommit),
		WithContext(ctx),
	}
	if p.window > 0 {
		opts = append(opts, WithDebounceWindow(p.window))
	}
	if p.after != nil {
		opts = append(opts, WithTimerFunc(p.after))
	}
	s.controller = NewController(s.loc, p.cols, opts...)
	return s
}

// Controller returns the view controller
func (s *Session) Controller() *Controller {
	return s.controller
}

// URL returns the current path and query of the view
func (s *Session) URL() string {
	return s.loc.URL()
}

// Query returns the current URL query of the view
func (s *Session) Query() string {
	return s.loc.Query().Encode()
}

// Page returns the last fetched page, if any
func (s *Session) Page() *table.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// LastError returns the message of the last failed fetch
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// LastActive returns when the session was last used
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}

// Subscribe registers a new event receiver
func (s *Session) Subscribe() (*Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionNotFound
	}
	ch := make(chan Event, s.buffer)
	sub := &Subscriber{ID: uuid.New().String(), Events: ch, ch: ch}
	s.subs[sub.ID] = sub
	return sub, nil
}

// Unsubscribe removes a receiver and closes its channel
func (s *Session) Unsubscribe(sub *Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[sub.ID]; !ok {
		return
	}
	delete(s.subs, sub.ID)
	close(sub.ch)
}

// SubscriberCount returns the number of attached receivers
func (s *Session) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Refresh fetches the current state synchronously and publishes the result
func (s *Session) Refresh(ctx context.Context) (*table.Page, error) {
	seq := s.latest.Load()
	return s.fetch(ctx, seq, s.controller.State())
}

// Seq returns the sequence number of the newest committed URL write
func (s *Session) Seq() uint64 {
	return s.latest.Load()
}

// Wait blocks until the fetch for the newest commit has finished
func (s *Session) Wait() {
	_ = s.WaitFor(context.Background(), s.Seq())
}

// WaitFor blocks until the fetch for commit seq, or a newer one, has
// finished. It returns ErrSessionNotFound if the session closes first.
func (s *Session) WaitFor(ctx context.Context, seq uint64) error {
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return ErrSessionNotFound
		}
		if s.settled >= int64(seq) {
			s.mu.Unlock()
			return nil
		}
		ch := s.settledCh
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Session) close() {
	s.closeOne.Do(func() {
		s.controller.Close()
		s.cancel()
		s.wg.Wait()

		s.mu.Lock()
		s.closed = true
		close(s.settledCh)
		for id, sub := range s.subs {
			delete(s.subs, id)
			close(sub.ch)
		}
		s.mu.Unlock()
	})
}

func (s *Session) touch(now time.Time) {
	s.lastActive.Store(now.UnixNano())
}

// handleCommit runs inside the controller's serialized apply, so navigate
// events are published in write order. Fetches run in the background and a
// result older than the newest published page is dropped.
func (s *Session) handleCommit(_ context.Context, c Commit) {
	s.latest.Store(c.Seq)
	state := c.State
	s.publish(Event{
		Type:   EventNavigate,
		Seq:    c.Seq,
		Query:  c.Query.Encode(),
		Scroll: c.Navigate.Scroll,
		State:  &state,
		At:     time.Now(),
	})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.fetch(s.ctx, c.Seq, state); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("Failed to refresh table view", zap.Uint64("seq", c.Seq), zap.Error(err))
		}
	}()
}

func (s *Session) fetch(ctx context.Context, seq uint64, state table.State) (*table.Page, error) {
	if s.fetchTTL > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.fetchTTL)
		defer cancel()
	}

	page, err := s.fetcher.Fetch(ctx, s.Resource, state)

	s.mu.Lock()
	s.settle(seq)
	if seq < s.pageSeq {
		s.mu.Unlock()
		s.logger.Debug("Dropping stale table view result", zap.Uint64("seq", seq))
		return page, err
	}
	s.pageSeq = seq
	if err != nil {
		s.lastErr = err.Error()
	} else {
		s.page = page
		s.lastErr = ""
	}
	s.mu.Unlock()

	if err != nil {
		s.publish(Event{Type: EventError, Seq: seq, Message: err.Error(), At: time.Now()})
		return nil, err
	}
	s.publish(Event{Type: EventData, Seq: seq, Page: page, At: time.Now()})
	return page, nil
}

// settle records that the fetch for seq finished and wakes waiters.
// Callers hold s.mu.
func (s *Session) settle(seq uint64) {
	if s.closed || int64(seq) <= s.settled {
		return
	}
	s.settled = int64(seq)
	close(s.settledCh)
	s.settledCh = make(chan struct{})
}

func (s *Session) publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		select {
		case sub.ch <- ev:
		default:
			s.logger.Warn("Subscriber channel full, dropping event",
				zap.String("subscriber_id", sub.ID),
				zap.String("event", string(ev.Type)))
		}
	}
}
