package tableview

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopadmin/backend/internal/domain/table"
	"go.uber.org/zap"
)

var (
	// ErrSessionNotFound is returned for unknown or closed view ids
	ErrSessionNotFound = errors.New("tableview: view session not found")
	// ErrTooManySessions is returned when the session cap is reached
	ErrTooManySessions = errors.New("tableview: too many open view sessions")
)

// ColumnResolver returns the declared columns and URL path of a resource
type ColumnResolver func(resource string) (cols table.Columns, path string, err error)

// ServiceConfig holds the session limits
type ServiceConfig struct {
	IdleTTL          time.Duration
	SweepInterval    time.Duration
	MaxSessions      int
	DebounceWindow   time.Duration
	SubscriberBuffer int
	FetchTimeout     time.Duration
}

// DefaultServiceConfig returns the limits used when none are configured
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		IdleTTL:          30 * time.Minute,
		SweepInterval:    time.Minute,
		MaxSessions:      1000,
		DebounceWindow:   table.DebounceWindow,
		SubscriberBuffer: 64,
		FetchTimeout:     10 * time.Second,
	}
}

// ServiceOption configures a SessionService
type ServiceOption func(*SessionService)

// WithServiceLogger sets the service logger
func WithServiceLogger(logger *zap.Logger) ServiceOption {
	return func(s *SessionService) {
		s.logger = logger
	}
}

// WithServiceTimerFunc sets the debounce clock of new sessions
func WithServiceTimerFunc(after TimerFunc) ServiceOption {
	return func(s *SessionService) {
		s.after = after
	}
}

// WithNow replaces the wall clock used for idle tracking
func WithNow(now func() time.Time) ServiceOption {
	return func(s *SessionService) {
		s.now = now
	}
}

// SessionService owns the open table views
type SessionService struct {
	resolve ColumnResolver
	fetcher Fetcher
	cfg     ServiceConfig
	logger  *zap.Logger
	after   TimerFunc
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session

	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewSessionService creates the service and starts the idle sweeper
func NewSessionService(resolve ColumnResolver, fetcher Fetcher, cfg ServiceConfig, opts ...ServiceOption) *SessionService {
	defaults := DefaultServiceConfig()
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = defaults.IdleTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaults.SweepInterval
	}
	if cfg.DebounceWindow <= 0 {
		cfg.DebounceWindow = defaults.DebounceWindow
	}
	if cfg.SubscriberBuffer <= 0 {
		cfg.SubscriberBuffer = defaults.SubscriberBuffer
	}

	s := &SessionService{
		resolve:  resolve,
		fetcher:  fetcher,
		cfg:      cfg,
		logger:   zap.NewNop(),
		now:      time.Now,
		sessions: make(map[string]*Session),
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.wg.Add(1)
	go s.sweepLoop()
	return s
}

// Open mounts a new view of resource at rawQuery and loads its first page
// in the background
func (s *SessionService) Open(ctx context.Context, resource, rawQuery string) (*Session, error) {
	cols, path, err := s.resolve(resource)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.cfg.MaxSessions > 0 && len(s.sessions) >= s.cfg.MaxSessions {
		s.mu.Unlock()
		return nil, ErrTooManySessions
	}
	sess := newSession(sessionParams{
		resource:     resource,
		path:         path,
		rawQuery:     rawQuery,
		cols:         cols,
		fetcher:      s.fetcher,
		logger:       s.logger,
		window:       s.cfg.DebounceWindow,
		after:        s.after,
		buffer:       s.cfg.SubscriberBuffer,
		fetchTimeout: s.cfg.FetchTimeout,
		now:          s.now(),
	})
	s.sessions[sess.ID] = sess
	sess.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer sess.wg.Done()
		if _, err := sess.Refresh(sess.ctx); err != nil && !errors.Is(err, context.Canceled) {
			sess.logger.Warn("Failed to load table view", zap.Error(err))
		}
	}()

	s.logger.Info("Table view opened",
		zap.String("view_id", sess.ID),
		zap.String("resource", resource),
		zap.String("query", rawQuery))
	return sess, nil
}

// Get returns an open session and marks it active
func (s *SessionService) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.touch(s.now())
	return sess, nil
}

// Dispatch applies a user action to a session
func (s *SessionService) Dispatch(ctx context.Context, id string, action Action) (*Session, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := action.Apply(ctx, sess.controller); err != nil {
		if errors.Is(err, ErrControllerClosed) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return sess, nil
}

// Subscribe attaches an event receiver to a session
func (s *SessionService) Subscribe(id string) (*Session, *Subscriber, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, nil, err
	}
	sub, err := sess.Subscribe()
	if err != nil {
		return nil, nil, err
	}
	return sess, sub, nil
}

// Close unmounts a session
func (s *SessionService) Close(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	sess.close()
	s.logger.Info("Table view closed", zap.String("view_id", id))
	return nil
}

// Len returns the number of open sessions
func (s *SessionService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep closes sessions idle for longer than the configured TTL and
// returns how many were closed
func (s *SessionService) Sweep() int {
	cutoff := s.now().Add(-s.cfg.IdleTTL)

	s.mu.Lock()
	var expired []*Session
	for id, sess := range s.sessions {
		if sess.SubscriberCount() > 0 {
			continue
		}
		if sess.LastActive().Before(cutoff) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		sess.close()
		s.logger.Info("Table view evicted", zap.String("view_id", sess.ID))
	}
	return len(expired)
}

// Shutdown stops the sweeper and closes every session
func (s *SessionService) Shutdown() {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()

		s.mu.Lock()
		sessions := s.sessions
		s.sessions = make(map[string]*Session)
		s.mu.Unlock()

		for _, sess := range sessions {
			sess.close()
		}
	})
}

func (s *SessionService) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
