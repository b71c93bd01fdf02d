// Package tableview keeps server-side table views in sync with their URL.
package tableview

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/shopadmin/backend/internal/domain/table"
	"go.uber.org/zap"
)

// ErrControllerClosed is returned by operations on an unmounted view
var ErrControllerClosed = errors.New("tableview: controller closed")

// Edge names the kind of state change that produced a URL write
type Edge string

const (
	EdgePage        Edge = "page"
	EdgeSort        Edge = "sort"
	EdgeTextFilter  Edge = "text_filter"
	EdgeFacetFilter Edge = "facet_filter"
	EdgeReset       Edge = "reset"
)

// Commit describes one URL write
type Commit struct {
	Seq      uint64
	Edge     Edge
	State    table.State
	Query    url.Values
	Params   url.Values
	Navigate NavigateOptions
}

// CommitFunc is called after every URL write, in write order
type CommitFunc func(ctx context.Context, c Commit)

// Controller owns the state of one mounted table view. Every change is
// applied to memory first and then written to the Location through a single
// serialized step that re-reads the current URL and only touches the keys
// the change owns.
type Controller struct {
	cols      table.Columns
	loc       Location
	logger    *zap.Logger
	onCommit  CommitFunc
	debouncer *Debouncer

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	state      table.State
	selection  map[string]bool
	visibility map[string]bool
	closed     bool

	applyMu sync.Mutex
	seq     uint64
}

// ControllerOption configures a Controller
type ControllerOption func(*controllerOptions)

type controllerOptions struct {
	logger   *zap.Logger
	onCommit CommitFunc
	window   time.Duration
	after    TimerFunc
	ctx      context.Context
}

// WithLogger sets the controller logger
func WithLogger(logger *zap.Logger) ControllerOption {
	return func(o *controllerOptions) {
		o.logger = logger
	}
}

// WithCommitFunc sets the hook run after each URL write
func WithCommitFunc(fn CommitFunc) ControllerOption {
	return func(o *controllerOptions) {
		o.onCommit = fn
	}
}

// WithDebounceWindow overrides the text filter quiet period
func WithDebounceWindow(d time.Duration) ControllerOption {
	return func(o *controllerOptions) {
		o.window = d
	}
}

// WithTimerFunc replaces the clock used for debouncing
func WithTimerFunc(after TimerFunc) ControllerOption {
	return func(o *controllerOptions) {
		o.after = after
	}
}

// WithContext sets the parent context of debounced writes
func WithContext(ctx context.Context) ControllerOption {
	return func(o *controllerOptions) {
		o.ctx = ctx
	}
}

// NewController mounts a view: the state is parsed once from the current URL
func NewController(loc Location, cols table.Columns, opts ...ControllerOption) *Controller {
	o := controllerOptions{
		logger: zap.NewNop(),
		window: table.DebounceWindow,
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(o.ctx)
	c := &Controller{
		cols:       cols,
		loc:        loc,
		logger:     o.logger,
		onCommit:   o.onCommit,
		debouncer:  NewDebouncer(o.window, o.after),
		ctx:        ctx,
		cancel:     cancel,
		state:      table.Parse(loc.Query(), cols),
		selection:  make(map[string]bool),
		visibility: make(map[string]bool),
	}
	c.debouncer.Commit(table.StableKey(c.state.TextFilters))
	return c
}

// Columns returns the declared filter columns
func (c *Controller) Columns() table.Columns {
	return c.cols
}

// State returns a copy of the in-memory state
func (c *Controller) State() table.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// View returns the state in renderer shape
func (c *Controller) View() table.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return table.NewView(c.state, c.selection, c.visibility)
}

// SetPage moves to pageIndex with pageSize rows per page
func (c *Controller) SetPage(ctx context.Context, pageIndex, pageSize int) error {
	if pageIndex < 0 {
		pageIndex = 0
	}
	if pageSize < 1 {
		pageSize = table.DefaultPageSize
	}
	if err := c.update(func(s *table.State) {
		s.PageIndex = pageIndex
		s.PageSize = pageSize
	}); err != nil {
		return err
	}
	return c.apply(ctx, EdgePage, NavigateOptions{Scroll: false}, func(s *table.State) table.Patch {
		return table.PagePatch(s.PageIndex, s.PageSize)
	})
}

// SetSort makes columnID the only sorted column
func (c *Controller) SetSort(ctx context.Context, columnID string, descending bool) error {
	if columnID == "" {
		return c.ClearSort(ctx)
	}
	if err := c.update(func(s *table.State) {
		s.Sort = &table.Sort{ColumnID: columnID, Descending: descending}
	}); err != nil {
		return err
	}
	return c.apply(ctx, EdgeSort, NavigateOptions{Scroll: false}, func(s *table.State) table.Patch {
		return table.SortPatch(s.Sort, s.PageIndex)
	})
}

// ClearSort removes the active sort
func (c *Controller) ClearSort(ctx context.Context) error {
	if err := c.update(func(s *table.State) {
		s.Sort = nil
	}); err != nil {
		return err
	}
	return c.apply(ctx, EdgeSort, NavigateOptions{Scroll: false}, func(s *table.State) table.Patch {
		return table.SortPatch(s.Sort, s.PageIndex)
	})
}

// SetTextFilter updates a free-text filter. Memory changes at once; the URL
// is written after the debounce window passes without further typing.
// Columns that are not searchable are ignored.
func (c *Controller) SetTextFilter(columnID, value string) error {
	if !c.cols.IsSearchable(columnID) {
		c.logger.Debug("Ignoring text filter on non-searchable column", zap.String("column", columnID))
		return nil
	}

	var key string
	if err := c.update(func(s *table.State) {
		if value == "" {
			delete(s.TextFilters, columnID)
		} else {
			s.TextFilters[columnID] = value
		}
		key = table.StableKey(s.TextFilters)
	}); err != nil {
		return err
	}

	c.debouncer.Arm(key, func() {
		if err := c.commitTextFilters(c.ctx); err != nil && !errors.Is(err, ErrControllerClosed) {
			c.logger.Warn("Failed to commit text filters", zap.Error(err))
		}
	})
	return nil
}

// SetFacetFilter replaces the selected values of a facet column. An empty
// selection clears the filter. Columns that are not filterable are ignored.
func (c *Controller) SetFacetFilter(ctx context.Context, columnID string, values []string) error {
	if !c.cols.IsFilterable(columnID) {
		c.logger.Debug("Ignoring facet filter on non-filterable column", zap.String("column", columnID))
		return nil
	}
	if err := c.update(func(s *table.State) {
		if normalized := table.NormalizeFacet(values); len(normalized) > 0 {
			s.FacetFilters[columnID] = normalized
		} else {
			delete(s.FacetFilters, columnID)
		}
	}); err != nil {
		return err
	}
	return c.apply(ctx, EdgeFacetFilter, NavigateOptions{Scroll: false}, func(s *table.State) table.Patch {
		s.ResetPagination()
		return table.FacetFilterPatch(s.FacetFilters, c.cols)
	})
}

// ResetFilters clears every filter and returns to the first page. Sort and
// page size are kept. A pending text filter commit is dropped.
func (c *Controller) ResetFilters(ctx context.Context) error {
	c.debouncer.Cancel()
	if err := c.update(func(s *table.State) {
		s.TextFilters = make(map[string]string)
		s.FacetFilters = make(map[string][]string)
		s.PageIndex = 0
	}); err != nil {
		return err
	}
	c.debouncer.Commit(table.StableKey(nil))
	return c.apply(ctx, EdgeReset, NavigateOptions{Scroll: false}, func(s *table.State) table.Patch {
		return table.ResetPatch(c.cols)
	})
}

// SetRowSelection replaces the selected rows. It never touches the URL.
func (c *Controller) SetRowSelection(selection map[string]bool) error {
	return c.update(func(*table.State) {
		c.selection = make(map[string]bool, len(selection))
		for k, v := range selection {
			if v {
				c.selection[k] = true
			}
		}
	})
}

// SetColumnVisibility replaces the column visibility flags. It never touches the URL.
func (c *Controller) SetColumnVisibility(visibility map[string]bool) error {
	return c.update(func(*table.State) {
		c.visibility = make(map[string]bool, len(visibility))
		for k, v := range visibility {
			c.visibility[k] = v
		}
	})
}

// Flush commits a pending text filter immediately
func (c *Controller) Flush() bool {
	return c.debouncer.Flush()
}

// PendingTextFilters reports whether a text filter commit is waiting
func (c *Controller) PendingTextFilters() bool {
	_, pending := c.debouncer.Pending()
	return pending
}

// Close unmounts the view and drops any pending commit
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.debouncer.Cancel()
	c.cancel()

	// wait for an in-flight write to finish
	c.applyMu.Lock()
	defer c.applyMu.Unlock()
}

func (c *Controller) commitTextFilters(ctx context.Context) error {
	return c.apply(ctx, EdgeTextFilter, NavigateOptions{Scroll: false}, func(s *table.State) table.Patch {
		s.ResetPagination()
		return table.TextFilterPatch(s.TextFilters, c.cols)
	})
}

func (c *Controller) update(fn func(s *table.State)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrControllerClosed
	}
	fn(&c.state)
	return nil
}

// apply is the only writer of the Location. The patch is built from the
// latest memory state and applied to a fresh read of the URL while holding
// applyMu, so concurrent edges cannot overwrite each other's keys.
func (c *Controller) apply(ctx context.Context, edge Edge, opts NavigateOptions, build func(s *table.State) table.Patch) error {
	c.applyMu.Lock()
	defer c.applyMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrControllerClosed
	}
	patch := build(&c.state)
	snapshot := c.state.Clone()
	c.mu.Unlock()

	next := patch.Apply(c.loc.Query())
	if err := c.loc.Navigate(ctx, next, opts); err != nil {
		return fmt.Errorf("tableview: navigate after %s change: %w", edge, err)
	}

	c.seq++
	c.logger.Debug("Table view URL updated",
		zap.String("edge", string(edge)),
		zap.Uint64("seq", c.seq),
		zap.String("query", next.Encode()),
	)

	if c.onCommit != nil {
		c.onCommit(ctx, Commit{
			Seq:      c.seq,
			Edge:     edge,
			State:    snapshot,
			Query:    next,
			Params:   table.FetchParams(snapshot),
			Navigate: opts,
		})
	}
	return nil
}
