package tableview

import (
	"context"
	"net/url"
	"strings"
	"sync"
)

// NavigateOptions controls how a URL change is applied
type NavigateOptions struct {
	// Scroll moves the viewport to the top after navigating
	Scroll bool `json:"scroll"`
	// Replace rewrites the current history entry instead of pushing a new one
	Replace bool `json:"replace"`
}

// Location is the URL a table view lives at
type Location interface {
	// Query returns a copy of the current query parameters
	Query() url.Values
	// Navigate moves the location to the given query
	Navigate(ctx context.Context, query url.Values, opts NavigateOptions) error
}

// MemoryLocation is a Location kept in process memory for server-side views
type MemoryLocation struct {
	mu      sync.RWMutex
	path    string
	query   url.Values
	history int
}

// NewMemoryLocation creates a location at path with the given raw query
func NewMemoryLocation(path, rawQuery string) *MemoryLocation {
	query, err := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	if err != nil {
		query = url.Values{}
	}
	return &MemoryLocation{
		path:    path,
		query:   query,
		history: 1,
	}
}

// Query implements Location
func (l *MemoryLocation) Query() url.Values {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return copyValues(l.query)
}

// Navigate implements Location
func (l *MemoryLocation) Navigate(ctx context.Context, query url.Values, opts NavigateOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.query = copyValues(query)
	if !opts.Replace {
		l.history++
	}
	return nil
}

// URL returns the path with the encoded query
func (l *MemoryLocation) URL() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.query) == 0 {
		return l.path
	}
	return l.path + "?" + l.query.Encode()
}

// HistoryLen returns the number of history entries pushed so far
func (l *MemoryLocation) HistoryLen() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.history
}

func copyValues(in url.Values) url.Values {
	out := make(url.Values, len(in))
	for k, v := range in {
		out[k] = append([]string(nil), v...)
	}
	return out
}
