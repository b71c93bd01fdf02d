// Package table holds the query intent of a paginated admin table and its
// mapping to URL query parameters.
package table

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// URL query keys owned by a table view
const (
	ParamPage       = "page"
	ParamLimit      = "limit"
	ParamSortColumn = "sortcolumn"
	ParamSortDir    = "sortdir"
	ParamSearch     = "search"
)

// Defaults
const (
	DefaultPage     = 1
	DefaultPageSize = 10

	// FacetSeparator joins the selected values of a facet filter in the URL
	FacetSeparator = "."

	// DebounceWindow is the input inactivity after which text filters are committed
	DebounceWindow = 500 * time.Millisecond

	sortDirDescending = "1"
	sortDirAscending  = "0"
)

// Sort is the single active sort of a table
type Sort struct {
	ColumnID   string `json:"column_id"`
	Descending bool   `json:"descending"`
}

// Columns declares which columns of a table accept free-text and facet filters.
// Both filter kinds are written under the column id as URL key, so a column
// must not be declared in both lists; Validate reports such overlaps.
type Columns struct {
	Searchable []string
	Filterable []string
}

// ErrColumnOverlap is returned by Validate when a column is both searchable
// and filterable
var ErrColumnOverlap = errors.New("table: column declared both searchable and filterable")

// Validate checks that no URL key is claimed by both filter kinds
func (c Columns) Validate() error {
	for _, id := range c.Searchable {
		if slices.Contains(c.Filterable, id) {
			return fmt.Errorf("%w: %q", ErrColumnOverlap, id)
		}
	}
	return nil
}

// IsSearchable reports whether id is a declared free-text column
func (c Columns) IsSearchable(id string) bool {
	return slices.Contains(c.Searchable, id)
}

// IsFilterable reports whether id is a declared facet column
func (c Columns) IsFilterable(id string) bool {
	return slices.Contains(c.Filterable, id)
}

// State is the canonical, serializable query intent of one table view
type State struct {
	PageIndex    int                 `json:"page_index"`
	PageSize     int                 `json:"page_size"`
	Sort         *Sort               `json:"sort,omitempty"`
	TextFilters  map[string]string   `json:"text_filters"`
	FacetFilters map[string][]string `json:"facet_filters"`
}

// NewState returns the state of a table with no URL parameters
func NewState() State {
	return State{
		PageIndex:    0,
		PageSize:     DefaultPageSize,
		TextFilters:  make(map[string]string),
		FacetFilters: make(map[string][]string),
	}
}

// Clone returns a deep copy of s
func (s State) Clone() State {
	out := State{
		PageIndex:    s.PageIndex,
		PageSize:     s.PageSize,
		TextFilters:  make(map[string]string, len(s.TextFilters)),
		FacetFilters: make(map[string][]string, len(s.FacetFilters)),
	}
	if s.Sort != nil {
		sort := *s.Sort
		out.Sort = &sort
	}
	for k, v := range s.TextFilters {
		out.TextFilters[k] = v
	}
	for k, v := range s.FacetFilters {
		out.FacetFilters[k] = slices.Clone(v)
	}
	return out
}

// Page returns the 1-based page number
func (s State) Page() int {
	return s.PageIndex + 1
}

// ActiveTextFilters returns the text filters with a non-empty value
func (s State) ActiveTextFilters() map[string]string {
	out := make(map[string]string, len(s.TextFilters))
	for k, v := range s.TextFilters {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// ActiveFacetFilters returns the facet filters with at least one selected value
func (s State) ActiveFacetFilters() map[string][]string {
	out := make(map[string][]string, len(s.FacetFilters))
	for k, v := range s.FacetFilters {
		if len(v) > 0 {
			out[k] = slices.Clone(v)
		}
	}
	return out
}

// ResetPagination moves the state back to the first page with the default size
func (s *State) ResetPagination() {
	s.PageIndex = 0
	s.PageSize = DefaultPageSize
}
