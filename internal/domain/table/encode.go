package table

import (
	"encoding/json"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Encode returns the canonical URL query of a state. Default pagination is
// omitted and facet values are sorted, so equal intents encode identically.
func Encode(s State, cols Columns) url.Values {
	values := url.Values{}
	for _, op := range PagePatch(s.PageIndex, s.PageSize) {
		if op.Kind == OpSet {
			values.Set(op.Key, op.Value)
		}
	}
	for _, op := range SortPatch(s.Sort, s.PageIndex) {
		if op.Kind == OpSet {
			values.Set(op.Key, op.Value)
		}
	}
	for _, id := range cols.Searchable {
		if v := s.TextFilters[id]; v != "" {
			values.Set(id, v)
		}
	}
	for _, id := range cols.Filterable {
		if joined := joinSorted(s.FacetFilters[id]); joined != "" {
			values.Set(id, joined)
		}
	}
	return values
}

// FetchParams returns the query handed to the data source: pagination is
// always explicit and every active filter is included.
func FetchParams(s State) url.Values {
	values := url.Values{}
	values.Set(ParamPage, strconv.Itoa(s.Page()))
	values.Set(ParamLimit, strconv.Itoa(s.PageSize))
	if s.Sort != nil {
		dir := sortDirAscending
		if s.Sort.Descending {
			dir = sortDirDescending
		}
		values.Set(ParamSortColumn, s.Sort.ColumnID)
		values.Set(ParamSortDir, dir)
	}
	for id, v := range s.ActiveTextFilters() {
		values.Set(id, v)
	}
	for id, v := range s.ActiveFacetFilters() {
		values.Set(id, joinSorted(v))
	}
	return values
}

// StableKey serializes text filters with a fixed key order. Empty values are
// skipped so that a cleared filter and a missing one compare equal.
func StableKey(filters map[string]string) string {
	active := make(map[string]string, len(filters))
	for k, v := range filters {
		if v != "" {
			active[k] = v
		}
	}
	// encoding/json writes map keys in sorted order
	b, err := json.Marshal(active)
	if err != nil {
		return ""
	}
	return string(b)
}

func joinSorted(values []string) string {
	values = NormalizeFacet(values)
	if len(values) == 0 {
		return ""
	}
	values = slices.Clone(values)
	slices.Sort(values)
	return strings.Join(values, FacetSeparator)
}
