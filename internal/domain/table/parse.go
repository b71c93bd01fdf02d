package table

import (
	"net/url"
	"strconv"
	"strings"
)

// Parse derives the table state from URL query parameters.
// It never fails: malformed numbers fall back to the defaults and unknown
// keys are ignored.
func Parse(values url.Values, cols Columns) State {
	s := NewState()

	page := parseInt(values.Get(ParamPage), DefaultPage)
	if page < 1 {
		page = 1
	}
	s.PageIndex = page - 1

	s.PageSize = parseInt(values.Get(ParamLimit), DefaultPageSize)
	if s.PageSize < 1 {
		s.PageSize = DefaultPageSize
	}

	if column := values.Get(ParamSortColumn); column != "" {
		s.Sort = &Sort{
			ColumnID:   column,
			Descending: values.Get(ParamSortDir) == sortDirDescending,
		}
	}

	// The global search term fans out to every searchable column
	if search := values.Get(ParamSearch); search != "" {
		for _, id := range cols.Searchable {
			s.TextFilters[id] = search
		}
	}

	for _, id := range cols.Searchable {
		if v := values.Get(id); v != "" {
			s.TextFilters[id] = v
		}
	}

	for _, id := range cols.Filterable {
		if facet := SplitFacet(values.Get(id)); len(facet) > 0 {
			s.FacetFilters[id] = facet
		}
	}

	return s
}

// ParseQuery parses a raw query string. An unparseable query yields the default state.
func ParseQuery(rawQuery string, cols Columns) State {
	values, err := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	if err != nil {
		return Parse(url.Values{}, cols)
	}
	return Parse(values, cols)
}

// SplitFacet splits a URL facet value into its distinct, non-empty parts
func SplitFacet(raw string) []string {
	if raw == "" {
		return nil
	}
	return NormalizeFacet(strings.Split(raw, FacetSeparator))
}

// NormalizeFacet drops empty and repeated values, keeping first-seen order
func NormalizeFacet(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return n
}
