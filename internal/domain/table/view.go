package table

import "sort"

// View is the table state in the shape the client-side table renderer consumes
type View struct {
	Pagination       Pagination      `json:"pagination"`
	Sorting          []SortingEntry  `json:"sorting"`
	ColumnFilters    []ColumnFilter  `json:"columnFilters"`
	RowSelection     map[string]bool `json:"rowSelection"`
	ColumnVisibility map[string]bool `json:"columnVisibility"`
}

// Pagination is the renderer's pagination state
type Pagination struct {
	PageIndex int `json:"pageIndex"`
	PageSize  int `json:"pageSize"`
}

// SortingEntry is one sorted column
type SortingEntry struct {
	ID   string `json:"id"`
	Desc bool   `json:"desc"`
}

// ColumnFilter carries a string for text filters and a string list for facets
type ColumnFilter struct {
	ID    string `json:"id"`
	Value any    `json:"value"`
}

// NewView builds the renderer state. Filters are ordered by column id; a column
// with both filter kinds yields two entries, text first.
func NewView(s State, selection, visibility map[string]bool) View {
	v := View{
		Pagination:       Pagination{PageIndex: s.PageIndex, PageSize: s.PageSize},
		Sorting:          []SortingEntry{},
		ColumnFilters:    []ColumnFilter{},
		RowSelection:     copyFlags(selection),
		ColumnVisibility: copyFlags(visibility),
	}
	if s.Sort != nil {
		v.Sorting = append(v.Sorting, SortingEntry{ID: s.Sort.ColumnID, Desc: s.Sort.Descending})
	}

	text := s.ActiveTextFilters()
	facets := s.ActiveFacetFilters()
	ids := make([]string, 0, len(text)+len(facets))
	for id := range text {
		ids = append(ids, id)
	}
	for id := range facets {
		if _, dup := text[id]; !dup {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	for _, id := range ids {
		if t, ok := text[id]; ok {
			v.ColumnFilters = append(v.ColumnFilters, ColumnFilter{ID: id, Value: t})
		}
		if f, ok := facets[id]; ok {
			v.ColumnFilters = append(v.ColumnFilters, ColumnFilter{ID: id, Value: f})
		}
	}
	return v
}

func copyFlags(in map[string]bool) map[string]bool {
	out := make(map[string]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
