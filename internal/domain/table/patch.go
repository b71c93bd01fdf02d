package table

import (
	"net/url"
	"strconv"
	"strings"
)

// OpKind tags a ParamOp
type OpKind int

const (
	// OpSet writes a key
	OpSet OpKind = iota + 1
	// OpDelete removes a key
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpSet:
		return "set"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// ParamOp is a single change to one URL query key
type ParamOp struct {
	Kind  OpKind
	Key   string
	Value string
}

// Set returns an op writing value under key
func Set(key, value string) ParamOp {
	return ParamOp{Kind: OpSet, Key: key, Value: value}
}

// Delete returns an op removing key
func Delete(key string) ParamOp {
	return ParamOp{Kind: OpDelete, Key: key}
}

// Patch is an ordered list of key changes. Keys a patch does not name are
// left untouched when it is applied.
type Patch []ParamOp

// Apply returns a copy of values with the patch applied. The input is not modified.
func (p Patch) Apply(values url.Values) url.Values {
	out := cloneValues(values)
	for _, op := range p {
		switch op.Kind {
		case OpSet:
			out.Set(op.Key, op.Value)
		case OpDelete:
			out.Del(op.Key)
		}
	}
	return out
}

// Keys returns the keys touched by the patch in op order
func (p Patch) Keys() []string {
	keys := make([]string, 0, len(p))
	for _, op := range p {
		keys = append(keys, op.Key)
	}
	return keys
}

// PagePatch writes the pagination of a table. Default page and size are removed
// from the URL instead of being written.
func PagePatch(pageIndex, pageSize int) Patch {
	return Patch{pageOp(pageIndex), limitOp(pageSize)}
}

// SortPatch writes the active sort and re-derives the page from pageIndex.
// A nil sort removes the sort keys.
func SortPatch(sort *Sort, pageIndex int) Patch {
	if sort == nil {
		return Patch{Delete(ParamSortColumn), Delete(ParamSortDir), pageOp(pageIndex)}
	}
	dir := sortDirAscending
	if sort.Descending {
		dir = sortDirDescending
	}
	return Patch{
		Set(ParamSortColumn, sort.ColumnID),
		Set(ParamSortDir, dir),
		pageOp(pageIndex),
	}
}

// TextFilterPatch writes one key per active text filter and removes the keys of
// cleared searchable columns. Pagination goes back to the defaults, and the
// global search key is dropped since the per-column keys now carry the filters.
func TextFilterPatch(filters map[string]string, cols Columns) Patch {
	p := Patch{Delete(ParamPage), Delete(ParamLimit), Delete(ParamSearch)}
	for _, id := range cols.Searchable {
		if v := filters[id]; v != "" {
			p = append(p, Set(id, v))
		} else {
			p = append(p, Delete(id))
		}
	}
	return p
}

// FacetFilterPatch writes every filterable column as a dot-joined value list.
// An empty selection removes the key. Pagination goes back to the defaults.
func FacetFilterPatch(filters map[string][]string, cols Columns) Patch {
	p := Patch{Delete(ParamPage), Delete(ParamLimit)}
	for _, id := range cols.Filterable {
		if values := NormalizeFacet(filters[id]); len(values) > 0 {
			p = append(p, Set(id, strings.Join(values, FacetSeparator)))
		} else {
			p = append(p, Delete(id))
		}
	}
	return p
}

// ResetPatch removes every filter key and the page. Sort and page size stay.
func ResetPatch(cols Columns) Patch {
	p := Patch{Delete(ParamPage), Delete(ParamSearch)}
	for _, id := range cols.Searchable {
		p = append(p, Delete(id))
	}
	for _, id := range cols.Filterable {
		if !cols.IsSearchable(id) {
			p = append(p, Delete(id))
		}
	}
	return p
}

func pageOp(pageIndex int) ParamOp {
	page := pageIndex + 1
	if page <= DefaultPage {
		return Delete(ParamPage)
	}
	return Set(ParamPage, strconv.Itoa(page))
}

func limitOp(pageSize int) ParamOp {
	if pageSize == DefaultPageSize || pageSize < 1 {
		return Delete(ParamLimit)
	}
	return Set(ParamLimit, strconv.Itoa(pageSize))
}

func cloneValues(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for k, v := range values {
		out[k] = append([]string(nil), v...)
	}
	return out
}
