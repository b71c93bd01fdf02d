package table

import "encoding/json"

// Page is one page of rows returned by a data source
type Page struct {
	Rows      []json.RawMessage `json:"rows"`
	PageCount int               `json:"page_count"`
	Total     int64             `json:"total"`
}

// Empty reports whether the page has no rows
func (p *Page) Empty() bool {
	return p == nil || len(p.Rows) == 0
}
