package dto

import (
	"encoding/json"

	"github.com/shopadmin/backend/internal/application/pricing"
	"github.com/shopadmin/backend/internal/application/tableview"
	"github.com/shopadmin/backend/internal/domain/table"
	"github.com/shopspring/decimal"
)

// ListResponse is one page of an admin resource together with the table
// state it was produced from
type ListResponse struct {
	Rows      []json.RawMessage `json:"rows"`
	PageCount int               `json:"page_count"`
	Total     int64             `json:"total"`
	State     table.State       `json:"state"`
	View      table.View        `json:"view"`
	Query     string            `json:"query"`
}

// NewListResponse builds a ListResponse from a fetched page
func NewListResponse(page *table.Page, state table.State, cols table.Columns) ListResponse {
	if page == nil {
		page = &table.Page{}
	}
	rows := page.Rows
	if rows == nil {
		rows = []json.RawMessage{}
	}
	return ListResponse{
		Rows:      rows,
		PageCount: page.PageCount,
		Total:     page.Total,
		State:     state,
		View:      table.NewView(state, nil, nil),
		Query:     table.Encode(state, cols).Encode(),
	}
}

// OpenViewRequest opens a table view at the given query string
type OpenViewRequest struct {
	Query string `json:"query" binding:"max=4096"`
}

// ViewResponse describes an open table view
type ViewResponse struct {
	ID        string      `json:"id"`
	Resource  string      `json:"resource"`
	URL       string      `json:"url"`
	Query     string      `json:"query"`
	State     table.State `json:"state"`
	View      table.View  `json:"view"`
	Page      *table.Page `json:"page,omitempty"`
	LastError string      `json:"last_error,omitempty"`
	Pending   bool        `json:"pending_text_filters"`
}

// NewViewResponse snapshots a session
func NewViewResponse(sess *tableview.Session) ViewResponse {
	ctrl := sess.Controller()
	return ViewResponse{
		ID:        sess.ID,
		Resource:  sess.Resource,
		URL:       sess.URL(),
		Query:     sess.Query(),
		State:     ctrl.State(),
		View:      ctrl.View(),
		Page:      sess.Page(),
		LastError: sess.LastError(),
		Pending:   ctrl.PendingTextFilters(),
	}
}

// ActionRequest is a user interaction on a table view
type ActionRequest struct {
	Type       string          `json:"type" binding:"required,oneof=page sort clear_sort text_filter facet_filter reset row_selection column_visibility"`
	PageIndex  *int            `json:"page_index" binding:"omitempty,min=0"`
	PageSize   *int            `json:"page_size" binding:"omitempty,min=1,max=500"`
	ColumnID   string          `json:"column_id" binding:"max=64"`
	Descending bool            `json:"desc"`
	Value      string          `json:"value" binding:"max=256"`
	Values     []string        `json:"values" binding:"max=100,dive,max=128"`
	Flags      map[string]bool `json:"flags"`
	Flush      bool            `json:"flush"`
}

// ToAction converts the request into a table action
func (r ActionRequest) ToAction() tableview.Action {
	return tableview.Action{
		Type:       tableview.ActionType(r.Type),
		PageIndex:  r.PageIndex,
		PageSize:   r.PageSize,
		ColumnID:   r.ColumnID,
		Descending: r.Descending,
		Value:      r.Value,
		Values:     r.Values,
		Flags:      r.Flags,
	}
}

// ConfigChange is one edit of a pricing or shipping map
type ConfigChange struct {
	Op    string           `json:"op" binding:"required,oneof=set remove remove_group"`
	Group string           `json:"group" binding:"required,max=64"`
	Key   string           `json:"key" binding:"max=64"`
	Value *decimal.Decimal `json:"value"`
}

// ConfigChangesRequest is a batch of edits applied and submitted together
type ConfigChangesRequest struct {
	Changes []ConfigChange `json:"changes" binding:"required,min=1,max=500,dive"`
}

// ToChanges converts the request into form changes
func (r ConfigChangesRequest) ToChanges() []pricing.Change {
	out := make([]pricing.Change, 0, len(r.Changes))
	for _, c := range r.Changes {
		out = append(out, pricing.Change{
			Op:    pricing.ChangeOp(c.Op),
			Group: c.Group,
			Key:   c.Key,
			Value: c.Value,
		})
	}
	return out
}

// ConfigResponse wraps a configuration document after a write
type ConfigResponse struct {
	Document  any  `json:"document"`
	Submitted bool `json:"submitted"`
}
