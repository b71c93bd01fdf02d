package tableview

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidAction is returned when an action misses a required field
var ErrInvalidAction = errors.New("tableview: invalid action")

// ActionType names a user interaction on a table view
type ActionType string

const (
	ActionPage             ActionType = "page"
	ActionSort             ActionType = "sort"
	ActionClearSort        ActionType = "clear_sort"
	ActionTextFilter       ActionType = "text_filter"
	ActionFacetFilter      ActionType = "facet_filter"
	ActionReset            ActionType = "reset"
	ActionRowSelection     ActionType = "row_selection"
	ActionColumnVisibility ActionType = "column_visibility"
)

// Action is a user interaction sent by the browser
type Action struct {
	Type       ActionType      `json:"type"`
	PageIndex  *int            `json:"page_index,omitempty"`
	PageSize   *int            `json:"page_size,omitempty"`
	ColumnID   string          `json:"column_id,omitempty"`
	Descending bool            `json:"desc,omitempty"`
	Value      string          `json:"value,omitempty"`
	Values     []string        `json:"values,omitempty"`
	Flags      map[string]bool `json:"flags,omitempty"`
}

// Apply runs the action against a controller
func (a Action) Apply(ctx context.Context, c *Controller) error {
	switch a.Type {
	case ActionPage:
		current := c.State()
		idx, size := current.PageIndex, current.PageSize
		if a.PageIndex != nil {
			idx = *a.PageIndex
		}
		if a.PageSize != nil {
			size = *a.PageSize
		}
		return c.SetPage(ctx, idx, size)
	case ActionSort:
		if a.ColumnID == "" {
			return fmt.Errorf("%w: sort requires column_id", ErrInvalidAction)
		}
		return c.SetSort(ctx, a.ColumnID, a.Descending)
	case ActionClearSort:
		return c.ClearSort(ctx)
	case ActionTextFilter:
		if a.ColumnID == "" {
			return fmt.Errorf("%w: text_filter requires column_id", ErrInvalidAction)
		}
		return c.SetTextFilter(a.ColumnID, a.Value)
	case ActionFacetFilter:
		if a.ColumnID == "" {
			return fmt.Errorf("%w: facet_filter requires column_id", ErrInvalidAction)
		}
		return c.SetFacetFilter(ctx, a.ColumnID, a.Values)
	case ActionReset:
		return c.ResetFilters(ctx)
	case ActionRowSelection:
		return c.SetRowSelection(a.Flags)
	case ActionColumnVisibility:
		return c.SetColumnVisibility(a.Flags)
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidAction, a.Type)
	}
}
