package dto

import (
	"encoding/json"
	"testing"

	"github.com/shopadmin/backend/internal/application/pricing"
	"github.com/shopadmin/backend/internal/application/tableview"
	"github.com/shopadmin/backend/internal/domain/table"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewListResponse(t *testing.T) {
	cols := table.Columns{Searchable: []string{"name"}, Filterable: []string{"status"}}
	state := table.ParseQuery("page=2&status=draft.active&name=shoe", cols)
	page := &table.Page{Rows: []json.RawMessage{json.RawMessage(`{"id":1}`)}, PageCount: 4, Total: 31}

	resp := NewListResponse(page, state, cols)

	assert.Len(t, resp.Rows, 1)
	assert.Equal(t, 4, resp.PageCount)
	assert.Equal(t, int64(31), resp.Total)
	assert.Equal(t, "name=shoe&page=2&status=active.draft", resp.Query)
	assert.Equal(t, 1, resp.View.Pagination.PageIndex)
}

func TestNewListResponse_NilPage(t *testing.T) {
	resp := NewListResponse(nil, table.NewState(), table.Columns{})

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"rows":[]`)
	assert.Equal(t, "", resp.Query)
}

func TestActionRequest_ToAction(t *testing.T) {
	idx := 3
	req := ActionRequest{Type: "page", PageIndex: &idx, ColumnID: "name", Values: []string{"a"}}

	action := req.ToAction()

	assert.Equal(t, tableview.ActionPage, action.Type)
	assert.Equal(t, &idx, action.PageIndex)
	assert.Equal(t, "name", action.ColumnID)
	assert.Equal(t, []string{"a"}, action.Values)
}

func TestConfigChangesRequest_ToChanges(t *testing.T) {
	v := decimal.RequireFromString("4.50")
	req := ConfigChangesRequest{Changes: []ConfigChange{
		{Op: "set", Group: "domestic", Key: "0-1kg", Value: &v},
		{Op: "remove_group", Group: "intl"},
	}}

	changes := req.ToChanges()

	require.Len(t, changes, 2)
	assert.Equal(t, pricing.ChangeSet, changes[0].Op)
	assert.True(t, changes[0].Value.Equal(v))
	assert.Equal(t, pricing.ChangeRemoveGroup, changes[1].Op)
}
