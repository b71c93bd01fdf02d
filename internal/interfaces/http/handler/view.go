package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopadmin/backend/internal/application/tableview"
	"github.com/shopadmin/backend/internal/domain/catalog"
	"github.com/shopadmin/backend/internal/domain/table"
	"github.com/shopadmin/backend/internal/interfaces/http/dto"
)

// ViewSessions is the part of the session service the view handlers use
type ViewSessions interface {
	Open(ctx context.Context, resource, rawQuery string) (*tableview.Session, error)
	Get(id string) (*tableview.Session, error)
	Dispatch(ctx context.Context, id string, action tableview.Action) (*tableview.Session, error)
	Subscribe(id string) (*tableview.Session, *tableview.Subscriber, error)
	Close(id string) error
}

// ViewHandler manages server-held table views
type ViewHandler struct {
	BaseHandler
	sessions ViewSessions
}

// NewViewHandler creates a ViewHandler
func NewViewHandler(sessions ViewSessions) *ViewHandler {
	return &ViewHandler{sessions: sessions}
}

// Open godoc
// @Summary      Open a table view
// @Description  Mounts a table view of the resource at the given query string. The query may also be passed as the request's own query string.
// @Tags         views
// @Accept       json
// @Produce      json
// @Param        resource path string true "Resource name"
// @Param        wait query bool false "Wait for the first page"
// @Param        request body dto.OpenViewRequest false "Initial query"
// @Success      201 {object} APIResponse[dto.ViewResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      429 {object} ErrorResponse
// @Router       /admin/{resource}/views [post]
func (h *ViewHandler) Open(c *gin.Context) {
	res, err := catalog.Lookup(c.Param("resource"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var req dto.OpenViewRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.ValidationError(c, err)
		return
	}
	query := strings.TrimPrefix(req.Query, "?")
	if query == "" {
		query = stripControlParams(c.Request.URL.Query()).Encode()
	}

	state := table.ParseQuery(query, res.Columns)
	if err := res.ValidateSort(state.Sort); err != nil {
		h.HandleError(c, err)
		return
	}

	sess, err := h.sessions.Open(c.Request.Context(), res.Name, query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if waitRequested(c) {
		_ = sess.WaitFor(c.Request.Context(), sess.Seq())
	}

	base := strings.TrimSuffix(c.Request.URL.Path, res.Name+"/views")
	c.Header("Location", path.Join(base, "views", sess.ID))
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewViewResponse(sess)))
}

// Get godoc
// @Summary      Get a table view
// @Tags         views
// @Produce      json
// @Param        id path string true "View ID"
// @Success      200 {object} APIResponse[dto.ViewResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /admin/views/{id} [get]
func (h *ViewHandler) Get(c *gin.Context) {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewViewResponse(sess))
}

// Dispatch godoc
// @Summary      Apply a user action to a table view
// @Description  Text filter actions update the view at once and write the URL after the debounce window unless flush is set.
// @Tags         views
// @Accept       json
// @Produce      json
// @Param        id path string true "View ID"
// @Param        wait query bool false "Wait for the refreshed page"
// @Param        request body dto.ActionRequest true "Action"
// @Success      200 {object} APIResponse[dto.ViewResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /admin/views/{id}/actions [post]
func (h *ViewHandler) Dispatch(c *gin.Context) {
	var req dto.ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	id := c.Param("id")
	sess, err := h.sessions.Get(id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	res, err := catalog.Lookup(sess.Resource)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if code, msg := checkActionColumn(res, req); code != "" {
		h.Error(c, code, msg)
		return
	}

	sess, err = h.sessions.Dispatch(c.Request.Context(), id, req.ToAction())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if req.Flush {
		sess.Controller().Flush()
	}
	if waitRequested(c) {
		// the commit this request produced, or a newer one
		if err := sess.WaitFor(c.Request.Context(), sess.Seq()); errors.Is(err, tableview.ErrSessionNotFound) {
			h.HandleError(c, err)
			return
		}
	}
	h.Success(c, dto.NewViewResponse(sess))
}

// Close godoc
// @Summary      Close a table view
// @Tags         views
// @Param        id path string true "View ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Router       /admin/views/{id} [delete]
func (h *ViewHandler) Close(c *gin.Context) {
	if err := h.sessions.Close(c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// checkActionColumn rejects actions on columns the resource does not declare
// for that kind of interaction
func checkActionColumn(res catalog.Resource, req dto.ActionRequest) (string, string) {
	switch tableview.ActionType(req.Type) {
	case tableview.ActionSort:
		if req.ColumnID != "" && !res.IsSortable(req.ColumnID) {
			return dto.ErrCodeInvalidSort, "Column " + req.ColumnID + " is not sortable"
		}
	case tableview.ActionTextFilter:
		if req.ColumnID != "" && !res.Columns.IsSearchable(req.ColumnID) {
			return dto.ErrCodeInvalidColumn, "Column " + req.ColumnID + " is not searchable"
		}
	case tableview.ActionFacetFilter:
		if req.ColumnID != "" && !res.Columns.IsFilterable(req.ColumnID) {
			return dto.ErrCodeInvalidColumn, "Column " + req.ColumnID + " is not filterable"
		}
	}
	return "", ""
}

func waitRequested(c *gin.Context) bool {
	v := c.Query("wait")
	return v == "1" || v == "true"
}

// stripControlParams drops handler parameters that are not table state
func stripControlParams(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for k, v := range values {
		if k == "wait" {
			continue
		}
		out[k] = v
	}
	return out
}
