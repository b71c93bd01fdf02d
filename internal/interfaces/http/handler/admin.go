package handler

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/shopadmin/backend/internal/domain/catalog"
	"github.com/shopadmin/backend/internal/domain/table"
	"github.com/shopadmin/backend/internal/interfaces/http/dto"
)

// Lister is the part of the listing service the admin handler uses
type Lister interface {
	List(ctx context.Context, resource string, state table.State) (*table.Page, error)
	Get(ctx context.Context, resource, id string) (json.RawMessage, error)
	Create(ctx context.Context, resource string, body json.RawMessage) (json.RawMessage, error)
	Update(ctx context.Context, resource, id string, body json.RawMessage) (json.RawMessage, error)
	Delete(ctx context.Context, resource, id string) error
}

// AdminHandler serves the admin resource lists and the row CRUD proxy
type AdminHandler struct {
	BaseHandler
	listing Lister
}

// NewAdminHandler creates an AdminHandler
func NewAdminHandler(listing Lister) *AdminHandler {
	return &AdminHandler{listing: listing}
}

// ResourceResponse describes an admin resource and its table columns
type ResourceResponse struct {
	catalog.Resource
	Path       string   `json:"path"`
	Searchable []string `json:"searchable"`
	Filterable []string `json:"filterable"`
}

func newResourceResponse(r catalog.Resource) ResourceResponse {
	return ResourceResponse{
		Resource:   r,
		Path:       r.Path(),
		Searchable: r.Columns.Searchable,
		Filterable: r.Columns.Filterable,
	}
}

// ListResources godoc
// @Summary      List admin resources
// @Tags         admin
// @Produce      json
// @Success      200 {object} APIResponse[[]ResourceResponse]
// @Router       /admin/resources [get]
func (h *AdminHandler) ListResources(c *gin.Context) {
	names := catalog.Names()
	out := make([]ResourceResponse, 0, len(names))
	for _, name := range names {
		res, _ := catalog.Lookup(name)
		out = append(out, newResourceResponse(res))
	}
	h.Success(c, out)
}

// GetResource godoc
// @Summary      Describe one admin resource
// @Tags         admin
// @Produce      json
// @Param        resource path string true "Resource name"
// @Success      200 {object} APIResponse[ResourceResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /admin/resources/{resource} [get]
func (h *AdminHandler) GetResource(c *gin.Context) {
	res, err := catalog.Lookup(c.Param("resource"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, newResourceResponse(res))
}

// List godoc
// @Summary      List a page of an admin resource
// @Description  The table state is read from the query: page, limit, sortcolumn, sortdir, search and one key per filter column
// @Tags         admin
// @Produce      json
// @Param        resource path string true "Resource name"
// @Success      200 {object} APIResponse[dto.ListResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Router       /admin/{resource} [get]
func (h *AdminHandler) List(c *gin.Context) {
	res, err := catalog.Lookup(c.Param("resource"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	state := table.Parse(c.Request.URL.Query(), res.Columns)
	if err := res.ValidateSort(state.Sort); err != nil {
		h.HandleError(c, err)
		return
	}

	page, err := h.listing.List(c.Request.Context(), res.Name, state)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, dto.NewListResponse(page, state, res.Columns), page.Total, state.Page(), state.PageSize)
}

// GetItem godoc
// @Summary      Get one row of an admin resource
// @Tags         admin
// @Produce      json
// @Param        resource path string true "Resource name"
// @Param        id path string true "Row ID"
// @Success      200 {object} APIResponse[object]
// @Failure      404 {object} ErrorResponse
// @Router       /admin/{resource}/items/{id} [get]
func (h *AdminHandler) GetItem(c *gin.Context) {
	res, ok := h.resource(c)
	if !ok {
		return
	}
	row, err := h.listing.Get(c.Request.Context(), res.Name, c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, row)
}

// CreateItem godoc
// @Summary      Create a row of an admin resource
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        resource path string true "Resource name"
// @Success      201 {object} APIResponse[object]
// @Failure      400 {object} ErrorResponse
// @Router       /admin/{resource}/items [post]
func (h *AdminHandler) CreateItem(c *gin.Context) {
	res, ok := h.resource(c)
	if !ok {
		return
	}
	body, ok := h.objectBody(c)
	if !ok {
		return
	}
	row, err := h.listing.Create(c.Request.Context(), res.Name, body)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, row)
}

// UpdateItem godoc
// @Summary      Update a row of an admin resource
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        resource path string true "Resource name"
// @Param        id path string true "Row ID"
// @Success      200 {object} APIResponse[object]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /admin/{resource}/items/{id} [put]
func (h *AdminHandler) UpdateItem(c *gin.Context) {
	res, ok := h.resource(c)
	if !ok {
		return
	}
	body, ok := h.objectBody(c)
	if !ok {
		return
	}
	row, err := h.listing.Update(c.Request.Context(), res.Name, c.Param("id"), body)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, row)
}

// DeleteItem godoc
// @Summary      Delete a row of an admin resource
// @Tags         admin
// @Param        resource path string true "Resource name"
// @Param        id path string true "Row ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Router       /admin/{resource}/items/{id} [delete]
func (h *AdminHandler) DeleteItem(c *gin.Context) {
	res, ok := h.resource(c)
	if !ok {
		return
	}
	if err := h.listing.Delete(c.Request.Context(), res.Name, c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *AdminHandler) resource(c *gin.Context) (catalog.Resource, bool) {
	res, err := catalog.Lookup(c.Param("resource"))
	if err != nil {
		h.HandleError(c, err)
		return catalog.Resource{}, false
	}
	return res, true
}

// objectBody reads the raw row; the shop API owns the row schema, so only
// the outer shape is checked here
func (h *AdminHandler) objectBody(c *gin.Context) (json.RawMessage, bool) {
	data, err := c.GetRawData()
	if err != nil {
		h.Error(c, dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size")
		return nil, false
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' || !json.Valid(data) {
		h.Error(c, dto.ErrCodeInvalidJSON, "Request body must be a JSON object")
		return nil, false
	}
	return json.RawMessage(data), true
}
