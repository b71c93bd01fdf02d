package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/shopadmin/backend/internal/application/pricing"
	"github.com/shopadmin/backend/internal/interfaces/http/dto"
)

// ConfigEditor is the part of the pricing service the config handler uses
type ConfigEditor interface {
	Shipping(ctx context.Context) (pricing.ShippingDocument, error)
	ReplaceShipping(ctx context.Context, doc pricing.ShippingDocument) (pricing.ShippingDocument, bool, error)
	ChangeShipping(ctx context.Context, changes []pricing.Change) (pricing.ShippingDocument, bool, error)
	Pricing(ctx context.Context) (pricing.PricingDocument, error)
	ReplacePricing(ctx context.Context, doc pricing.PricingDocument) (pricing.PricingDocument, bool, error)
	ChangePricing(ctx context.Context, changes []pricing.Change) (pricing.PricingDocument, bool, error)
}

// ConfigHandler serves the shipping and pricing configuration forms
type ConfigHandler struct {
	BaseHandler
	editor ConfigEditor
}

// NewConfigHandler creates a ConfigHandler
func NewConfigHandler(editor ConfigEditor) *ConfigHandler {
	return &ConfigHandler{editor: editor}
}

// GetShipping godoc
// @Summary      Get shipping rates
// @Tags         config
// @Produce      json
// @Success      200 {object} APIResponse[pricing.ShippingDocument]
// @Failure      503 {object} ErrorResponse
// @Router       /admin/config/shipping [get]
func (h *ConfigHandler) GetShipping(c *gin.Context) {
	doc, err := h.editor.Shipping(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// ReplaceShipping godoc
// @Summary      Replace shipping rates
// @Description  Rates are zone, then weight band, then a non-negative amount with at most two decimals
// @Tags         config
// @Accept       json
// @Produce      json
// @Param        request body pricing.ShippingDocument true "Shipping rates"
// @Success      200 {object} APIResponse[dto.ConfigResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /admin/config/shipping [put]
func (h *ConfigHandler) ReplaceShipping(c *gin.Context) {
	var doc pricing.ShippingDocument
	if err := c.ShouldBindJSON(&doc); err != nil {
		h.ValidationError(c, err)
		return
	}
	if doc.Zones == nil {
		h.requiredField(c, "zones")
		return
	}
	out, submitted, err := h.editor.ReplaceShipping(c.Request.Context(), doc)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ConfigResponse{Document: out, Submitted: submitted})
}

// ChangeShipping godoc
// @Summary      Edit shipping rates
// @Tags         config
// @Accept       json
// @Produce      json
// @Param        request body dto.ConfigChangesRequest true "Edits"
// @Success      200 {object} APIResponse[dto.ConfigResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /admin/config/shipping [patch]
func (h *ConfigHandler) ChangeShipping(c *gin.Context) {
	var req dto.ConfigChangesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	out, submitted, err := h.editor.ChangeShipping(c.Request.Context(), req.ToChanges())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ConfigResponse{Document: out, Submitted: submitted})
}

// GetPricing godoc
// @Summary      Get pricing markups
// @Tags         config
// @Produce      json
// @Success      200 {object} APIResponse[pricing.PricingDocument]
// @Failure      503 {object} ErrorResponse
// @Router       /admin/config/pricing [get]
func (h *ConfigHandler) GetPricing(c *gin.Context) {
	doc, err := h.editor.Pricing(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// ReplacePricing godoc
// @Summary      Replace pricing markups
// @Tags         config
// @Accept       json
// @Produce      json
// @Param        request body pricing.PricingDocument true "Markups"
// @Success      200 {object} APIResponse[dto.ConfigResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /admin/config/pricing [put]
func (h *ConfigHandler) ReplacePricing(c *gin.Context) {
	var doc pricing.PricingDocument
	if err := c.ShouldBindJSON(&doc); err != nil {
		h.ValidationError(c, err)
		return
	}
	if doc.Tiers == nil {
		h.requiredField(c, "tiers")
		return
	}
	out, submitted, err := h.editor.ReplacePricing(c.Request.Context(), doc)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ConfigResponse{Document: out, Submitted: submitted})
}

// ChangePricing godoc
// @Summary      Edit pricing markups
// @Tags         config
// @Accept       json
// @Produce      json
// @Param        request body dto.ConfigChangesRequest true "Edits"
// @Success      200 {object} APIResponse[dto.ConfigResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /admin/config/pricing [patch]
func (h *ConfigHandler) ChangePricing(c *gin.Context) {
	var req dto.ConfigChangesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	out, submitted, err := h.editor.ChangePricing(c.Request.Context(), req.ToChanges())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ConfigResponse{Document: out, Submitted: submitted})
}

func (h *ConfigHandler) requiredField(c *gin.Context, field string) {
	c.JSON(dto.GetHTTPStatus(dto.ErrCodeValidation), dto.NewValidationErrorResponse(
		"Request validation failed",
		getRequestID(c),
		[]dto.ValidationDetail{{Field: field, Message: "This field is required"}}))
}
