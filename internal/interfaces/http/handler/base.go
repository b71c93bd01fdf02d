package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopadmin/backend/internal/application/pricing"
	"github.com/shopadmin/backend/internal/application/tableview"
	"github.com/shopadmin/backend/internal/domain/shared"
	"github.com/shopadmin/backend/internal/infrastructure/logger"
	"github.com/shopadmin/backend/internal/infrastructure/upstream"
	"github.com/shopadmin/backend/internal/interfaces/http/dto"
	"github.com/shopadmin/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

func getRequestID(c *gin.Context) string {
	if id := middleware.GetRequestID(c); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the status derived from code
func (h *BaseHandler) Error(c *gin.Context, code, message string) {
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, dto.ErrCodeBadRequest, message)
}

// ValidationError sends a 400 response describing binding errors
func (h *BaseHandler) ValidationError(c *gin.Context, err error) {
	middleware.HandleValidationError(c, err)
}

// HandleError converts application errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := getRequestID(c)

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.Error(c, dto.NormalizeErrorCode(domainErr.Code), domainErr.Message)
		return
	}

	var formErr *pricing.ValidationError
	if errors.As(err, &formErr) {
		details := make([]dto.ValidationDetail, 0, len(formErr.Fields))
		for _, f := range formErr.Fields {
			details = append(details, dto.ValidationDetail{Field: f.Field, Message: f.Message})
		}
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse("Configuration is invalid", requestID, details))
		return
	}

	var statusErr *upstream.StatusError
	if errors.As(err, &statusErr) {
		h.handleUpstreamStatus(c, statusErr)
		return
	}

	switch {
	case errors.Is(err, tableview.ErrSessionNotFound):
		h.Error(c, dto.ErrCodeSessionNotFound, "Table view not found or expired")
	case errors.Is(err, tableview.ErrTooManySessions):
		h.Error(c, dto.ErrCodeTooManySessions, "Too many open table views")
	case errors.Is(err, tableview.ErrInvalidAction):
		h.Error(c, dto.ErrCodeInvalidAction, err.Error())
	case errors.Is(err, pricing.ErrInvalidChange):
		h.Error(c, dto.ErrCodeInvalidInput, err.Error())
	case errors.Is(err, upstream.ErrNotFound):
		h.Error(c, dto.ErrCodeNotFound, "Resource not found")
	case errors.Is(err, upstream.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		h.logFailure(c, err)
		h.Error(c, dto.ErrCodeUpstreamUnavailable, "Shop API is unavailable")
	case errors.Is(err, upstream.ErrInvalidResponse):
		h.logFailure(c, err)
		h.Error(c, dto.ErrCodeUpstreamInvalid, "Shop API returned an invalid response")
	case errors.Is(err, upstream.ErrRequestFailed):
		h.logFailure(c, err)
		h.Error(c, dto.ErrCodeUpstreamFailed, "Shop API request failed")
	default:
		h.logFailure(c, err)
		h.Error(c, dto.ErrCodeInternal, "An unexpected error occurred")
	}
}

// handleUpstreamStatus passes client errors of the shop API through to the
// browser, since they describe the submitted row
func (h *BaseHandler) handleUpstreamStatus(c *gin.Context, err *upstream.StatusError) {
	msg := err.Message
	if msg == "" {
		msg = http.StatusText(err.StatusCode)
	}
	switch {
	case err.StatusCode == http.StatusNotFound:
		h.Error(c, dto.ErrCodeNotFound, msg)
	case err.StatusCode == http.StatusConflict:
		h.Error(c, dto.ErrCodeConflict, msg)
	case err.StatusCode == http.StatusBadRequest, err.StatusCode == http.StatusUnprocessableEntity:
		h.Error(c, dto.ErrCodeInvalidInput, msg)
	case err.StatusCode >= http.StatusInternalServerError:
		h.logFailure(c, err)
		h.Error(c, dto.ErrCodeUpstreamUnavailable, "Shop API is unavailable")
	default:
		h.logFailure(c, err)
		h.Error(c, dto.ErrCodeUpstreamFailed, "Shop API request failed")
	}
}

func (h *BaseHandler) logFailure(c *gin.Context, err error) {
	logger.WithTraceContext(c.Request.Context(), logger.GetGinLogger(c)).
		Error("Request failed", zap.Error(err), zap.String("route", c.FullPath()))
}
