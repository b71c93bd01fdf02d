package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopadmin/backend/internal/interfaces/http/dto"
)

// HealthCheck reports whether a dependency is usable
type HealthCheck func(ctx context.Context) error

type namedCheck struct {
	name  string
	check HealthCheck
}

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	name         string
	version      string
	startTime    time.Time
	checks       []namedCheck
	checkTimeout time.Duration
}

// SystemOption configures a SystemHandler
type SystemOption func(*SystemHandler)

// WithHealthCheck registers a named dependency check for the health endpoint
func WithHealthCheck(name string, check HealthCheck) SystemOption {
	return func(h *SystemHandler) {
		h.checks = append(h.checks, namedCheck{name: name, check: check})
	}
}

// WithCheckTimeout bounds each health check
func WithCheckTimeout(d time.Duration) SystemOption {
	return func(h *SystemHandler) {
		h.checkTimeout = d
	}
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(name, version string, opts ...SystemOption) *SystemHandler {
	h := &SystemHandler{
		name:         name,
		version:      version,
		startTime:    time.Now(),
		checkTimeout: 2 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name" example:"shop-admin"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
}

// GetSystemInfo godoc
// @ID           getSystemSystemInfo
// @Summary      Get system information
// @Description  Returns basic system information including version and uptime
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[SystemInfoResponse]
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message" example:"pong"`
	Timestamp string `json:"timestamp" example:"2026-01-23T12:00:00Z"`
}

// Ping godoc
// @ID           pingSystem
// @Summary      Ping the API
// @Description  Simple ping endpoint to check if the API is responsive
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[PingResponse]
// @Router       /system/ping [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// HealthResponse lists the outcome of every dependency check
type HealthResponse struct {
	Status string            `json:"status" example:"ok"`
	Checks map[string]string `json:"checks"`
}

// Health godoc
// @ID           getHealth
// @Summary      Health check
// @Description  Runs the registered dependency checks, 503 when any fails
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[HealthResponse]
// @Failure      503 {object} APIResponse[HealthResponse]
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	for _, nc := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.checkTimeout)
		err := nc.check(ctx)
		cancel()
		if err != nil {
			resp.Status = "unhealthy"
			resp.Checks[nc.name] = err.Error()
			continue
		}
		resp.Checks[nc.name] = "ok"
	}

	if resp.Status == "ok" {
		h.Success(c, resp)
		return
	}
	body := dto.NewErrorResponseWithRequestID(dto.ErrCodeUnhealthy, "One or more dependencies are unhealthy", getRequestID(c))
	body.Data = resp
	c.JSON(http.StatusServiceUnavailable, body)
}
