package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopadmin/backend/internal/application/tableview"
	"github.com/shopadmin/backend/internal/infrastructure/logger"
	"github.com/shopadmin/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// SSE event names besides the session event types
const (
	SSEEventConnected = "connected"
	SSEEventHeartbeat = "heartbeat"
	SSEEventClosed    = "closed"
)

// SSEMessage is one frame of an event stream
type SSEMessage struct {
	Event string `json:"event"`
	Data  string `json:"data"`
	ID    string `json:"id,omitempty"`
}

// ViewEventsHandler streams table view events over Server-Sent Events
type ViewEventsHandler struct {
	BaseHandler
	sessions   ViewSessions
	logger     *zap.Logger
	ctx        context.Context
	cancel     context.CancelFunc
	heartbeat  time.Duration
	maxClients int
	clients    atomic.Int64
}

// ViewEventsOption is a functional option for configuring the handler
type ViewEventsOption func(*ViewEventsHandler)

// WithSSELogger sets the logger for the handler
func WithSSELogger(logger *zap.Logger) ViewEventsOption {
	return func(h *ViewEventsHandler) {
		h.logger = logger
	}
}

// WithSSEHeartbeat sets the heartbeat interval
func WithSSEHeartbeat(interval time.Duration) ViewEventsOption {
	return func(h *ViewEventsHandler) {
		if interval > 0 {
			h.heartbeat = interval
		}
	}
}

// WithSSEMaxClients sets the maximum number of concurrent streams, 0 means unlimited
func WithSSEMaxClients(max int) ViewEventsOption {
	return func(h *ViewEventsHandler) {
		h.maxClients = max
	}
}

// NewViewEventsHandler creates a ViewEventsHandler
func NewViewEventsHandler(sessions ViewSessions, opts ...ViewEventsOption) *ViewEventsHandler {
	ctx, cancel := context.WithCancel(context.Background())
	h := &ViewEventsHandler{
		sessions:   sessions,
		logger:     zap.NewNop(),
		ctx:        ctx,
		cancel:     cancel,
		heartbeat:  30 * time.Second,
		maxClients: 10000,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Stop disconnects every stream
func (h *ViewEventsHandler) Stop() {
	h.cancel()
	h.logger.Info("View event streams stopped")
}

// GetClientCount returns the number of connected streams
func (h *ViewEventsHandler) GetClientCount() int {
	return int(h.clients.Load())
}

// Stream godoc
//
//	@Summary		Subscribe to table view events via SSE
//	@Description	Streams navigate, data and error events of a table view. The first event is a connected snapshot of the view.
//	@Tags			views
//	@Produce		text/event-stream
//	@Param			id	path		string	true	"View ID"
//	@Success		200	{string}	string	"SSE stream"
//	@Failure		404	{object}	dto.Response{error=dto.ErrorInfo}
//	@Failure		503	{object}	dto.Response{error=dto.ErrorInfo}
//	@Router			/admin/views/{id}/events [get]
func (h *ViewEventsHandler) Stream(c *gin.Context) {
	if h.maxClients > 0 && h.GetClientCount() >= h.maxClients {
		h.Error(c, dto.ErrCodeMaxConnections, "Maximum number of SSE connections reached")
		return
	}

	sess, sub, err := h.sessions.Subscribe(c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer sess.Unsubscribe(sub)

	h.clients.Add(1)
	defer h.clients.Add(-1)

	log := logger.WithTraceContext(c.Request.Context(), h.logger).With(
		zap.String("view_id", sess.ID),
		zap.String("subscriber_id", sub.ID))

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	// the server write timeout would cut long-lived streams
	if err := http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{}); err != nil {
		log.Debug("Cannot clear stream write deadline", zap.Error(err))
	}

	log.Info("SSE client connected")

	snapshot, err := json.Marshal(dto.NewViewResponse(sess))
	if err != nil {
		log.Error("Failed to marshal view snapshot", zap.Error(err))
		return
	}
	h.sendEvent(c.Writer, SSEMessage{Event: SSEEventConnected, Data: string(snapshot)})
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	reqCtx := c.Request.Context()
	for {
		select {
		case <-reqCtx.Done():
			log.Info("SSE client disconnected")
			return
		case <-h.ctx.Done():
			log.Info("SSE handler stopped, disconnecting client")
			return
		case <-ticker.C:
			h.sendEvent(c.Writer, SSEMessage{
				Event: SSEEventHeartbeat,
				Data:  fmt.Sprintf(`{"timestamp":%d}`, time.Now().Unix()),
			})
			c.Writer.Flush()
		case ev, ok := <-sub.Events:
			if !ok {
				// the view was closed or evicted
				h.sendEvent(c.Writer, SSEMessage{
					Event: SSEEventClosed,
					Data:  fmt.Sprintf(`{"id":%q}`, sess.ID),
				})
				c.Writer.Flush()
				log.Info("Table view closed, ending stream")
				return
			}
			msg, err := eventMessage(ev)
			if err != nil {
				log.Error("Failed to marshal view event", zap.Error(err))
				continue
			}
			h.sendEvent(c.Writer, msg)
			c.Writer.Flush()
		}
	}
}

func eventMessage(ev tableview.Event) (SSEMessage, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return SSEMessage{}, err
	}
	return SSEMessage{
		Event: string(ev.Type),
		Data:  string(data),
		ID:    strconv.FormatUint(ev.Seq, 10),
	}, nil
}

// sendEvent writes an SSE event to the response writer
func (h *ViewEventsHandler) sendEvent(w io.Writer, msg SSEMessage) {
	if msg.Event != "" {
		fmt.Fprintf(w, "event: %s\n", msg.Event)
	}
	if msg.ID != "" {
		fmt.Fprintf(w, "id: %s\n", msg.ID)
	}
	fmt.Fprintf(w, "data: %s\n\n", msg.Data)
}
