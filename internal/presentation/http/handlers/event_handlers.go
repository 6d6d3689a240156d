package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/AtRiskMedia/pagecraft-go/internal/application/services"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// EventHandlers streams session events to the editor UI over SSE.
type EventHandlers struct {
	sessionService *services.SessionService
	broadcaster    *messaging.SSEBroadcaster
	heartbeat      time.Duration
	logger         *logging.ChanneledLogger
}

func NewEventHandlers(sessionService *services.SessionService, broadcaster *messaging.SSEBroadcaster, heartbeat time.Duration, logger *logging.ChanneledLogger) *EventHandlers {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &EventHandlers{
		sessionService: sessionService,
		broadcaster:    broadcaster,
		heartbeat:      heartbeat,
		logger:         logger,
	}
}

// GetEvents handles GET /api/v1/sessions/:sessionId/events
func (h *EventHandlers) GetEvents(c *gin.Context) {
	sessionID := c.Param("sessionId")
	session, err := h.sessionService.Get(sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ch := h.broadcaster.AddClient(sessionID)
	defer h.broadcaster.RemoveClient(ch, sessionID)

	// The initial frame carries the save state so a reconnecting client is
	// current before the next change.
	fmt.Fprintf(c.Writer, "event: connected\ndata: {\"sessionId\":%q,\"status\":%q,\"timestamp\":%q}\n\n",
		sessionID, session.SaveStatus(), time.Now().Format(time.RFC3339))
	c.Writer.Flush()

	h.logger.SSE().Info("SSE connection established",
		"sessionId", sessionID,
		"connections", h.broadcaster.ConnectionCount(sessionID))

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	clientCtx := c.Request.Context()
	connectionStart := time.Now()
	for {
		select {
		case <-clientCtx.Done():
			h.logger.SSE().Info("SSE client disconnected",
				"sessionId", sessionID,
				"connectionDuration", time.Since(connectionStart))
			return

		case message, ok := <-ch:
			if !ok {
				return
			}
			if _, err := c.Writer.WriteString(message); err != nil {
				h.logger.SSE().Error("SSE write failed", "sessionId", sessionID, "error", err.Error())
				return
			}
			c.Writer.Flush()

		case <-ticker.C:
			heartbeat := fmt.Sprintf("event: heartbeat\ndata: {\"timestamp\":%q}\n\n", time.Now().Format(time.RFC3339))
			if _, err := c.Writer.WriteString(heartbeat); err != nil {
				h.logger.SSE().Error("SSE heartbeat failed", "sessionId", sessionID, "error", err.Error())
				return
			}
			c.Writer.Flush()
		}
	}
}

// GetConnections handles GET /api/v1/sessions/:sessionId/connections
func (h *EventHandlers) GetConnections(c *gin.Context) {
	sessionID := c.Param("sessionId")
	c.JSON(http.StatusOK, gin.H{"sessionId": sessionID, "connections": h.broadcaster.ConnectionCount(sessionID)})
}
