package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/AtRiskMedia/pagecraft-go/internal/application/container"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// SystemHandlers serves health, performance and log controls.
type SystemHandlers struct {
	container *container.Container
	startedAt time.Time
}

func NewSystemHandlers(container *container.Container) *SystemHandlers {
	return &SystemHandlers{
		container: container,
		startedAt: time.Now(),
	}
}

// GetHealth handles GET /api/v1/health
func (h *SystemHandlers) GetHealth(c *gin.Context) {
	status := "ok"
	code := http.StatusOK
	var db map[string]any
	if h.container.DB != nil {
		db = h.container.DB.Info()
		if healthy, _ := db["healthy"].(bool); !healthy {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	c.JSON(code, gin.H{
		"status":   status,
		"uptime":   time.Since(h.startedAt).Round(time.Second).String(),
		"database": db,
		"sessions": len(h.container.SessionService.List()),
	})
}

// GetPerformance handles GET /api/v1/system/performance
func (h *SystemHandlers) GetPerformance(c *gin.Context) {
	tracker := h.container.PerfTracker
	c.JSON(http.StatusOK, gin.H{
		"overall":    tracker.GetOverallStats(),
		"operations": tracker.GetStats(),
		"alerts":     tracker.GetAlerts(),
	})
}

// GetLogLevels handles GET /api/v1/system/logs/levels
func (h *SystemHandlers) GetLogLevels(c *gin.Context) {
	c.JSON(http.StatusOK, h.container.Logger.GetChannelLevels())
}

// SetLogLevel handles POST /api/v1/system/logs/levels
func (h *SystemHandlers) SetLogLevel(c *gin.Context) {
	var req struct {
		Channel string `json:"channel" binding:"required"`
		Level   string `json:"level" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	level, err := logging.ParseLevel(req.Level)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.container.Logger.SetChannelLevel(logging.Channel(req.Channel), level); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to set log level", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": fmt.Sprintf("Log level for channel '%s' set to '%s'", req.Channel, level)})
}

// StreamLogs handles GET /api/v1/system/logs/stream?channel=&level=
func (h *SystemHandlers) StreamLogs(c *gin.Context) {
	stream := h.container.LogStream
	if stream == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "log stream not available"})
		return
	}
	level, err := logging.ParseLevel(c.DefaultQuery("level", "info"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	client := stream.Subscribe(logging.Channel(c.DefaultQuery("channel", "all")), level)
	defer stream.Unsubscribe(client)

	fmt.Fprintf(c.Writer, ": connection established\n\n")
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case entry, ok := <-client.Entries:
			if !ok {
				return false
			}
			data, err := json.Marshal(entry)
			if err != nil {
				return true
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
