package handlers

import (
	"net/http"
	"time"

	"github.com/AtRiskMedia/pagecraft-go/internal/application/services"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/performance"
	"github.com/gin-gonic/gin"
)

// EditorHandlers serves every route scoped to an open editor session.
type EditorHandlers struct {
	sessionService *services.SessionService
	mediaService   *services.MediaService
	logger         *logging.ChanneledLogger
	perfTracker    *performance.Tracker
}

// NewEditorHandlers creates editor handlers with injected dependencies
func NewEditorHandlers(sessionService *services.SessionService, mediaService *services.MediaService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *EditorHandlers {
	return &EditorHandlers{
		sessionService: sessionService,
		mediaService:   mediaService,
		logger:         logger,
		perfTracker:    perfTracker,
	}
}

// session resolves the :sessionId path parameter, writing a 404 when the
// session is not open.
func (h *EditorHandlers) session(c *gin.Context) (*services.EditorSession, bool) {
	session, err := h.sessionService.Get(c.Param("sessionId"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return session, true
}

// OpenSessionRequest names the page to edit.
type OpenSessionRequest struct {
	ProjectID string `json:"projectId"`
	PageID    string `json:"pageId" binding:"required"`
}

// OpenSession handles POST /api/v1/sessions
func (h *EditorHandlers) OpenSession(c *gin.Context) {
	start := time.Now()
	marker := h.perfTracker.StartOperation("open_session_request", "")
	defer h.perfTracker.CompleteOperation(marker)

	var req OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	session, err := h.sessionService.Open(c.Request.Context(), req.ProjectID, req.PageID)
	if err != nil {
		marker.SetError(err)
		h.logger.Editor().Warn("Open session failed", "pageId", req.PageID, "error", err)
		respondError(c, err)
		return
	}

	h.logger.Editor().Info("Open session request completed", "sessionId", session.ID(), "pageId", req.PageID, "duration", time.Since(start))
	c.JSON(http.StatusOK, gin.H{
		"session": session.Info(),
		"layers":  session.Layers(),
		"assets":  session.Backgrounds(),
		"canvas":  session.Canvas(),
	})
}

// ListSessions handles GET /api/v1/sessions
func (h *EditorHandlers) ListSessions(c *gin.Context) {
	sessions := h.sessionService.List()
	c.JSON(http.StatusOK, gin.H{"sessions": sessions, "count": len(sessions)})
}

// GetSession handles GET /api/v1/sessions/:sessionId
func (h *EditorHandlers) GetSession(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.Info())
}

// CloseSession handles DELETE /api/v1/sessions/:sessionId. Pending saves are
// flushed before the session goes away.
func (h *EditorHandlers) CloseSession(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if err := h.sessionService.Close(c.Request.Context(), sessionID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SaveSession handles POST /api/v1/sessions/:sessionId/save
func (h *EditorHandlers) SaveSession(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	if err := session.Flush(c.Request.Context()); err != nil {
		h.logger.Persistence().Error("Manual save failed", "sessionId", session.ID(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "status": session.SaveStatus()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": session.SaveStatus()})
}

// GetSaveStatus handles GET /api/v1/sessions/:sessionId/status
func (h *EditorHandlers) GetSaveStatus(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": session.SaveStatus()})
}

// GetHTML handles GET /api/v1/sessions/:sessionId/html?mode=clean|render|export
func (h *EditorHandlers) GetHTML(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	var markup string
	var err error
	switch c.DefaultQuery("mode", "clean") {
	case "clean":
		markup, err = session.CleanHTML(c.Request.Context())
	case "render":
		markup, err = session.RenderHTML(c.Request.Context())
	case "export":
		markup, err = session.ExportHTML(c.Request.Context(), c.Query("pretty") == "true")
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be clean, render or export"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(markup))
}

// ReplaceHTMLRequest carries a whole-document replacement.
type ReplaceHTMLRequest struct {
	HTML string `json:"html" binding:"required"`
}

// PutHTML handles PUT /api/v1/sessions/:sessionId/html
func (h *EditorHandlers) PutHTML(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req ReplaceHTMLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if err := session.ReplaceHTML(c.Request.Context(), req.HTML); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session.Info(), "layers": session.Layers()})
}

// PostUndo handles POST /api/v1/sessions/:sessionId/undo
func (h *EditorHandlers) PostUndo(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	applied, err := session.Undo(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondApplied(c, "session", session.Info(), applied)
}

// PostRedo handles POST /api/v1/sessions/:sessionId/redo
func (h *EditorHandlers) PostRedo(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	applied, err := session.Redo(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondApplied(c, "session", session.Info(), applied)
}

// GenerateRequest asks the configured generator for new page markup.
type GenerateRequest struct {
	Prompt string `json:"prompt" binding:"required"`
	Stream bool   `json:"stream"`
}

// PostGenerate handles POST /api/v1/sessions/:sessionId/generate. Streaming
// progress is pushed over the session's event stream; the response is sent
// once generation finishes.
func (h *EditorHandlers) PostGenerate(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	start := time.Now()
	if err := session.Generate(c.Request.Context(), req.Prompt, req.Stream); err != nil {
		h.logger.AI().Warn("Generation request failed", "sessionId", session.ID(), "error", err)
		respondError(c, err)
		return
	}
	h.logger.AI().Info("Generation request completed", "sessionId", session.ID(), "stream", req.Stream, "duration", time.Since(start))
	c.JSON(http.StatusOK, gin.H{"session": session.Info(), "layers": session.Layers()})
}
