package handlers

import (
	"net/http"

	"github.com/AtRiskMedia/pagecraft-go/internal/application/services"
	"github.com/AtRiskMedia/pagecraft-go/internal/domain/entities/editor"
	"github.com/gin-gonic/gin"
)

type DeviceRequest struct {
	Device editor.Device `json:"device" binding:"required"`
}

type DimensionsRequest struct {
	Width  int `json:"width" binding:"required"`
	Height int `json:"height" binding:"required"`
}

type ScaleRequest struct {
	Scale float64 `json:"scale" binding:"required"`
}

type RenameRequest struct {
	Name string `json:"name"`
}

// GetCanvas handles GET /api/v1/sessions/:sessionId/canvas
func (h *EditorHandlers) GetCanvas(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"canvas": session.Canvas()})
}

// PatchView handles PATCH /api/v1/sessions/:sessionId/canvas/view
func (h *EditorHandlers) PatchView(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var update services.ViewUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"canvas": session.UpdateView(update)})
}

// PostArtboard handles POST /api/v1/sessions/:sessionId/artboards
func (h *EditorHandlers) PostArtboard(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req DeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	artboard, err := session.AddArtboard(req.Device)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"artboard": artboard})
}

// PutArtboardDevice handles PUT /api/v1/sessions/:sessionId/artboards/:id/device
func (h *EditorHandlers) PutArtboardDevice(c *gin.Context) {
	var req DeviceRequest
	h.editArtboard(c, &req, func(s *services.EditorSession, id string) (*editor.Artboard, error) {
		return s.SetArtboardDevice(id, req.Device)
	})
}

// PutArtboardDimensions handles PUT /api/v1/sessions/:sessionId/artboards/:id/dimensions
func (h *EditorHandlers) PutArtboardDimensions(c *gin.Context) {
	var req DimensionsRequest
	h.editArtboard(c, &req, func(s *services.EditorSession, id string) (*editor.Artboard, error) {
		return s.SetArtboardDimensions(id, req.Width, req.Height)
	})
}

// PutArtboardPosition handles PUT /api/v1/sessions/:sessionId/artboards/:id/position
func (h *EditorHandlers) PutArtboardPosition(c *gin.Context) {
	var req editor.Point
	h.editArtboard(c, &req, func(s *services.EditorSession, id string) (*editor.Artboard, error) {
		return s.MoveArtboard(id, req)
	})
}

// PutArtboardScale handles PUT /api/v1/sessions/:sessionId/artboards/:id/scale
func (h *EditorHandlers) PutArtboardScale(c *gin.Context) {
	var req ScaleRequest
	h.editArtboard(c, &req, func(s *services.EditorSession, id string) (*editor.Artboard, error) {
		return s.SetArtboardScale(id, req.Scale)
	})
}

// PutArtboardName handles PUT /api/v1/sessions/:sessionId/artboards/:id/name
func (h *EditorHandlers) PutArtboardName(c *gin.Context) {
	var req RenameRequest
	h.editArtboard(c, &req, func(s *services.EditorSession, id string) (*editor.Artboard, error) {
		return s.RenameArtboard(id, req.Name)
	})
}

// PostDuplicateArtboard handles POST /api/v1/sessions/:sessionId/artboards/:id/duplicate
func (h *EditorHandlers) PostDuplicateArtboard(c *gin.Context) {
	h.editArtboard(c, nil, func(s *services.EditorSession, id string) (*editor.Artboard, error) {
		return s.DuplicateArtboard(id)
	})
}

// DeleteArtboard handles DELETE /api/v1/sessions/:sessionId/artboards/:id
func (h *EditorHandlers) DeleteArtboard(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	removed, err := session.RemoveArtboard(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondApplied(c, "canvas", session.Canvas(), removed)
}

// PostSelectArtboard handles POST /api/v1/sessions/:sessionId/artboards/:id/select
func (h *EditorHandlers) PostSelectArtboard(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	selected, err := session.SelectArtboard(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondApplied(c, "canvas", session.Canvas(), selected)
}

// GetArtboardPreview handles GET /api/v1/sessions/:sessionId/artboards/:id/preview
func (h *EditorHandlers) GetArtboardPreview(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	markup, found, err := session.RenderArtboard(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "artboard not found"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(markup))
}

// GetWorkspace handles GET /api/v1/sessions/:sessionId/canvas/workspace
func (h *EditorHandlers) GetWorkspace(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	markup, err := session.RenderWorkspace(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(markup))
}

func (h *EditorHandlers) editArtboard(c *gin.Context, body any, fn func(session *services.EditorSession, id string) (*editor.Artboard, error)) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	if body != nil {
		if err := c.ShouldBindJSON(body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
	}
	artboard, err := fn(session, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondApplied(c, "artboard", artboard, artboard != nil)
}
