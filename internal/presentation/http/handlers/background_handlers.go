package handlers

import (
	"net/http"

	"github.com/AtRiskMedia/pagecraft-go/internal/domain/backgrounds"
	"github.com/AtRiskMedia/pagecraft-go/internal/domain/entities/editor"
	"github.com/gin-gonic/gin"
)

type MoveRequest struct {
	Index int `json:"index"`
}

// UploadRequest carries a base64 data URL image.
type UploadRequest struct {
	Data string `json:"data" binding:"required"`
	Name string `json:"name"`
}

// GetBackgrounds handles GET /api/v1/sessions/:sessionId/backgrounds
func (h *EditorHandlers) GetBackgrounds(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"assets": session.Backgrounds()})
}

// PostBackground handles POST /api/v1/sessions/:sessionId/backgrounds
func (h *EditorHandlers) PostBackground(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var asset backgrounds.NewAsset
	if err := c.ShouldBindJSON(&asset); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	added, err := session.AddBackground(asset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"asset": added})
}

// PostBackgroundUpload handles POST /api/v1/sessions/:sessionId/backgrounds/upload.
// The image is stored as webp and added as a new image layer.
func (h *EditorHandlers) PostBackgroundUpload(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	img, err := h.mediaService.UploadBackground(session.ID(), req.Data, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	added, err := session.AddBackground(backgrounds.NewAsset{Type: editor.AssetImage, Patch: backgrounds.Patch{Src: &img.URL}})
	if err != nil {
		if delErr := h.mediaService.DeleteBackground(img.URL); delErr != nil {
			h.logger.Backgrounds().Warn("Failed to remove orphaned upload", "url", img.URL, "error", delErr)
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"asset": added, "image": img})
}

// PatchBackground handles PATCH /api/v1/sessions/:sessionId/backgrounds/:id
func (h *EditorHandlers) PatchBackground(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var patch backgrounds.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	asset, err := session.UpdateBackground(c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	respondApplied(c, "asset", asset, asset != nil)
}

// PostToggleBackground handles POST /api/v1/sessions/:sessionId/backgrounds/:id/toggle
func (h *EditorHandlers) PostToggleBackground(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	asset, err := session.ToggleBackgroundVisibility(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondApplied(c, "asset", asset, asset != nil)
}

// DeleteBackground handles DELETE /api/v1/sessions/:sessionId/backgrounds/:id
func (h *EditorHandlers) DeleteBackground(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	removed, err := session.RemoveBackground(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondApplied(c, "assets", session.Backgrounds(), removed)
}

// PostMoveBackground handles POST /api/v1/sessions/:sessionId/backgrounds/:id/move
func (h *EditorHandlers) PostMoveBackground(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	moved, err := session.MoveBackground(c.Param("id"), req.Index)
	if err != nil {
		respondError(c, err)
		return
	}
	respondApplied(c, "assets", session.Backgrounds(), moved)
}
