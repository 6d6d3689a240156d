package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetLayers handles GET /api/v1/sessions/:sessionId/layers?filter=
func (h *EditorHandlers) GetLayers(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	if filter := c.Query("filter"); filter != "" {
		c.JSON(http.StatusOK, gin.H{"layers": session.FilterLayers(filter), "filter": filter})
		return
	}
	c.JSON(http.StatusOK, gin.H{"layers": session.Layers()})
}

// PostRefreshLayers handles POST /api/v1/sessions/:sessionId/layers/refresh
func (h *EditorHandlers) PostRefreshLayers(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	tree, err := session.RefreshLayers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"layers": tree})
}

// PostToggleLayer handles POST /api/v1/sessions/:sessionId/layers/:id/toggle
func (h *EditorHandlers) PostToggleLayer(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"layers": session.ToggleLayerExpanded(c.Param("id"))})
}

// PostRevealLayer handles POST /api/v1/sessions/:sessionId/layers/:id/reveal
func (h *EditorHandlers) PostRevealLayer(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"layers": session.RevealLayer(c.Param("id"))})
}
