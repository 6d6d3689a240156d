package handlers

import (
	"net/http"
	"time"

	"github.com/AtRiskMedia/pagecraft-go/internal/application/services"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/performance"
	"github.com/gin-gonic/gin"
)

// PageHandlers serves stored pages outside of an editor session.
type PageHandlers struct {
	pageService *services.PageService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

func NewPageHandlers(pageService *services.PageService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *PageHandlers {
	return &PageHandlers{
		pageService: pageService,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// ListPages handles GET /api/v1/pages?projectId=
func (h *PageHandlers) ListPages(c *gin.Context) {
	projectID := c.Query("projectId")
	if projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "projectId is required"})
		return
	}
	pages, err := h.pageService.List(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pages": pages, "count": len(pages)})
}

// CreatePage handles POST /api/v1/pages
func (h *PageHandlers) CreatePage(c *gin.Context) {
	marker := h.perfTracker.StartOperation("create_page_request", "")
	defer h.perfTracker.CompleteOperation(marker)

	var req services.CreatePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	page, err := h.pageService.Create(c.Request.Context(), req)
	if err != nil {
		marker.SetError(err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, page)
}

// GetPage handles GET /api/v1/pages/:id
func (h *PageHandlers) GetPage(c *gin.Context) {
	page, err := h.pageService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// DeletePage handles DELETE /api/v1/pages/:id
func (h *PageHandlers) DeletePage(c *gin.Context) {
	if err := h.pageService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RenderPage handles GET /api/v1/pages/:id/render - publishable HTML of the
// stored page.
func (h *PageHandlers) RenderPage(c *gin.Context) {
	start := time.Now()
	pageID := c.Param("id")
	markup, err := h.pageService.Render(c.Request.Context(), pageID, c.Query("pretty") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	h.logger.Persistence().Debug("Page rendered", "pageId", pageID, "bytes", len(markup), "duration", time.Since(start))
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(markup))
}
