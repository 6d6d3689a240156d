package handlers

import (
	"net/http"

	"github.com/AtRiskMedia/pagecraft-go/internal/application/services"
	"github.com/AtRiskMedia/pagecraft-go/internal/domain/entities/editor"
	"github.com/gin-gonic/gin"
)

// SelectRequest selects by node id or by an XPath expression.
type SelectRequest struct {
	ID    string `json:"id"`
	XPath string `json:"xpath"`
}

// StyleRequest sets one inline style property.
type StyleRequest struct {
	Property string `json:"property" binding:"required"`
	Value    string `json:"value"`
}

// AttributeRequest sets one attribute.
type AttributeRequest struct {
	Name  string `json:"name" binding:"required"`
	Value string `json:"value"`
}

type ClassesRequest struct {
	Classes string `json:"classes"`
}

type TextRequest struct {
	Text string `json:"text"`
}

type FragmentRequest struct {
	HTML string `json:"html"`
}

type VisibilityRequest struct {
	Visible bool `json:"visible"`
}

type LockRequest struct {
	Locked bool `json:"locked"`
}

// PostSelection handles POST /api/v1/sessions/:sessionId/selection
func (h *EditorHandlers) PostSelection(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	var data *editor.SelectedElementData
	var err error
	switch {
	case req.ID != "":
		data, err = session.Select(c.Request.Context(), req.ID)
	case req.XPath != "":
		data, err = session.SelectQuery(c.Request.Context(), req.XPath)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "id or xpath is required"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	respondApplied(c, "selection", data, data != nil)
}

// GetSelection handles GET /api/v1/sessions/:sessionId/selection
func (h *EditorHandlers) GetSelection(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	data, err := session.Snapshot(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"selection": data})
}

// DeleteSelection handles DELETE /api/v1/sessions/:sessionId/selection
func (h *EditorHandlers) DeleteSelection(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	if err := session.Deselect(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"selection": nil})
}

// PutStyle handles PUT /api/v1/sessions/:sessionId/elements/:id/style
func (h *EditorHandlers) PutStyle(c *gin.Context) {
	var req StyleRequest
	h.editElement(c, &req, func(s *services.EditorSession, id string) (*editor.SelectedElementData, error) {
		return s.SetStyle(c.Request.Context(), id, req.Property, req.Value)
	})
}

// DeleteStyle handles DELETE /api/v1/sessions/:sessionId/elements/:id/style/:property
func (h *EditorHandlers) DeleteStyle(c *gin.Context) {
	h.editElement(c, nil, func(s *services.EditorSession, id string) (*editor.SelectedElementData, error) {
		return s.RemoveStyle(c.Request.Context(), id, c.Param("property"))
	})
}

// PutAttribute handles PUT /api/v1/sessions/:sessionId/elements/:id/attributes
func (h *EditorHandlers) PutAttribute(c *gin.Context) {
	var req AttributeRequest
	h.editElement(c, &req, func(s *services.EditorSession, id string) (*editor.SelectedElementData, error) {
		return s.SetAttribute(c.Request.Context(), id, req.Name, req.Value)
	})
}

// DeleteAttribute handles DELETE /api/v1/sessions/:sessionId/elements/:id/attributes/:name
func (h *EditorHandlers) DeleteAttribute(c *gin.Context) {
	h.editElement(c, nil, func(s *services.EditorSession, id string) (*editor.SelectedElementData, error) {
		return s.RemoveAttribute(c.Request.Context(), id, c.Param("name"))
	})
}

// PutClasses handles PUT /api/v1/sessions/:sessionId/elements/:id/classes
func (h *EditorHandlers) PutClasses(c *gin.Context) {
	var req ClassesRequest
	h.editElement(c, &req, func(s *services.EditorSession, id string) (*editor.SelectedElementData, error) {
		return s.SetClassList(c.Request.Context(), id, req.Classes)
	})
}

// PutText handles PUT /api/v1/sessions/:sessionId/elements/:id/text
func (h *EditorHandlers) PutText(c *gin.Context) {
	var req TextRequest
	h.editElement(c, &req, func(s *services.EditorSession, id string) (*editor.SelectedElementData, error) {
		return s.SetText(c.Request.Context(), id, req.Text)
	})
}

// PutInnerHTML handles PUT /api/v1/sessions/:sessionId/elements/:id/html
func (h *EditorHandlers) PutInnerHTML(c *gin.Context) {
	var req FragmentRequest
	h.editElement(c, &req, func(s *services.EditorSession, id string) (*editor.SelectedElementData, error) {
		return s.SetInnerHTML(c.Request.Context(), id, req.HTML)
	})
}

// PutVisibility handles PUT /api/v1/sessions/:sessionId/elements/:id/visibility
func (h *EditorHandlers) PutVisibility(c *gin.Context) {
	var req VisibilityRequest
	h.editElement(c, &req, func(s *services.EditorSession, id string) (*editor.SelectedElementData, error) {
		return s.SetVisibility(c.Request.Context(), id, req.Visible)
	})
}

// PutLock handles PUT /api/v1/sessions/:sessionId/elements/:id/lock
func (h *EditorHandlers) PutLock(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var req LockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	applied, err := session.SetLocked(c.Request.Context(), c.Param("id"), req.Locked)
	if err != nil {
		respondError(c, err)
		return
	}
	respondApplied(c, "layers", session.Layers(), applied)
}

// editElement binds an optional body and applies fn to the :id element. A nil
// snapshot means the element did not resolve or is locked.
func (h *EditorHandlers) editElement(c *gin.Context, body any, fn func(session *services.EditorSession, id string) (*editor.SelectedElementData, error)) {
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
	data, err := fn(session, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondApplied(c, "element", data, data != nil)
}
