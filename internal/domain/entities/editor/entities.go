// Package editor defines the visual editor's core domain entities.
package editor

import "time"

// SelectedElementData is a point-in-time read of one live node. It is never
// patched in place; writes re-derive a fresh snapshot from the node.
type SelectedElementData struct {
	ID             string            `json:"id"`
	TagName        string            `json:"tagName"`
	TextContent    string            `json:"textContent"`
	InnerHTML      string            `json:"innerHTML"`
	OuterHTML      string            `json:"outerHTML"`
	Classes        string            `json:"classes"`
	ElementID      string            `json:"elementId"`
	Attributes     map[string]string `json:"attributes"`
	ComputedStyles map[string]string `json:"computedStyles"`
	InlineStyles   map[string]string `json:"inlineStyles"`
	// ActiveProperties marks the inspected properties carrying a user-set
	// value; ActiveSections rolls them up per property-editor section.
	ActiveProperties map[string]bool `json:"activeProperties"`
	ActiveSections   map[string]bool `json:"activeSections"`
}

// LayerNode mirrors one element of the live document in the layers panel.
type LayerNode struct {
	ID          string      `json:"id"`
	TagName     string      `json:"tagName"`
	DisplayName string      `json:"displayName"`
	Depth       int         `json:"depth"`
	HasChildren bool        `json:"hasChildren"`
	Children    []LayerNode `json:"children"`
	IsExpanded  bool        `json:"isExpanded"`
	IsVisible   bool        `json:"isVisible"`
	IsLocked    bool        `json:"isLocked"`
}

type Page struct {
	ProjectID        string            `json:"projectId"`
	PageID           string            `json:"pageId"`
	Title            string            `json:"title"`
	HTMLContent      string            `json:"htmlContent"`
	CSSContent       string            `json:"cssContent,omitempty"`
	BackgroundAssets []BackgroundAsset `json:"backgroundAssets"`
	CanvasSettings   CanvasSettings    `json:"canvasSettings"`
	Created          time.Time         `json:"created"`
	UpdatedAt        *time.Time        `json:"updatedAt,omitempty"`
}

// SaveRequest carries a partial page update. Nil fields leave the stored
// value untouched.
type SaveRequest struct {
	ProjectID        string             `json:"projectId"`
	PageID           string             `json:"pageId"`
	HTMLContent      *string            `json:"htmlContent,omitempty"`
	CSSContent       *string            `json:"cssContent,omitempty"`
	BackgroundAssets *[]BackgroundAsset `json:"backgroundAssets,omitempty"`
	CanvasSettings   *CanvasSettings    `json:"canvasSettings,omitempty"`
}

type InteractionMode string

const (
	ModeDesign  InteractionMode = "design"
	ModePreview InteractionMode = "preview"
)

type CanvasSettings struct {
	Artboards          []Artboard      `json:"artboards"`
	SelectedArtboardID *string         `json:"selectedArtboardId"`
	Zoom               float64         `json:"zoom"`
	PanX               float64         `json:"panX"`
	PanY               float64         `json:"panY"`
	ShowGrid           bool            `json:"showGrid"`
	InteractionMode    InteractionMode `json:"interactionMode"`
}

// DefaultCanvasSettings returns the settings of a page that has never been
// opened in the editor.
func DefaultCanvasSettings() CanvasSettings {
	return CanvasSettings{
		Artboards:       []Artboard{},
		Zoom:            1,
		InteractionMode: ModeDesign,
	}
}
