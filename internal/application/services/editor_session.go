package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AtRiskMedia/pagecraft-go/internal/domain/artboards"
	"github.com/AtRiskMedia/pagecraft-go/internal/domain/backgrounds"
	"github.com/AtRiskMedia/pagecraft-go/internal/domain/dom"
	"github.com/AtRiskMedia/pagecraft-go/internal/domain/entities/editor"
	"github.com/AtRiskMedia/pagecraft-go/internal/domain/history"
	"github.com/AtRiskMedia/pagecraft-go/internal/domain/layers"
	"github.com/AtRiskMedia/pagecraft-go/internal/domain/selection"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/logging"
)

// Session events pushed to SSE and socket clients.
const (
	EventSelection   = "selection"
	EventElement     = "element_updated"
	EventLayers      = "layers"
	EventDocument    = "document"
	EventBackgrounds = "backgrounds"
	EventCanvas      = "canvas"
	EventSaveStatus  = "save_status"
	EventGeneration  = "generation"
)

// SessionOptions carries the collaborators and tuning of one session.
type SessionOptions struct {
	Sync         SyncConfig
	HistoryLimit int
	Save         SaveFunc
	Publisher    messaging.Publisher
	Generator    Generator
	NewID        func() string
	Logger       *logging.ChanneledLogger
}

// EditorSession is the explicit context of one open page. The live document
// and the selection model are only touched on the frame goroutine; the rest
// of the editor state is guarded by mu. Frame calls never run while mu is
// held by the caller.
type EditorSession struct {
	id        string
	projectID string
	pageID    string
	title     string
	openedAt  time.Time

	// lastActive holds unix nanoseconds of the last lookup of the session.
	lastActive atomic.Int64

	frame     *dom.Frame
	selection *selection.Model

	mu          sync.Mutex
	tree        []editor.LayerNode
	backgrounds *backgrounds.Stack
	canvas      *artboards.Canvas
	history     *history.History
	css         string
	generating  bool

	sync      *Synchronizer
	publisher messaging.Publisher
	generator Generator
	logger    *logging.ChanneledLogger

	stopWatch context.CancelFunc
	watchDone chan struct{}
}

// NewEditorSession loads page into a fresh live document and seeds the
// synchronizer with its current serializations.
func NewEditorSession(id string, page *editor.Page, opts SessionOptions) (*EditorSession, error) {
	doc, err := dom.Parse(backgrounds.Strip(page.HTMLContent))
	if err != nil {
		return nil, fmt.Errorf("failed to load page %s: %w", page.PageID, err)
	}
	publisher := opts.Publisher
	if publisher == nil {
		publisher = messaging.Fanout{}
	}

	s := &EditorSession{
		id:          id,
		projectID:   page.ProjectID,
		pageID:      page.PageID,
		title:       page.Title,
		openedAt:    time.Now(),
		frame:       dom.NewFrame(doc),
		selection:   selection.NewModel(doc),
		backgrounds: backgrounds.NewStack(opts.NewID),
		canvas:      artboards.NewCanvas(opts.NewID),
		history:     history.New(opts.HistoryLimit),
		css:         page.CSSContent,
		publisher:   publisher,
		generator:   opts.Generator,
		logger:      opts.Logger,
	}
	s.touch()
	s.backgrounds.Replace(page.BackgroundAssets)
	s.canvas.Load(page.CanvasSettings)
	s.sync = NewSynchronizer(opts.Sync, opts.Save, opts.Logger)
	s.sync.OnStatus(func(status SaveStatus) {
		s.publish(EventSaveStatus, map[string]SaveStatus{"status": status})
	})

	var clean string
	err = s.frame.Do(context.Background(), func(d *dom.Document) error {
		var err error
		if clean, err = d.Render(dom.Clean); err != nil {
			return err
		}
		s.tree = layers.Build(d, d.Body(), layers.Options{})
		return nil
	})
	if err != nil {
		s.frame.Close()
		return nil, fmt.Errorf("failed to render page %s: %w", page.PageID, err)
	}
	s.sync.Seed(SliceHTML, clean)
	s.sync.Seed(SliceBackgrounds, s.backgroundsPayload())
	s.sync.Seed(SliceCanvas, s.canvasPayload())
	return s, nil
}

func (s *EditorSession) touch() { s.lastActive.Store(time.Now().UnixNano()) }

// LastActive reports when the session was last looked up by a client.
func (s *EditorSession) LastActive() time.Time { return time.Unix(0, s.lastActive.Load()) }

func (s *EditorSession) ID() string        { return s.id }
func (s *EditorSession) ProjectID() string { return s.projectID }
func (s *EditorSession) PageID() string    { return s.pageID }

// SessionInfo summarizes an open session.
type SessionInfo struct {
	ID         string     `json:"id"`
	ProjectID  string     `json:"projectId"`
	PageID     string     `json:"pageId"`
	Title      string     `json:"title"`
	OpenedAt   time.Time  `json:"openedAt"`
	LastActive time.Time  `json:"lastActive"`
	SaveStatus SaveStatus `json:"saveStatus"`
	CanUndo    bool       `json:"canUndo"`
	CanRedo    bool       `json:"canRedo"`
}

func (s *EditorSession) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionInfo{
		ID:         s.id,
		ProjectID:  s.projectID,
		PageID:     s.pageID,
		Title:      s.title,
		OpenedAt:   s.openedAt,
		LastActive: s.LastActive(),
		SaveStatus: s.sync.Status(),
		CanUndo:    s.history.CanUndo(),
		CanRedo:    s.history.CanRedo(),
	}
}

// startWatch polls the canvas slice until the session closes.
func (s *EditorSession) startWatch() {
	ctx, cancel := context.WithCancel(context.Background())
	s.stopWatch = cancel
	s.watchDone = make(chan struct{})
	go func() {
		defer close(s.watchDone)
		s.sync.Watch(ctx, SliceCanvas, func() (string, error) {
			return s.canvasPayload(), nil
		})
	}()
}

// Close flushes pending saves and stops the frame. The flush error is
// returned after everything is stopped.
func (s *EditorSession) Close(ctx context.Context) error {
	if s.stopWatch != nil {
		s.stopWatch()
		<-s.watchDone
	}
	// Catch up on markup whose tracking was skipped by a failed frame call.
	var clean string
	renderErr := s.frame.Do(ctx, func(d *dom.Document) error {
		var err error
		clean, err = d.Render(dom.Clean)
		return err
	})
	if renderErr == nil {
		s.sync.Track(SliceHTML, clean)
	}
	s.sync.Track(SliceCanvas, s.canvasPayload())
	err := errors.Join(renderErr, s.sync.Flush(ctx))
	s.sync.Close()
	s.frame.Close()
	return err
}

// Selection

// Select makes id the selected element. Locked and unknown ids leave the
// selection unchanged.
func (s *EditorSession) Select(ctx context.Context, id string) (*editor.SelectedElementData, error) {
	var snap *editor.SelectedElementData
	err := s.frame.Do(ctx, func(d *dom.Document) error {
		if !s.selection.SelectElement(id) {
			return nil
		}
		data, _ := s.selection.Selected()
		snap = &data
		return nil
	})
	if err != nil {
		return nil, err
	}
	if snap == nil {
		s.logger.Selection().Debug("Selection ignored", "sessionId", s.id, "elementId", id)
		return nil, nil
	}
	s.publish(EventSelection, snap)
	return snap, nil
}

// SelectQuery selects the first element matching an XPath expression, as a
// click on the canvas would.
func (s *EditorSession) SelectQuery(ctx context.Context, expr string) (*editor.SelectedElementData, error) {
	var snap *editor.SelectedElementData
	err := s.frame.Do(ctx, func(d *dom.Document) error {
		n, err := d.QueryOne(expr)
		if err != nil {
			return err
		}
		if _, ok := s.selection.SelectNode(n); !ok {
			return nil
		}
		data, _ := s.selection.Selected()
		snap = &data
		return nil
	})
	if err != nil || snap == nil {
		return nil, err
	}
	s.publish(EventSelection, snap)
	return snap, nil
}

func (s *EditorSession) Deselect(ctx context.Context) error {
	err := s.frame.Do(ctx, func(*dom.Document) error {
		s.selection.Deselect()
		return nil
	})
	if err == nil {
		s.publish(EventSelection, nil)
	}
	return err
}

// Snapshot re-reads the selected element, or returns nil when nothing is
// selected.
func (s *EditorSession) Snapshot(ctx context.Context) (*editor.SelectedElementData, error) {
	var snap *editor.SelectedElementData
	err := s.frame.Do(ctx, func(*dom.Document) error {
		if data, ok := s.selection.Selected(); ok {
			snap = &data
		}
		return nil
	})
	return snap, err
}

// Element writes

func (s *EditorSession) SetStyle(ctx context.Context, id, property, value string) (*editor.SelectedElementData, error) {
	return s.edit(ctx, "set_style", id, func(m *selection.Model) (editor.SelectedElementData, error) {
		return m.SetStyle(id, property, value)
	})
}

func (s *EditorSession) RemoveStyle(ctx context.Context, id, property string) (*editor.SelectedElementData, error) {
	return s.edit(ctx, "remove_style", id, func(m *selection.Model) (editor.SelectedElementData, error) {
		return m.RemoveStyle(id, property)
	})
}

func (s *EditorSession) SetAttribute(ctx context.Context, id, name, value string) (*editor.SelectedElementData, error) {
	return s.edit(ctx, "set_attribute", id, func(m *selection.Model) (editor.SelectedElementData, error) {
		return m.SetAttribute(id, name, value)
	})
}

func (s *EditorSession) RemoveAttribute(ctx context.Context, id, name string) (*editor.SelectedElementData, error) {
	return s.edit(ctx, "remove_attribute", id, func(m *selection.Model) (editor.SelectedElementData, error) {
		return m.RemoveAttribute(id, name)
	})
}

func (s *EditorSession) SetClassList(ctx context.Context, id, classes string) (*editor.SelectedElementData, error) {
	return s.edit(ctx, "set_classes", id, func(m *selection.Model) (editor.SelectedElementData, error) {
		return m.SetClassList(id, classes)
	})
}

func (s *EditorSession) SetText(ctx context.Context, id, text string) (*editor.SelectedElementData, error) {
	return s.edit(ctx, "set_text", id, func(m *selection.Model) (editor.SelectedElementData, error) {
		return m.SetTextContent(id, text)
	})
}

func (s *EditorSession) SetInnerHTML(ctx context.Context, id, fragment string) (*editor.SelectedElementData, error) {
	return s.edit(ctx, "set_inner_html", id, func(m *selection.Model) (editor.SelectedElementData, error) {
		return m.SetInnerHTML(id, fragment)
	})
}

// SetVisibility hides or shows an element. The DOM write and the layer
// node's isVisible change happen in the same frame call.
func (s *EditorSession) SetVisibility(ctx context.Context, id string, visible bool) (*editor.SelectedElementData, error) {
	var snap *editor.SelectedElementData
	var before, clean string
	var tree []editor.LayerNode
	err := s.frame.Do(ctx, func(d *dom.Document) error {
		var err error
		if before, err = d.Render(dom.Raw); err != nil {
			return err
		}
		data, err := s.selection.SetVisibility(id, visible)
		if err != nil {
			return err
		}
		if clean, err = d.Render(dom.Clean); err != nil {
			return err
		}
		s.sync.Track(SliceHTML, clean)
		snap = &data

		s.mu.Lock()
		s.history.Push(before)
		if updated, ok := layers.UpdateNodeInTree(s.tree, id, layers.Patch{IsVisible: &visible}); ok {
			s.tree = updated
		}
		tree = layers.Clone(s.tree)
		s.mu.Unlock()
		return nil
	})
	if s.ignorable(err, "set_visibility", id) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.publish(EventElement, snap)
	s.publish(EventLayers, tree)
	return snap, nil
}

// SetLocked toggles editor-only lock state. Locks never reach the markup.
func (s *EditorSession) SetLocked(ctx context.Context, id string, locked bool) (bool, error) {
	var tree []editor.LayerNode
	var deselected bool
	err := s.frame.Do(ctx, func(*dom.Document) error {
		wasSelected := s.selection.SelectedID() == id
		if err := s.selection.SetLocked(id, locked); err != nil {
			return err
		}
		deselected = wasSelected && s.selection.SelectedID() == ""
		s.mu.Lock()
		if updated, ok := layers.UpdateNodeInTree(s.tree, id, layers.Patch{IsLocked: &locked}); ok {
			s.tree = updated
		}
		tree = layers.Clone(s.tree)
		s.mu.Unlock()
		return nil
	})
	if s.ignorable(err, "set_locked", id) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.publish(EventLayers, tree)
	if deselected {
		s.publish(EventSelection, nil)
	}
	return true, nil
}

// edit runs a selection write on the frame, records the previous document
// for undo, refreshes the layer tree and tracks the new markup. Tracking
// happens on the frame too, since Do may return on ctx after the mutation
// has landed.
func (s *EditorSession) edit(ctx context.Context, op, id string, fn func(*selection.Model) (editor.SelectedElementData, error)) (*editor.SelectedElementData, error) {
	start := time.Now()
	var snap *editor.SelectedElementData
	var clean string
	var tree []editor.LayerNode
	err := s.frame.Do(ctx, func(d *dom.Document) error {
		before, err := d.Render(dom.Raw)
		if err != nil {
			return err
		}
		data, err := fn(s.selection)
		if err != nil {
			return err
		}
		if clean, err = d.Render(dom.Clean); err != nil {
			return err
		}
		s.sync.Track(SliceHTML, clean)
		snap = &data

		s.mu.Lock()
		s.history.Push(before)
		s.tree = layers.MergeState(s.tree, layers.Build(d, d.Body(), layers.Options{Locked: s.selection.Locks()}))
		tree = layers.Clone(s.tree)
		s.mu.Unlock()
		return nil
	})
	if s.ignorable(err, op, id) {
		return nil, nil
	}
	if err != nil {
		s.logger.Editor().Warn("Edit rejected", "sessionId", s.id, "op", op, "elementId", id, "error", err)
		return nil, err
	}
	s.publish(EventElement, snap)
	s.publish(EventLayers, tree)
	s.logger.Editor().Debug("Edit applied", "sessionId", s.id, "op", op, "elementId", id, "duration", time.Since(start))
	return snap, nil
}

// ignorable reports lookup failures that are silent no-ops for callers.
func (s *EditorSession) ignorable(err error, op, id string) bool {
	if errors.Is(err, selection.ErrNodeNotFound) || errors.Is(err, selection.ErrNodeLocked) ||
		errors.Is(err, backgrounds.ErrAssetNotFound) || errors.Is(err, artboards.ErrArtboardNotFound) {
		s.logger.Editor().Debug("Operation skipped", "sessionId", s.id, "op", op, "id", id, "reason", err)
		return true
	}
	return false
}

// Layers

// Layers returns a copy of the current layer tree.
func (s *EditorSession) Layers() []editor.LayerNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return layers.Clone(s.tree)
}

// RefreshLayers rebuilds the tree from the live document, keeping the
// expansion state of nodes that still exist.
func (s *EditorSession) RefreshLayers(ctx context.Context) ([]editor.LayerNode, error) {
	var tree []editor.LayerNode
	err := s.frame.Do(ctx, func(d *dom.Document) error {
		rebuilt := layers.Build(d, d.Body(), layers.Options{Locked: s.selection.Locks()})
		s.mu.Lock()
		s.tree = layers.MergeState(s.tree, rebuilt)
		tree = layers.Clone(s.tree)
		s.mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(EventLayers, tree)
	return tree, nil
}

func (s *EditorSession) ToggleLayerExpanded(id string) []editor.LayerNode {
	s.mu.Lock()
	s.tree = layers.ToggleNodeExpanded(s.tree, id)
	tree := layers.Clone(s.tree)
	s.mu.Unlock()
	s.publish(EventLayers, tree)
	return tree
}

// RevealLayer expands every ancestor of id so the node is visible in the
// panel.
func (s *EditorSession) RevealLayer(id string) []editor.LayerNode {
	s.mu.Lock()
	s.tree = layers.ExpandPathToNode(s.tree, id)
	tree := layers.Clone(s.tree)
	s.mu.Unlock()
	s.publish(EventLayers, tree)
	return tree
}

// FilterLayers returns a filtered view; the stored tree is unchanged.
func (s *EditorSession) FilterLayers(query string) []editor.LayerNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return layers.Filter(s.tree, query)
}

// Backgrounds

func (s *EditorSession) Backgrounds() []editor.BackgroundAsset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backgrounds.List()
}

func (s *EditorSession) AddBackground(asset backgrounds.NewAsset) (*editor.BackgroundAsset, error) {
	return s.editBackgrounds("add", "", func(st *backgrounds.Stack) (editor.BackgroundAsset, error) {
		return st.Add(asset)
	})
}

func (s *EditorSession) UpdateBackground(id string, patch backgrounds.Patch) (*editor.BackgroundAsset, error) {
	return s.editBackgrounds("update", id, func(st *backgrounds.Stack) (editor.BackgroundAsset, error) {
		return st.Update(id, patch)
	})
}

// ToggleBackgroundVisibility hides or restores an asset, keeping its
// previous opacity.
func (s *EditorSession) ToggleBackgroundVisibility(id string) (*editor.BackgroundAsset, error) {
	return s.editBackgrounds("toggle_visibility", id, func(st *backgrounds.Stack) (editor.BackgroundAsset, error) {
		return st.ToggleVisibility(id)
	})
}

func (s *EditorSession) RemoveBackground(id string) (bool, error) {
	a, err := s.editBackgrounds("remove", id, func(st *backgrounds.Stack) (editor.BackgroundAsset, error) {
		removed, _ := st.Get(id)
		return removed, st.Remove(id)
	})
	return a != nil, err
}

func (s *EditorSession) MoveBackground(id string, index int) (bool, error) {
	a, err := s.editBackgrounds("move", id, func(st *backgrounds.Stack) (editor.BackgroundAsset, error) {
		moved, _ := st.Get(id)
		return moved, st.Move(id, index)
	})
	return a != nil, err
}

func (s *EditorSession) editBackgrounds(op, id string, fn func(*backgrounds.Stack) (editor.BackgroundAsset, error)) (*editor.BackgroundAsset, error) {
	s.mu.Lock()
	asset, err := fn(s.backgrounds)
	list := s.backgrounds.List()
	s.mu.Unlock()
	if s.ignorable(err, "background_"+op, id) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.sync.Track(SliceBackgrounds, marshalPayload(list))
	s.publish(EventBackgrounds, list)
	s.logger.Backgrounds().Debug("Background stack updated", "sessionId", s.id, "op", op, "assetId", asset.ID, "count", len(list))
	return &asset, nil
}

func (s *EditorSession) backgroundsPayload() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return marshalPayload(s.backgrounds.List())
}

// Artboards and canvas

func (s *EditorSession) Canvas() editor.CanvasSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canvas.Settings()
}

func (s *EditorSession) AddArtboard(device editor.Device) (*editor.Artboard, error) {
	return s.editArtboard("add", "", func(c *artboards.Canvas) (editor.Artboard, error) {
		return c.AddArtboard(device)
	})
}

func (s *EditorSession) SetArtboardDevice(id string, device editor.Device) (*editor.Artboard, error) {
	return s.editArtboard("set_device", id, func(c *artboards.Canvas) (editor.Artboard, error) {
		return c.SetArtboardDevice(id, device)
	})
}

func (s *EditorSession) SetArtboardDimensions(id string, width, height int) (*editor.Artboard, error) {
	return s.editArtboard("set_dimensions", id, func(c *artboards.Canvas) (editor.Artboard, error) {
		return c.SetArtboardDimensions(id, width, height)
	})
}

func (s *EditorSession) DuplicateArtboard(id string) (*editor.Artboard, error) {
	return s.editArtboard("duplicate", id, func(c *artboards.Canvas) (editor.Artboard, error) {
		return c.DuplicateArtboard(id)
	})
}

func (s *EditorSession) MoveArtboard(id string, to editor.Point) (*editor.Artboard, error) {
	return s.editArtboard("move", id, func(c *artboards.Canvas) (editor.Artboard, error) {
		return c.Move(id, to)
	})
}

func (s *EditorSession) SetArtboardScale(id string, scale float64) (*editor.Artboard, error) {
	return s.editArtboard("set_scale", id, func(c *artboards.Canvas) (editor.Artboard, error) {
		return c.SetScale(id, scale)
	})
}

func (s *EditorSession) RenameArtboard(id, name string) (*editor.Artboard, error) {
	return s.editArtboard("rename", id, func(c *artboards.Canvas) (editor.Artboard, error) {
		return c.Rename(id, name)
	})
}

func (s *EditorSession) RemoveArtboard(id string) (bool, error) {
	a, err := s.editArtboard("remove", id, func(c *artboards.Canvas) (editor.Artboard, error) {
		removed, _ := c.Get(id)
		return removed, c.RemoveArtboard(id)
	})
	return a != nil, err
}

// SelectArtboard selects id, or clears the artboard selection when id is
// empty.
func (s *EditorSession) SelectArtboard(id string) (bool, error) {
	a, err := s.editArtboard("select", id, func(c *artboards.Canvas) (editor.Artboard, error) {
		selected, _ := c.Get(id)
		return selected, c.Select(id)
	})
	return a != nil, err
}

// ViewUpdate is a partial change of the canvas view settings.
type ViewUpdate struct {
	Zoom            *float64                `json:"zoom,omitempty"`
	PanX            *float64                `json:"panX,omitempty"`
	PanY            *float64                `json:"panY,omitempty"`
	ShowGrid        *bool                   `json:"showGrid,omitempty"`
	InteractionMode *editor.InteractionMode `json:"interactionMode,omitempty"`
}

func (s *EditorSession) UpdateView(u ViewUpdate) editor.CanvasSettings {
	s.mu.Lock()
	if u.Zoom != nil {
		s.canvas.SetZoom(*u.Zoom)
	}
	if u.PanX != nil || u.PanY != nil {
		settings := s.canvas.Settings()
		x, y := settings.PanX, settings.PanY
		if u.PanX != nil {
			x = *u.PanX
		}
		if u.PanY != nil {
			y = *u.PanY
		}
		s.canvas.SetPan(x, y)
	}
	if u.ShowGrid != nil {
		s.canvas.SetShowGrid(*u.ShowGrid)
	}
	if u.InteractionMode != nil {
		s.canvas.SetInteractionMode(*u.InteractionMode)
	}
	settings := s.canvas.Settings()
	s.mu.Unlock()
	s.publish(EventCanvas, settings)
	return settings
}

// editArtboard applies a canvas change. The canvas slice is picked up by the
// session's watch loop rather than tracked here.
func (s *EditorSession) editArtboard(op, id string, fn func(*artboards.Canvas) (editor.Artboard, error)) (*editor.Artboard, error) {
	s.mu.Lock()
	a, err := fn(s.canvas)
	settings := s.canvas.Settings()
	s.mu.Unlock()
	if s.ignorable(err, "artboard_"+op, id) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.publish(EventCanvas, settings)
	s.logger.Artboards().Debug("Canvas updated", "sessionId", s.id, "op", op, "artboardId", a.ID)
	return &a, nil
}

func (s *EditorSession) canvasPayload() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return marshalPayload(s.canvas.Settings())
}

// RenderArtboard renders one artboard's isolated preview of the page.
func (s *EditorSession) RenderArtboard(ctx context.Context, id string) (string, bool, error) {
	s.mu.Lock()
	a, ok := s.canvas.Get(id)
	s.mu.Unlock()
	if !ok {
		return "", false, nil
	}
	page, err := s.RenderHTML(ctx)
	if err != nil {
		return "", true, err
	}
	out, err := artboards.RenderPreview(a, page)
	return out, true, err
}

// RenderWorkspace renders every artboard on the panned and zoomed canvas.
func (s *EditorSession) RenderWorkspace(ctx context.Context) (string, error) {
	page, err := s.RenderHTML(ctx)
	if err != nil {
		return "", err
	}
	return artboards.RenderCanvas(s.Canvas(), page)
}

// Document

// Undo restores the document before the last edit. It reports false when
// there is nothing to undo.
func (s *EditorSession) Undo(ctx context.Context) (bool, error) {
	return s.travel(ctx, "undo", func(h *history.History, current string) (string, bool) {
		return h.Undo(current)
	})
}

func (s *EditorSession) Redo(ctx context.Context) (bool, error) {
	return s.travel(ctx, "redo", func(h *history.History, current string) (string, bool) {
		return h.Redo(current)
	})
}

// travel swaps in a history state. States keep their element ids, so the
// selection and layer expansion survive where the elements still exist.
func (s *EditorSession) travel(ctx context.Context, op string, step func(*history.History, string) (string, bool)) (bool, error) {
	var moved bool
	var clean string
	var tree []editor.LayerNode
	var snap *editor.SelectedElementData
	err := s.frame.Do(ctx, func(d *dom.Document) error {
		current, err := d.Render(dom.Raw)
		if err != nil {
			return err
		}
		s.mu.Lock()
		state, ok := step(s.history, current)
		s.mu.Unlock()
		if !ok {
			return nil
		}
		if err := d.Replace(state); err != nil {
			return err
		}
		if clean, err = d.Render(dom.Clean); err != nil {
			return err
		}
		s.sync.Track(SliceHTML, clean)
		if data, ok := s.selection.Selected(); ok {
			snap = &data
		}
		rebuilt := layers.Build(d, d.Body(), layers.Options{Locked: s.selection.Locks()})
		s.mu.Lock()
		s.tree = layers.MergeState(s.tree, rebuilt)
		tree = layers.Clone(s.tree)
		s.mu.Unlock()
		moved = true
		return nil
	})
	if err != nil || !moved {
		return false, err
	}
	s.publish(EventDocument, map[string]string{"op": op})
	s.publish(EventLayers, tree)
	s.publish(EventSelection, snap)
	s.logger.Editor().Info("History step applied", "sessionId", s.id, "op", op)
	return true, nil
}

// ReplaceHTML loads new markup as a structural replacement: selection and
// locks are dropped and the layer tree starts fresh.
func (s *EditorSession) ReplaceHTML(ctx context.Context, markup string) error {
	return s.replace(ctx, markup, true)
}

func (s *EditorSession) replace(ctx context.Context, markup string, record bool) error {
	var clean string
	var tree []editor.LayerNode
	err := s.frame.Do(ctx, func(d *dom.Document) error {
		before, err := d.Render(dom.Raw)
		if err != nil {
			return err
		}
		if err := d.Replace(backgrounds.Strip(markup)); err != nil {
			return err
		}
		if clean, err = d.Render(dom.Clean); err != nil {
			return err
		}
		s.sync.Track(SliceHTML, clean)
		s.selection.Reset()
		rebuilt := layers.Build(d, d.Body(), layers.Options{})
		s.mu.Lock()
		if record {
			s.history.Push(before)
		}
		s.tree = rebuilt
		tree = layers.Clone(rebuilt)
		s.mu.Unlock()
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(EventDocument, map[string]string{"op": "replace"})
	s.publish(EventLayers, tree)
	s.publish(EventSelection, nil)
	return nil
}

// Generate asks the generator for a new page from prompt and applies the
// result as a replacement. While streaming, each partial result is applied
// so clients see progress, and autosave waits for the longer stream window.
func (s *EditorSession) Generate(ctx context.Context, prompt string, stream bool) error {
	if s.generator == nil {
		return ErrGeneratorUnavailable
	}
	s.mu.Lock()
	if s.generating {
		s.mu.Unlock()
		return ErrGenerationInProgress
	}
	s.generating = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.generating = false
		s.mu.Unlock()
	}()

	current, err := s.CleanHTML(ctx)
	if err != nil {
		return err
	}
	start := time.Now()
	req := editor.GenerationRequest{Prompt: prompt, HTML: current, Stream: stream}
	s.logger.AI().Info("Generation started", "sessionId", s.id, "stream", stream, "promptLength", len(prompt))
	s.publish(EventGeneration, GenerationEvent{Status: "started"})

	var result string
	if stream {
		s.sync.SetStreaming(true)
		defer s.sync.SetStreaming(false)
		recorded := false
		result, err = s.generator.Stream(ctx, req, func(partial string) {
			if partial == "" {
				return
			}
			if applyErr := s.replace(ctx, partial, !recorded); applyErr != nil {
				s.logger.AI().Debug("Partial result not applied", "sessionId", s.id, "error", applyErr)
				return
			}
			recorded = true
			s.publish(EventGeneration, GenerationEvent{Status: "streaming", Bytes: len(partial)})
		})
		if err == nil {
			err = s.replace(ctx, result, !recorded)
		}
	} else {
		result, err = s.generator.Generate(ctx, req)
		if err == nil {
			err = s.replace(ctx, result, true)
		}
	}

	if err != nil {
		s.logger.AI().Error("Generation failed", "sessionId", s.id, "error", err, "duration", time.Since(start))
		s.publish(EventGeneration, GenerationEvent{Status: "error", Error: err.Error()})
		return fmt.Errorf("generation failed: %w", err)
	}
	s.logger.AI().Info("Generation completed", "sessionId", s.id, "bytes", len(result), "duration", time.Since(start))
	s.publish(EventGeneration, GenerationEvent{Status: "complete", Bytes: len(result)})
	return nil
}

// CleanHTML renders the document without editor bookkeeping or backgrounds.
func (s *EditorSession) CleanHTML(ctx context.Context) (string, error) {
	var out string
	err := s.frame.Do(ctx, func(d *dom.Document) error {
		var err error
		out, err = d.Render(dom.Clean)
		return err
	})
	return out, err
}

// RenderHTML renders the publishable page: clean markup with the background
// layer injected.
func (s *EditorSession) RenderHTML(ctx context.Context) (string, error) {
	markup, err := s.CleanHTML(ctx)
	if err != nil {
		return "", err
	}
	return backgrounds.Inject(markup, s.Backgrounds())
}

// ExportHTML renders the publishable page, indented when pretty is set.
func (s *EditorSession) ExportHTML(ctx context.Context, pretty bool) (string, error) {
	var markup string
	err := s.frame.Do(ctx, func(d *dom.Document) error {
		var err error
		markup, err = d.Export(pretty)
		return err
	})
	if err != nil {
		return "", err
	}
	return backgrounds.Inject(markup, s.Backgrounds())
}

// SaveStatus reports the synchronizer's aggregate state.
func (s *EditorSession) SaveStatus() SaveStatus { return s.sync.Status() }

// Flush writes pending changes now.
func (s *EditorSession) Flush(ctx context.Context) error { return s.sync.Flush(ctx) }

func (s *EditorSession) publish(event string, payload any) {
	s.publisher.Publish(s.id, event, payload)
}

func marshalPayload(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
