// Package selection tracks the selected element of a live document, builds
// inspection snapshots and routes property writes back into the document.
package selection

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/AtRiskMedia/pagecraft-go/internal/domain/dom"
	"github.com/AtRiskMedia/pagecraft-go/internal/domain/entities/editor"
	"github.com/AtRiskMedia/pagecraft-go/internal/domain/styles"
	"golang.org/x/net/html"
)

var (
	ErrNodeNotFound = errors.New("node not found")
	ErrNodeLocked   = errors.New("node is locked")
)

// Model is the selection state of one editor session. Lock state lives here,
// never in the markup.
type Model struct {
	doc      dom.Live
	selected string
	locked   map[string]bool
}

func NewModel(doc dom.Live) *Model {
	return &Model{doc: doc, locked: make(map[string]bool)}
}

// SelectElement selects the node with id. Locked or unknown ids leave the
// selection unchanged and report false.
func (m *Model) SelectElement(id string) bool {
	if m.locked[id] {
		return false
	}
	if m.doc.NodeByID(id) == nil {
		return false
	}
	m.selected = id
	return true
}

// SelectNode selects a node picked directly on the canvas, assigning it an id
// first if needed.
func (m *Model) SelectNode(n *html.Node) (string, bool) {
	if n == nil || n.Type != html.ElementNode || !m.doc.Attached(n) {
		return "", false
	}
	id := m.doc.EnsureID(n)
	return id, m.SelectElement(id)
}

func (m *Model) Deselect() { m.selected = "" }

// SelectedID returns the current selection, clearing it if its node is gone.
func (m *Model) SelectedID() string {
	if m.selected != "" && m.doc.NodeByID(m.selected) == nil {
		m.selected = ""
	}
	return m.selected
}

// Selected returns a fresh snapshot of the selected node.
func (m *Model) Selected() (editor.SelectedElementData, bool) {
	id := m.SelectedID()
	if id == "" {
		return editor.SelectedElementData{}, false
	}
	return m.BuildSnapshot(m.doc.NodeByID(id)), true
}

// BuildSnapshot reads n into a point-in-time snapshot.
func (m *Model) BuildSnapshot(n *html.Node) editor.SelectedElementData {
	attrs := m.doc.Attributes(n)
	computed := m.doc.ComputedStyles(n, styles.InspectedProperties)
	inline := m.doc.InlineStyles(n)
	active := styles.GetActiveProperties(styles.InspectedProperties, computed, inline)
	sections := make(map[string]bool, len(styles.Sections))
	for section, on := range styles.ActiveSections(active) {
		sections[string(section)] = on
	}
	return editor.SelectedElementData{
		ID:               m.doc.EnsureID(n),
		TagName:          n.Data,
		TextContent:      m.doc.TextContent(n),
		InnerHTML:        m.doc.InnerHTML(n, dom.Clean),
		OuterHTML:        m.doc.OuterHTML(n, dom.Clean),
		Classes:          strings.Join(m.doc.Classes(n), " "),
		ElementID:        attrs["id"],
		Attributes:       attrs,
		ComputedStyles:   computed,
		InlineStyles:     inline,
		ActiveProperties: active,
		ActiveSections:   sections,
	}
}

func (m *Model) SetStyle(id, property, value string) (editor.SelectedElementData, error) {
	return m.write(id, func(n *html.Node) error { return m.doc.SetStyle(n, property, value) })
}

func (m *Model) RemoveStyle(id, property string) (editor.SelectedElementData, error) {
	return m.write(id, func(n *html.Node) error { return m.doc.RemoveStyle(n, property) })
}

func (m *Model) SetAttribute(id, name, value string) (editor.SelectedElementData, error) {
	return m.write(id, func(n *html.Node) error { return m.doc.SetAttribute(n, name, value) })
}

func (m *Model) RemoveAttribute(id, name string) (editor.SelectedElementData, error) {
	return m.write(id, func(n *html.Node) error { return m.doc.RemoveAttribute(n, name) })
}

// SetClassList replaces the user classes from a space-separated list.
func (m *Model) SetClassList(id, classes string) (editor.SelectedElementData, error) {
	return m.write(id, func(n *html.Node) error { return m.doc.SetClasses(n, strings.Fields(classes)) })
}

func (m *Model) SetTextContent(id, text string) (editor.SelectedElementData, error) {
	return m.write(id, func(n *html.Node) error { return m.doc.SetTextContent(n, text) })
}

// SetInnerHTML replaces the children of a node. The fragment is parsed before
// anything changes.
func (m *Model) SetInnerHTML(id, fragment string) (editor.SelectedElementData, error) {
	return m.write(id, func(n *html.Node) error { return m.doc.SetInnerHTML(n, fragment) })
}

// SetVisibility writes or clears display:none. Callers update the layer tree
// in the same critical section.
func (m *Model) SetVisibility(id string, visible bool) (editor.SelectedElementData, error) {
	return m.write(id, func(n *html.Node) error { return m.doc.SetHidden(n, !visible) })
}

// SetLocked toggles editor-only lock state. Locking the selected node clears
// the selection.
func (m *Model) SetLocked(id string, locked bool) error {
	if m.doc.NodeByID(id) == nil {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if !locked {
		delete(m.locked, id)
		return nil
	}
	m.locked[id] = true
	if m.selected == id {
		m.selected = ""
	}
	return nil
}

func (m *Model) IsLocked(id string) bool { return m.locked[id] }

// LockedIDs returns the locked ids in sorted order.
func (m *Model) LockedIDs() []string {
	ids := make([]string, 0, len(m.locked))
	for id := range m.locked {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Locks returns a copy of the lock set for layer building.
func (m *Model) Locks() map[string]bool {
	out := make(map[string]bool, len(m.locked))
	for id := range m.locked {
		out[id] = true
	}
	return out
}

// Reset drops selection and locks after a structural document replacement.
func (m *Model) Reset() {
	m.selected = ""
	m.locked = make(map[string]bool)
}

func (m *Model) write(id string, fn func(*html.Node) error) (editor.SelectedElementData, error) {
	if m.locked[id] {
		return editor.SelectedElementData{}, fmt.Errorf("%w: %s", ErrNodeLocked, id)
	}
	n := m.doc.NodeByID(id)
	if n == nil {
		return editor.SelectedElementData{}, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if err := fn(n); err != nil {
		return editor.SelectedElementData{}, err
	}
	return m.BuildSnapshot(n), nil
}
