package artboards

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/AtRiskMedia/pagecraft-go/internal/domain/entities/editor"
)

var (
	ErrArtboardNotFound = errors.New("artboard not found")
	ErrInvalidDevice    = errors.New("invalid device")
	ErrInvalidName      = errors.New("artboard name is empty")
)

// Canvas owns the artboards and view settings of one editor session.
type Canvas struct {
	artboards []editor.Artboard
	selected  string
	zoom      float64
	panX      float64
	panY      float64
	showGrid  bool
	mode      editor.InteractionMode
	newID     func() string
}

func NewCanvas(newID func() string) *Canvas {
	c := &Canvas{newID: newID}
	c.Load(editor.DefaultCanvasSettings())
	return c
}

// AddArtboard places a new artboard right of the rightmost one and selects
// it.
func (c *Canvas) AddArtboard(device editor.Device) (editor.Artboard, error) {
	if !validDevice(device) {
		return editor.Artboard{}, fmt.Errorf("%w: %q", ErrInvalidDevice, device)
	}
	width, height := customWidth, customHeight
	if p, ok := PresetFor(device); ok {
		width, height = p.Width, p.Height
	}
	a := editor.Artboard{
		ID:       c.newID(),
		Name:     c.nextName(device),
		Device:   device,
		Width:    width,
		Height:   height,
		Scale:    1,
		Position: c.nextPosition(),
	}
	c.artboards = append(c.artboards, a)
	c.selected = a.ID
	return a, nil
}

// nextName returns the device label, or "<Label> N" with the lowest N >= 2
// no artboard uses yet.
func (c *Canvas) nextName(device editor.Device) string {
	taken := make(map[string]bool, len(c.artboards))
	for _, a := range c.artboards {
		taken[a.Name] = true
	}
	name := label(device)
	if !taken[name] {
		return name
	}
	for n := 2; ; n++ {
		if candidate := name + " " + strconv.Itoa(n); !taken[candidate] {
			return candidate
		}
	}
}

func (c *Canvas) nextPosition() editor.Point {
	if len(c.artboards) == 0 {
		return editor.Point{}
	}
	right := math.Inf(-1)
	for _, a := range c.artboards {
		edge := a.Position.X + float64(a.Width)*a.Scale
		if edge > right {
			right = edge
		}
	}
	return editor.Point{X: right + Gap, Y: 0}
}

// SetArtboardDevice snaps the size to the device preset. A name still equal
// to the previous device's generated name follows the new device.
func (c *Canvas) SetArtboardDevice(id string, device editor.Device) (editor.Artboard, error) {
	if !validDevice(device) {
		return editor.Artboard{}, fmt.Errorf("%w: %q", ErrInvalidDevice, device)
	}
	i, err := c.index(id)
	if err != nil {
		return editor.Artboard{}, err
	}
	a := c.artboards[i]
	if a.Device == device {
		return a, nil
	}
	if isDefaultName(a.Device, a.Name) {
		a.Name = c.nextName(device)
	}
	a.Device = device
	if p, ok := PresetFor(device); ok {
		a.Width, a.Height = p.Width, p.Height
	}
	c.artboards[i] = a
	return a, nil
}

// SetArtboardDimensions resizes an artboard, clamping to the minimum. The
// device follows the size: a preset's exact size selects that preset,
// anything else is custom.
func (c *Canvas) SetArtboardDimensions(id string, width, height int) (editor.Artboard, error) {
	i, err := c.index(id)
	if err != nil {
		return editor.Artboard{}, err
	}
	a := c.artboards[i]
	a.Width = max(width, MinDimension)
	a.Height = max(height, MinDimension)
	if p, ok := MatchPreset(a.Width, a.Height); ok {
		a.Device = p.Device
	} else {
		a.Device = editor.DeviceCustom
	}
	c.artboards[i] = a
	return a, nil
}

// RemoveArtboard deletes an artboard. A removed selection falls back to the
// preceding artboard, to the new first one when the first was removed, or
// to none.
func (c *Canvas) RemoveArtboard(id string) error {
	i, err := c.index(id)
	if err != nil {
		return err
	}
	c.artboards = append(c.artboards[:i], c.artboards[i+1:]...)
	if c.selected != id {
		return nil
	}
	switch {
	case len(c.artboards) == 0:
		c.selected = ""
	case i > 0:
		c.selected = c.artboards[i-1].ID
	default:
		c.selected = c.artboards[0].ID
	}
	return nil
}

// DuplicateArtboard clones an artboard with a new id, a "Copy" name and a
// fresh placement, and selects the clone.
func (c *Canvas) DuplicateArtboard(id string) (editor.Artboard, error) {
	i, err := c.index(id)
	if err != nil {
		return editor.Artboard{}, err
	}
	clone := c.artboards[i]
	clone.ID = c.newID()
	clone.Name = clone.Name + " Copy"
	clone.Position = c.nextPosition()
	c.artboards = append(c.artboards, clone)
	c.selected = clone.ID
	return clone, nil
}

// Select sets the selected artboard; an empty id clears the selection.
func (c *Canvas) Select(id string) error {
	if id == "" {
		c.selected = ""
		return nil
	}
	if _, err := c.index(id); err != nil {
		return err
	}
	c.selected = id
	return nil
}

func (c *Canvas) SelectedID() string { return c.selected }

func (c *Canvas) Move(id string, to editor.Point) (editor.Artboard, error) {
	return c.update(id, func(a *editor.Artboard) error {
		a.Position = to
		return nil
	})
}

func (c *Canvas) SetScale(id string, scale float64) (editor.Artboard, error) {
	return c.update(id, func(a *editor.Artboard) error {
		a.Scale = clampFloat(scale, MinScale, MaxScale)
		return nil
	})
}

func (c *Canvas) Rename(id, name string) (editor.Artboard, error) {
	return c.update(id, func(a *editor.Artboard) error {
		name = strings.TrimSpace(name)
		if name == "" {
			return ErrInvalidName
		}
		a.Name = name
		return nil
	})
}

func (c *Canvas) SetZoom(zoom float64) { c.zoom = clampFloat(zoom, MinZoom, MaxZoom) }

func (c *Canvas) SetPan(x, y float64) { c.panX, c.panY = x, y }

func (c *Canvas) SetShowGrid(show bool) { c.showGrid = show }

func (c *Canvas) SetInteractionMode(mode editor.InteractionMode) {
	if mode == editor.ModePreview {
		c.mode = editor.ModePreview
		return
	}
	c.mode = editor.ModeDesign
}

func (c *Canvas) Mode() editor.InteractionMode { return c.mode }

func (c *Canvas) Get(id string) (editor.Artboard, bool) {
	i, err := c.index(id)
	if err != nil {
		return editor.Artboard{}, false
	}
	return c.artboards[i], true
}

func (c *Canvas) List() []editor.Artboard {
	out := make([]editor.Artboard, len(c.artboards))
	copy(out, c.artboards)
	return out
}

// Settings returns a detached copy of the persisted canvas state.
func (c *Canvas) Settings() editor.CanvasSettings {
	s := editor.CanvasSettings{
		Artboards:       c.List(),
		Zoom:            c.zoom,
		PanX:            c.panX,
		PanY:            c.panY,
		ShowGrid:        c.showGrid,
		InteractionMode: c.mode,
	}
	if c.selected != "" {
		selected := c.selected
		s.SelectedArtboardID = &selected
	}
	return s
}

// Load replaces the canvas state with persisted settings, normalizing
// out-of-range values.
func (c *Canvas) Load(s editor.CanvasSettings) {
	c.artboards = make([]editor.Artboard, 0, len(s.Artboards))
	for _, a := range s.Artboards {
		if a.ID == "" {
			a.ID = c.newID()
		}
		if !validDevice(a.Device) {
			a.Device = editor.DeviceCustom
		}
		a.Width = max(a.Width, MinDimension)
		a.Height = max(a.Height, MinDimension)
		if a.Scale == 0 {
			a.Scale = 1
		}
		a.Scale = clampFloat(a.Scale, MinScale, MaxScale)
		c.artboards = append(c.artboards, a)
	}
	c.selected = ""
	if s.SelectedArtboardID != nil {
		if _, err := c.index(*s.SelectedArtboardID); err == nil {
			c.selected = *s.SelectedArtboardID
		}
	}
	c.zoom = s.Zoom
	if c.zoom == 0 {
		c.zoom = 1
	}
	c.zoom = clampFloat(c.zoom, MinZoom, MaxZoom)
	c.panX, c.panY = s.PanX, s.PanY
	c.showGrid = s.ShowGrid
	c.SetInteractionMode(s.InteractionMode)
}

func (c *Canvas) update(id string, fn func(*editor.Artboard) error) (editor.Artboard, error) {
	i, err := c.index(id)
	if err != nil {
		return editor.Artboard{}, err
	}
	a := c.artboards[i]
	if err := fn(&a); err != nil {
		return editor.Artboard{}, err
	}
	c.artboards[i] = a
	return a, nil
}

func (c *Canvas) index(id string) (int, error) {
	for i, a := range c.artboards {
		if a.ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrArtboardNotFound, id)
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
