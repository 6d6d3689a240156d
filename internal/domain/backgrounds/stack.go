// Package backgrounds manages the ordered background asset stack of a page
// and renders it into the document as an isolated layer beneath content.
package backgrounds

import (
	"errors"
	"fmt"

	"github.com/AtRiskMedia/pagecraft-go/internal/domain/entities/editor"
)

var (
	ErrAssetNotFound = errors.New("background asset not found")
	ErrInvalidAsset  = errors.New("invalid background asset")
)

// Stack is the ordered asset list of one page. List order is paint order.
type Stack struct {
	assets []editor.BackgroundAsset
	newID  func() string
}

// NewStack creates an empty stack. newID supplies ids for added assets.
func NewStack(newID func() string) *Stack {
	return &Stack{assets: []editor.BackgroundAsset{}, newID: newID}
}

// Defaults returns an asset of the given type with every effect at identity.
func Defaults(t editor.AssetType) editor.BackgroundAsset {
	a := editor.BackgroundAsset{
		Type:          t,
		Position:      editor.PositionFixed,
		ZIndex:        -1,
		Width:         "100%",
		Height:        "100%",
		ObjectFit:     "cover",
		Saturation:    100,
		Brightness:    100,
		Opacity:       100,
		AlphaMask:     editor.AlphaMask{Type: editor.MaskNone, Intensity: 50},
		Overlay:       editor.Overlay{Color: "#000000", Opacity: 50},
		BlendMode:     "normal",
		PointerEvents: "none",
	}
	if t == editor.AssetVideo {
		a.Autoplay, a.Loop, a.Muted = true, true, true
	}
	return a
}

// NewAsset is an add request: an asset type plus fields that override that
// type's defaults. Fields left out keep the default; explicit zeros stick.
type NewAsset struct {
	Type editor.AssetType `json:"type"`
	Patch
}

// Add validates and appends an asset, assigning a fresh id. The new asset
// paints above every existing one.
func (s *Stack) Add(req NewAsset) (editor.BackgroundAsset, error) {
	asset := req.Patch.apply(Defaults(req.Type))
	if err := validate(asset); err != nil {
		return editor.BackgroundAsset{}, err
	}
	asset.ID = s.newID()
	clampAsset(&asset)
	s.assets = append(s.assets, asset)
	s.renumber()
	return s.assets[len(s.assets)-1], nil
}

// renumber derives every z-index from list position: the first asset gets
// -len and the last gets -1.
func (s *Stack) renumber() {
	for i := range s.assets {
		s.assets[i].ZIndex = i - len(s.assets)
	}
}

func validate(a editor.BackgroundAsset) error {
	switch a.Type {
	case editor.AssetImage, editor.AssetVideo:
		if a.Src == "" {
			return fmt.Errorf("%w: %s asset needs a src", ErrInvalidAsset, a.Type)
		}
	case editor.AssetEmbed:
		if a.Src == "" && a.EmbedCode == "" {
			return fmt.Errorf("%w: embed asset needs a src or embed code", ErrInvalidAsset)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidAsset, a.Type)
	}
	return nil
}

func clampAsset(a *editor.BackgroundAsset) {
	a.Hue = clamp(a.Hue, 0, 360)
	a.Saturation = clamp(a.Saturation, 0, 200)
	a.Brightness = clamp(a.Brightness, 0, 200)
	a.Blur = clamp(a.Blur, 0, 50)
	a.Opacity = clamp(a.Opacity, 0, 100)
	a.RestoreOpacity = clamp(a.RestoreOpacity, 0, 100)
	a.AlphaMask.Intensity = clamp(a.AlphaMask.Intensity, 0, 100)
	a.Overlay.Opacity = clamp(a.Overlay.Opacity, 0, 100)
	if a.ZIndex >= 0 {
		a.ZIndex = -1
	}
	if a.PointerEvents != "auto" {
		a.PointerEvents = "none"
	}
	if a.Position != editor.PositionAbsolute {
		a.Position = editor.PositionFixed
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Update applies a partial patch. Fields absent from the patch keep their
// values; the z-index always follows list position.
func (s *Stack) Update(id string, patch Patch) (editor.BackgroundAsset, error) {
	i := s.index(id)
	if i < 0 {
		return editor.BackgroundAsset{}, fmt.Errorf("%w: %s", ErrAssetNotFound, id)
	}
	updated := patch.apply(s.assets[i])
	if err := validate(updated); err != nil {
		return editor.BackgroundAsset{}, err
	}
	clampAsset(&updated)
	s.assets[i] = updated
	s.renumber()
	return s.assets[i], nil
}

func (s *Stack) Remove(id string) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrAssetNotFound, id)
	}
	s.assets = append(s.assets[:i], s.assets[i+1:]...)
	s.renumber()
	return nil
}

// Move relocates an asset within the paint order. The index is clamped to
// the list bounds.
func (s *Stack) Move(id string, index int) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrAssetNotFound, id)
	}
	asset := s.assets[i]
	rest := append(s.assets[:i:i], s.assets[i+1:]...)
	index = clamp(index, 0, len(rest))
	moved := make([]editor.BackgroundAsset, 0, len(s.assets))
	moved = append(moved, rest[:index]...)
	moved = append(moved, asset)
	moved = append(moved, rest[index:]...)
	s.assets = moved
	s.renumber()
	return nil
}

// ToggleVisibility hides an asset by zeroing its opacity, remembering the
// previous value, and restores it when shown again.
func (s *Stack) ToggleVisibility(id string) (editor.BackgroundAsset, error) {
	i := s.index(id)
	if i < 0 {
		return editor.BackgroundAsset{}, fmt.Errorf("%w: %s", ErrAssetNotFound, id)
	}
	a := s.assets[i]
	if a.IsHidden() {
		a.Opacity = a.RestoreOpacity
		if a.Opacity == 0 {
			a.Opacity = 100
		}
		a.RestoreOpacity = 0
	} else {
		a.RestoreOpacity = a.Opacity
		a.Opacity = 0
	}
	s.assets[i] = a
	return a, nil
}

func (s *Stack) Get(id string) (editor.BackgroundAsset, bool) {
	i := s.index(id)
	if i < 0 {
		return editor.BackgroundAsset{}, false
	}
	return s.assets[i], true
}

// List returns a copy of the stack in paint order.
func (s *Stack) List() []editor.BackgroundAsset {
	out := make([]editor.BackgroundAsset, len(s.assets))
	copy(out, s.assets)
	return out
}

// Replace loads a persisted list. Invalid entries are dropped and z-indices
// are rebuilt from list order.
func (s *Stack) Replace(assets []editor.BackgroundAsset) {
	s.assets = make([]editor.BackgroundAsset, 0, len(assets))
	for _, a := range assets {
		if validate(a) != nil {
			continue
		}
		if a.ID == "" {
			a.ID = s.newID()
		}
		clampAsset(&a)
		s.assets = append(s.assets, a)
	}
	s.renumber()
}

func (s *Stack) index(id string) int {
	for i, a := range s.assets {
		if a.ID == id {
			return i
		}
	}
	return -1
}
