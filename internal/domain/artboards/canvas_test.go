package artboards

import (
	"html"
	"strconv"
	"strings"
	"testing"

	"github.com/AtRiskMedia/pagecraft-go/internal/domain/entities/editor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCanvas() *Canvas {
	n := 0
	return NewCanvas(func() string {
		n++
		return "ab-" + strconv.Itoa(n)
	})
}

func TestAddArtboardPlacementNamingAndSelection(t *testing.T) {
	c := newTestCanvas()

	first, err := c.AddArtboard(editor.DeviceDesktop)
	require.NoError(t, err)
	assert.Equal(t, "Desktop", first.Name)
	assert.Equal(t, editor.Point{}, first.Position)
	assert.Equal(t, first.ID, c.SelectedID())

	second, err := c.AddArtboard(editor.DeviceDesktop)
	require.NoError(t, err)
	assert.Equal(t, "Desktop 2", second.Name)
	assert.Equal(t, float64(1440+Gap), second.Position.X)

	_, err = c.SetScale(second.ID, 0.5)
	require.NoError(t, err)
	third, err := c.AddArtboard(editor.DeviceMobile)
	require.NoError(t, err)
	assert.Equal(t, "Mobile", third.Name)
	assert.Equal(t, float64(1540+720+Gap), third.Position.X)
	assert.Equal(t, third.ID, c.SelectedID())

	_, err = c.AddArtboard("watch")
	assert.ErrorIs(t, err, ErrInvalidDevice)
}

func TestAddArtboardNamesStayUniqueAfterRemoval(t *testing.T) {
	c := newTestCanvas()
	first, _ := c.AddArtboard(editor.DeviceDesktop)
	_, _ = c.AddArtboard(editor.DeviceDesktop)
	require.NoError(t, c.RemoveArtboard(first.ID))

	for i := 0; i < 3; i++ {
		_, err := c.AddArtboard(editor.DeviceDesktop)
		require.NoError(t, err)
	}
	var names []string
	for _, a := range c.List() {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"Desktop 2", "Desktop", "Desktop 3", "Desktop 4"}, names)

	mobile, _ := c.AddArtboard(editor.DeviceMobile)
	moved, err := c.SetArtboardDevice(c.List()[0].ID, editor.DeviceMobile)
	require.NoError(t, err)
	assert.Equal(t, "Mobile", mobile.Name)
	assert.Equal(t, "Mobile 2", moved.Name)
}

func TestSetArtboardDeviceSnapsToEveryPreset(t *testing.T) {
	c := newTestCanvas()
	a, _ := c.AddArtboard(editor.DeviceCustom)

	for _, p := range Presets {
		got, err := c.SetArtboardDevice(a.ID, p.Device)
		require.NoError(t, err)
		assert.Equal(t, p.Width, got.Width)
		assert.Equal(t, p.Height, got.Height)
		assert.Equal(t, p.Label, got.Name)
	}
}

func TestSetArtboardDeviceKeepsCustomNames(t *testing.T) {
	c := newTestCanvas()
	a, _ := c.AddArtboard(editor.DeviceDesktop)
	_, err := c.Rename(a.ID, "Landing hero")
	require.NoError(t, err)

	got, err := c.SetArtboardDevice(a.ID, editor.DeviceTablet)
	require.NoError(t, err)
	assert.Equal(t, "Landing hero", got.Name)

	_, err = c.Rename(a.ID, "  ")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestSetArtboardDimensionsReclassifies(t *testing.T) {
	c := newTestCanvas()
	a, _ := c.AddArtboard(editor.DeviceDesktop)

	got, err := c.SetArtboardDimensions(a.ID, 1000, 700)
	require.NoError(t, err)
	assert.Equal(t, editor.DeviceCustom, got.Device)

	got, err = c.SetArtboardDimensions(a.ID, 20, 50)
	require.NoError(t, err)
	assert.Equal(t, MinDimension, got.Width)
	assert.Equal(t, MinDimension, got.Height)

	got, err = c.SetArtboardDimensions(a.ID, 375, 812)
	require.NoError(t, err)
	assert.Equal(t, editor.DeviceMobile, got.Device)
}

func TestRemoveArtboardSelectionFallback(t *testing.T) {
	c := newTestCanvas()
	a, _ := c.AddArtboard(editor.DeviceDesktop)
	b, _ := c.AddArtboard(editor.DeviceTablet)
	d, _ := c.AddArtboard(editor.DeviceMobile)

	require.NoError(t, c.Select(b.ID))
	require.NoError(t, c.RemoveArtboard(b.ID))
	assert.Equal(t, a.ID, c.SelectedID())

	require.NoError(t, c.RemoveArtboard(a.ID))
	assert.Equal(t, d.ID, c.SelectedID())

	require.NoError(t, c.RemoveArtboard(d.ID))
	assert.Empty(t, c.SelectedID())
	assert.Nil(t, c.Settings().SelectedArtboardID)

	assert.ErrorIs(t, c.RemoveArtboard("nope"), ErrArtboardNotFound)
}

func TestDuplicateArtboard(t *testing.T) {
	c := newTestCanvas()
	a, _ := c.AddArtboard(editor.DeviceTablet)
	a, _ = c.SetScale(a.ID, 0.75)

	dup, err := c.DuplicateArtboard(a.ID)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, dup.ID)
	assert.Equal(t, "Tablet Copy", dup.Name)
	assert.Equal(t, a.Device, dup.Device)
	assert.Equal(t, a.Width, dup.Width)
	assert.Equal(t, a.Scale, dup.Scale)
	assert.Equal(t, 768*0.75+Gap, dup.Position.X)
	assert.Equal(t, dup.ID, c.SelectedID())
}

func TestScaleAndZoomClamp(t *testing.T) {
	c := newTestCanvas()
	a, _ := c.AddArtboard(editor.DeviceLaptop)

	got, _ := c.SetScale(a.ID, 5)
	assert.Equal(t, MaxScale, got.Scale)
	got, _ = c.SetScale(a.ID, 0)
	assert.Equal(t, MinScale, got.Scale)

	c.SetZoom(10)
	assert.Equal(t, MaxZoom, c.Settings().Zoom)
}

func TestSettingsLoadRoundTrip(t *testing.T) {
	c := newTestCanvas()
	_, _ = c.AddArtboard(editor.DeviceDesktop)
	b, _ := c.AddArtboard(editor.DeviceMobile)
	c.SetPan(12, -8)
	c.SetShowGrid(true)
	c.SetInteractionMode(editor.ModePreview)
	saved := c.Settings()

	restored := newTestCanvas()
	restored.Load(saved)
	assert.Equal(t, saved, restored.Settings())
	assert.Equal(t, b.ID, restored.SelectedID())

	saved.Artboards[0].Name = "mutated"
	assert.Equal(t, "Desktop", restored.List()[0].Name)
}

func TestRenderPreviewScalesWithoutReflow(t *testing.T) {
	a := editor.Artboard{ID: "ab-1", Name: "Mobile", Device: editor.DeviceMobile, Width: 375, Height: 812, Scale: 0.5, Position: editor.Point{X: 100}}
	out, err := RenderPreview(a, `<h1 class="x">Hi & bye</h1>`)
	require.NoError(t, err)

	assert.Contains(t, out, `width="375" height="812"`)
	assert.Contains(t, out, "width:375px;height:812px;border:0;transform:scale(0.5)")
	assert.Contains(t, out, "width:187.5px;height:406px")
	assert.Contains(t, out, "left:100px;top:0px")
	assert.Contains(t, out, `sandbox="allow-scripts"`)

	start := strings.Index(out, `srcdoc="`) + len(`srcdoc="`)
	end := strings.Index(out[start:], `"`)
	assert.Equal(t, `<h1 class="x">Hi & bye</h1>`, html.UnescapeString(out[start:start+end]))
}

func TestRenderCanvas(t *testing.T) {
	c := newTestCanvas()
	_, _ = c.AddArtboard(editor.DeviceDesktop)
	_, _ = c.AddArtboard(editor.DeviceMobile)
	c.SetZoom(0.5)

	out, err := RenderCanvas(c.Settings(), `<p>x</p>`)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "<iframe"))
	assert.Contains(t, out, "scale(0.5)")
}
