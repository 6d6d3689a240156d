// Package artboards models the infinite canvas of device-sized previews.
package artboards

import (
	"regexp"

	"github.com/AtRiskMedia/pagecraft-go/internal/domain/entities/editor"
)

const (
	// Gap separates a newly placed artboard from the rightmost one.
	Gap = 100

	MinDimension = 100
	MinScale     = 0.1
	MaxScale     = 2.0
	MinZoom      = 0.1
	MaxZoom      = 4.0

	customWidth  = 800
	customHeight = 600
)

type Preset struct {
	Device editor.Device
	Label  string
	Width  int
	Height int
}

// Presets lists the built-in devices in menu order.
var Presets = []Preset{
	{Device: editor.DeviceDesktop, Label: "Desktop", Width: 1440, Height: 900},
	{Device: editor.DeviceLaptop, Label: "Laptop", Width: 1280, Height: 800},
	{Device: editor.DeviceTablet, Label: "Tablet", Width: 768, Height: 1024},
	{Device: editor.DeviceMobile, Label: "Mobile", Width: 375, Height: 812},
}

var defaultNameRe = map[editor.Device]*regexp.Regexp{}

func init() {
	for _, p := range Presets {
		defaultNameRe[p.Device] = regexp.MustCompile(`^` + regexp.QuoteMeta(p.Label) + `( \d+)?$`)
	}
	defaultNameRe[editor.DeviceCustom] = regexp.MustCompile(`^Custom( \d+)?$`)
}

// PresetFor returns the preset of a device; custom has none.
func PresetFor(d editor.Device) (Preset, bool) {
	for _, p := range Presets {
		if p.Device == d {
			return p, true
		}
	}
	return Preset{}, false
}

// MatchPreset finds the preset with exactly the given size.
func MatchPreset(width, height int) (Preset, bool) {
	for _, p := range Presets {
		if p.Width == width && p.Height == height {
			return p, true
		}
	}
	return Preset{}, false
}

func label(d editor.Device) string {
	if p, ok := PresetFor(d); ok {
		return p.Label
	}
	return "Custom"
}

// isDefaultName reports whether name is one the canvas generated for d.
func isDefaultName(d editor.Device, name string) bool {
	re, ok := defaultNameRe[d]
	return ok && re.MatchString(name)
}

func validDevice(d editor.Device) bool {
	_, ok := defaultNameRe[d]
	return ok
}
