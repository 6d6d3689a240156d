package editor

type Device string

const (
	DeviceDesktop Device = "desktop"
	DeviceLaptop  Device = "laptop"
	DeviceTablet  Device = "tablet"
	DeviceMobile  Device = "mobile"
	DeviceCustom  Device = "custom"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Artboard is one independently positioned preview surface on the canvas.
type Artboard struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Device   Device  `json:"device"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Scale    float64 `json:"scale"`
	Position Point   `json:"position"`
}
