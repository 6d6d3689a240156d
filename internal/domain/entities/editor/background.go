package editor

type AssetType string

const (
	AssetEmbed AssetType = "embed"
	AssetVideo AssetType = "video"
	AssetImage AssetType = "image"
)

type AssetPosition string

const (
	PositionFixed    AssetPosition = "fixed"
	PositionAbsolute AssetPosition = "absolute"
)

type MaskType string

const (
	MaskNone   MaskType = "none"
	MaskTop    MaskType = "top"
	MaskBottom MaskType = "bottom"
	MaskLeft   MaskType = "left"
	MaskRight  MaskType = "right"
	MaskRadial MaskType = "radial"
)

type AlphaMask struct {
	Enabled   bool     `json:"enabled"`
	Type      MaskType `json:"type"`
	Intensity int      `json:"intensity"`
}

type Overlay struct {
	Enabled bool   `json:"enabled"`
	Color   string `json:"color"`
	Opacity int    `json:"opacity"`
}

// BackgroundAsset is one layer of the background compositor stack. List order
// is stacking order; ZIndex is always negative.
type BackgroundAsset struct {
	ID        string    `json:"id"`
	Type      AssetType `json:"type"`
	Src       string    `json:"src"`
	EmbedType string    `json:"embedType,omitempty"`
	EmbedCode string    `json:"embedCode,omitempty"`

	Position  AssetPosition `json:"position"`
	ZIndex    int           `json:"zIndex"`
	Width     string        `json:"width"`
	Height    string        `json:"height"`
	ObjectFit string        `json:"objectFit"`

	Hue        int `json:"hue"`
	Saturation int `json:"saturation"`
	Brightness int `json:"brightness"`
	Blur       int `json:"blur"`
	Opacity    int `json:"opacity"`

	// RestoreOpacity remembers the opacity in effect when the asset was
	// hidden so showing it again brings back the user's value.
	RestoreOpacity int `json:"restoreOpacity,omitempty"`

	AlphaMask     AlphaMask `json:"alphaMask"`
	Overlay       Overlay   `json:"overlay"`
	BlendMode     string    `json:"blendMode"`
	Invert        bool      `json:"invert"`
	PointerEvents string    `json:"pointerEvents"`

	Autoplay bool `json:"autoplay"`
	Loop     bool `json:"loop"`
	Muted    bool `json:"muted"`
}

// IsHidden reports whether the asset is toggled off.
func (a BackgroundAsset) IsHidden() bool {
	return a.Opacity == 0
}
