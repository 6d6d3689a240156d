package backgrounds

import "github.com/AtRiskMedia/pagecraft-go/internal/domain/entities/editor"

// Patch is a partial asset update; nil fields are left alone.
type Patch struct {
	Src       *string `json:"src,omitempty"`
	EmbedType *string `json:"embedType,omitempty"`
	EmbedCode *string `json:"embedCode,omitempty"`

	Position  *editor.AssetPosition `json:"position,omitempty"`
	ZIndex    *int                  `json:"zIndex,omitempty"`
	Width     *string               `json:"width,omitempty"`
	Height    *string               `json:"height,omitempty"`
	ObjectFit *string               `json:"objectFit,omitempty"`

	Hue        *int `json:"hue,omitempty"`
	Saturation *int `json:"saturation,omitempty"`
	Brightness *int `json:"brightness,omitempty"`
	Blur       *int `json:"blur,omitempty"`
	Opacity    *int `json:"opacity,omitempty"`

	AlphaMask     *editor.AlphaMask `json:"alphaMask,omitempty"`
	Overlay       *editor.Overlay   `json:"overlay,omitempty"`
	BlendMode     *string           `json:"blendMode,omitempty"`
	Invert        *bool             `json:"invert,omitempty"`
	PointerEvents *string           `json:"pointerEvents,omitempty"`

	Autoplay *bool `json:"autoplay,omitempty"`
	Loop     *bool `json:"loop,omitempty"`
	Muted    *bool `json:"muted,omitempty"`
}

func (p Patch) apply(a editor.BackgroundAsset) editor.BackgroundAsset {
	setString(&a.Src, p.Src)
	setString(&a.EmbedType, p.EmbedType)
	setString(&a.EmbedCode, p.EmbedCode)
	if p.Position != nil {
		a.Position = *p.Position
	}
	setInt(&a.ZIndex, p.ZIndex)
	setString(&a.Width, p.Width)
	setString(&a.Height, p.Height)
	setString(&a.ObjectFit, p.ObjectFit)
	setInt(&a.Hue, p.Hue)
	setInt(&a.Saturation, p.Saturation)
	setInt(&a.Brightness, p.Brightness)
	setInt(&a.Blur, p.Blur)
	if p.Opacity != nil {
		a.Opacity = *p.Opacity
		a.RestoreOpacity = 0
	}
	if p.AlphaMask != nil {
		a.AlphaMask = *p.AlphaMask
	}
	if p.Overlay != nil {
		a.Overlay = *p.Overlay
	}
	setString(&a.BlendMode, p.BlendMode)
	setBool(&a.Invert, p.Invert)
	setString(&a.PointerEvents, p.PointerEvents)
	setBool(&a.Autoplay, p.Autoplay)
	setBool(&a.Loop, p.Loop)
	setBool(&a.Muted, p.Muted)
	return a
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
