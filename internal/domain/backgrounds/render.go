package backgrounds

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strconv"
	"strings"

	"github.com/AtRiskMedia/pagecraft-go/internal/domain/entities/editor"
	"github.com/microcosm-cc/bluemonday"
)

const (
	startMarker = "<!-- pc-bg:start -->"
	endMarker   = "<!-- pc-bg:end -->"
)

var (
	bodyOpenRe = regexp.MustCompile(`(?i)<body(\s[^>]*)?>`)
	lengthRe   = regexp.MustCompile(`^(auto|\d+(\.\d+)?(px|%|vw|vh|rem|em)?)$`)
	colorRe    = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|rgba?\([0-9.,\s%]+\)|hsla?\([0-9.,\s%deg]+\)|[a-zA-Z]+)$`)
)

var objectFits = map[string]bool{"cover": true, "contain": true, "fill": true, "none": true, "scale-down": true}

var blendModes = map[string]bool{
	"normal": true, "multiply": true, "screen": true, "overlay": true, "darken": true,
	"lighten": true, "color-dodge": true, "color-burn": true, "hard-light": true,
	"soft-light": true, "difference": true, "exclusion": true, "hue": true,
	"saturation": true, "color": true, "luminosity": true,
}

var embedPolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("iframe", "video", "source", "div")
	p.AllowAttrs("src", "width", "height", "title", "allow", "allowfullscreen",
		"frameborder", "loading", "referrerpolicy").OnElements("iframe")
	p.AllowAttrs("src", "type").OnElements("source", "video")
	p.AllowAttrs("autoplay", "loop", "muted", "playsinline").OnElements("video")
	p.AllowAttrs("style").OnElements("div", "iframe")
	p.AllowURLSchemes("https")
	p.RequireParseableURLs(true)
	return p
}()

var layerTemplate = template.Must(template.New("backgrounds").Parse(
	`<div id="pc-bg-layer" aria-hidden="true" style="position:fixed;inset:0;z-index:-1;overflow:hidden;pointer-events:none">` +
		`{{range .}}<div class="pc-bg-asset" data-pc-bg-id="{{.ID}}" style="{{.WrapperStyle}}">` +
		`<div class="pc-bg-mask" style="{{.MaskStyle}}">` +
		`{{if eq .Type "image"}}<img src="{{.Src}}" alt="" style="{{.MediaStyle}}">` +
		`{{else if eq .Type "video"}}<video src="{{.Src}}"{{if .Autoplay}} autoplay{{end}}{{if .Loop}} loop{{end}}{{if .Muted}} muted{{end}} playsinline style="{{.MediaStyle}}"></video>` +
		`{{else if .EmbedHTML}}<div class="pc-bg-embed" style="{{.MediaStyle}}">{{.EmbedHTML}}</div>` +
		`{{else}}<iframe src="{{.Src}}" title="{{.EmbedType}}" frameborder="0" allow="autoplay; fullscreen" style="{{.MediaStyle}}"></iframe>{{end}}` +
		`{{if .OverlayStyle}}<div class="pc-bg-overlay" style="{{.OverlayStyle}}"></div>{{end}}` +
		`</div></div>{{end}}</div>`))

type layerView struct {
	ID           string
	Type         string
	Src          string
	EmbedType    string
	EmbedHTML    template.HTML
	Autoplay     bool
	Loop         bool
	Muted        bool
	WrapperStyle template.CSS
	MaskStyle    template.CSS
	MediaStyle   template.CSS
	OverlayStyle template.CSS
}

// Inject renders assets as a single marker-delimited block placed as the
// first child of <body>, or at the start of a fragment. A previously injected
// block is replaced, so repeated calls do not accumulate. An empty list
// returns the document without any block.
func Inject(documentHTML string, assets []editor.BackgroundAsset) (string, error) {
	stripped := Strip(documentHTML)
	if len(assets) == 0 {
		return stripped, nil
	}
	block, err := Render(assets)
	if err != nil {
		return "", err
	}
	if loc := bodyOpenRe.FindStringIndex(stripped); loc != nil {
		return stripped[:loc[1]] + block + stripped[loc[1]:], nil
	}
	return block + stripped, nil
}

// Strip removes a block written by Inject.
func Strip(documentHTML string) string {
	start := strings.Index(documentHTML, startMarker)
	if start < 0 {
		return documentHTML
	}
	end := strings.Index(documentHTML[start:], endMarker)
	if end < 0 {
		return documentHTML
	}
	return documentHTML[:start] + documentHTML[start+end+len(endMarker):]
}

// Render produces the marker-delimited background block. Assets paint in
// list order, later ones on top.
func Render(assets []editor.BackgroundAsset) (string, error) {
	views := make([]layerView, 0, len(assets))
	for i, a := range assets {
		a.ZIndex = i - len(assets)
		views = append(views, view(a))
	}
	var buf bytes.Buffer
	buf.WriteString(startMarker)
	if err := layerTemplate.Execute(&buf, views); err != nil {
		return "", fmt.Errorf("failed to render background assets: %w", err)
	}
	buf.WriteString(endMarker)
	return buf.String(), nil
}

func view(a editor.BackgroundAsset) layerView {
	v := layerView{
		ID:        a.ID,
		Type:      string(a.Type),
		Src:       a.Src,
		EmbedType: a.EmbedType,
		Autoplay:  a.Autoplay,
		Loop:      a.Loop,
		Muted:     a.Muted,
	}
	if a.Type == editor.AssetEmbed && a.EmbedCode != "" {
		v.EmbedHTML = template.HTML(embedPolicy.Sanitize(a.EmbedCode))
	}
	v.WrapperStyle = template.CSS(wrapperStyle(a))
	v.MaskStyle = template.CSS(maskStyle(a.AlphaMask))
	v.MediaStyle = template.CSS(mediaStyle(a))
	if a.Overlay.Enabled {
		v.OverlayStyle = template.CSS(overlayStyle(a.Overlay))
	}
	return v
}

// wrapperStyle carries the last two pipeline stages: blend then opacity.
func wrapperStyle(a editor.BackgroundAsset) string {
	position := string(editor.PositionFixed)
	if a.Position == editor.PositionAbsolute {
		position = string(editor.PositionAbsolute)
	}
	zIndex := a.ZIndex
	if zIndex >= 0 {
		zIndex = -1
	}
	pointer := "none"
	if a.PointerEvents == "auto" {
		pointer = "auto"
	}
	parts := []string{
		"position:" + position,
		"inset:0",
		"z-index:" + strconv.Itoa(zIndex),
		"isolation:isolate",
		"overflow:hidden",
		"pointer-events:" + pointer,
	}
	if blend := strings.ToLower(a.BlendMode); blend != "" && blend != "normal" && blendModes[blend] {
		parts = append(parts, "mix-blend-mode:"+blend)
	}
	parts = append(parts, "opacity:"+percent(a.Opacity))
	return strings.Join(parts, ";")
}

// FilterChain returns the filter stages in pipeline order: color filters,
// blur, invert. Identity stages are omitted.
func FilterChain(a editor.BackgroundAsset) string {
	var filters []string
	if a.Hue != 0 {
		filters = append(filters, fmt.Sprintf("hue-rotate(%ddeg)", a.Hue))
	}
	if a.Saturation != 100 {
		filters = append(filters, fmt.Sprintf("saturate(%d%%)", a.Saturation))
	}
	if a.Brightness != 100 {
		filters = append(filters, fmt.Sprintf("brightness(%d%%)", a.Brightness))
	}
	if a.Blur > 0 {
		filters = append(filters, fmt.Sprintf("blur(%dpx)", a.Blur))
	}
	if a.Invert {
		filters = append(filters, "invert(1)")
	}
	return strings.Join(filters, " ")
}

func mediaStyle(a editor.BackgroundAsset) string {
	width, height := safeLength(a.Width), safeLength(a.Height)
	fit := "cover"
	if objectFits[a.ObjectFit] {
		fit = a.ObjectFit
	}
	parts := []string{
		"position:absolute",
		"top:50%",
		"left:50%",
		"transform:translate(-50%,-50%)",
		"width:" + width,
		"height:" + height,
		"object-fit:" + fit,
		"border:0",
	}
	if filter := FilterChain(a); filter != "" {
		parts = append(parts, "filter:"+filter)
	}
	return strings.Join(parts, ";")
}

// MaskGradient returns the gradient fading the asset toward its masked edge,
// or "" when masking is off.
func MaskGradient(m editor.AlphaMask) string {
	if !m.Enabled || m.Type == editor.MaskNone || m.Type == "" {
		return ""
	}
	intensity := clamp(m.Intensity, 0, 100)
	switch m.Type {
	case editor.MaskTop:
		return fmt.Sprintf("linear-gradient(to bottom,transparent 0%%,black %d%%)", intensity)
	case editor.MaskBottom:
		return fmt.Sprintf("linear-gradient(to top,transparent 0%%,black %d%%)", intensity)
	case editor.MaskLeft:
		return fmt.Sprintf("linear-gradient(to right,transparent 0%%,black %d%%)", intensity)
	case editor.MaskRight:
		return fmt.Sprintf("linear-gradient(to left,transparent 0%%,black %d%%)", intensity)
	case editor.MaskRadial:
		return fmt.Sprintf("radial-gradient(ellipse at center,black %d%%,transparent 100%%)", 100-intensity)
	}
	return ""
}

func maskStyle(m editor.AlphaMask) string {
	parts := []string{"position:absolute", "inset:0"}
	if gradient := MaskGradient(m); gradient != "" {
		parts = append(parts, "-webkit-mask-image:"+gradient, "mask-image:"+gradient)
	}
	return strings.Join(parts, ";")
}

func overlayStyle(o editor.Overlay) string {
	color := strings.TrimSpace(o.Color)
	if !colorRe.MatchString(color) {
		color = "#000000"
	}
	return "position:absolute;inset:0;background-color:" + color + ";opacity:" + percent(o.Opacity)
}

func safeLength(v string) string {
	v = strings.TrimSpace(v)
	if lengthRe.MatchString(v) {
		return v
	}
	return "100%"
}

func percent(v int) string {
	return strconv.FormatFloat(float64(clamp(v, 0, 100))/100, 'f', -1, 64)
}
