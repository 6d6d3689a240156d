package artboards

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"

	"github.com/AtRiskMedia/pagecraft-go/internal/domain/entities/editor"
)

var previewTemplate = template.Must(template.New("artboard").Parse(
	`<div class="pc-artboard" data-pc-artboard-id="{{.ID}}" style="{{.FrameStyle}}">` +
		`<div class="pc-artboard-label">{{.Name}}</div>` +
		`<div class="pc-artboard-viewport" style="{{.ViewportStyle}}">` +
		`<iframe title="{{.Name}}" sandbox="allow-scripts" width="{{.Width}}" height="{{.Height}}" style="{{.IframeStyle}}" srcdoc="{{.HTML}}"></iframe>` +
		`</div></div>`))

var canvasTemplate = template.Must(template.New("canvas").Parse(
	`<div class="pc-canvas{{if .ShowGrid}} pc-canvas-grid{{end}}" data-pc-mode="{{.Mode}}" style="position:relative;overflow:hidden;width:100%;height:100%">` +
		`<div class="pc-canvas-world" style="{{.WorldStyle}}">{{range .Artboards}}{{.}}{{end}}</div></div>`))

type previewView struct {
	ID            string
	Name          string
	Width         int
	Height        int
	HTML          string
	FrameStyle    template.CSS
	ViewportStyle template.CSS
	IframeStyle   template.CSS
}

// RenderPreview renders one artboard as an isolated iframe laid out at its
// native size. Scale is applied as a transform so the content never reflows.
func RenderPreview(a editor.Artboard, documentHTML string) (string, error) {
	scale := clampFloat(a.Scale, MinScale, MaxScale)
	scaledW := float64(a.Width) * scale
	scaledH := float64(a.Height) * scale
	v := previewView{
		ID:     a.ID,
		Name:   a.Name,
		Width:  a.Width,
		Height: a.Height,
		HTML:   documentHTML,
		FrameStyle: template.CSS(fmt.Sprintf("position:absolute;left:%spx;top:%spx",
			num(a.Position.X), num(a.Position.Y))),
		ViewportStyle: template.CSS(fmt.Sprintf("width:%spx;height:%spx;overflow:hidden",
			num(scaledW), num(scaledH))),
		IframeStyle: template.CSS(fmt.Sprintf("width:%dpx;height:%dpx;border:0;transform:scale(%s);transform-origin:0 0",
			a.Width, a.Height, num(scale))),
	}
	var buf bytes.Buffer
	if err := previewTemplate.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("failed to render artboard %s: %w", a.ID, err)
	}
	return buf.String(), nil
}

// RenderCanvas renders every artboard of the settings inside a world layer
// offset by pan and scaled by zoom.
func RenderCanvas(s editor.CanvasSettings, documentHTML string) (string, error) {
	boards := make([]template.HTML, 0, len(s.Artboards))
	for _, a := range s.Artboards {
		out, err := RenderPreview(a, documentHTML)
		if err != nil {
			return "", err
		}
		boards = append(boards, template.HTML(out))
	}
	zoom := s.Zoom
	if zoom == 0 {
		zoom = 1
	}
	data := struct {
		ShowGrid   bool
		Mode       editor.InteractionMode
		WorldStyle template.CSS
		Artboards  []template.HTML
	}{
		ShowGrid: s.ShowGrid,
		Mode:     s.InteractionMode,
		WorldStyle: template.CSS(fmt.Sprintf("position:absolute;left:0;top:0;transform:translate(%spx,%spx) scale(%s);transform-origin:0 0",
			num(s.PanX), num(s.PanY), num(clampFloat(zoom, MinZoom, MaxZoom)))),
		Artboards: boards,
	}
	var buf bytes.Buffer
	if err := canvasTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render canvas: %w", err)
	}
	return buf.String(), nil
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
