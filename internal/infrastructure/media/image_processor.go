// Package media provides image processing utilities
package media

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

const backgroundsDir = "backgrounds"

// MaxBackgroundWidth caps the stored width of uploaded background images.
const MaxBackgroundWidth = 2560

var (
	ErrEmptyImage       = errors.New("empty base64 data")
	ErrUnsupportedImage = errors.New("unsupported image format")

	dataURLPattern = regexp.MustCompile(`^data:(image/[\w.+-]+);base64,`)
	variantWidths  = []int{1280, 640}
)

// ProcessedImage describes a stored background image.
type ProcessedImage struct {
	URL      string   `json:"url"`
	Width    int      `json:"width,omitempty"`
	Height   int      `json:"height,omitempty"`
	Variants []string `json:"variants,omitempty"`
}

// ImageProcessor stores uploaded background images under basePath.
type ImageProcessor struct {
	basePath string
}

func NewImageProcessor(basePath string) *ImageProcessor {
	return &ImageProcessor{basePath: basePath}
}

// ProcessBackgroundImage decodes a base64 data URL and stores it for use as
// a background asset. Raster images are capped at MaxBackgroundWidth and
// re-encoded as WebP with smaller responsive variants; SVG is stored as is.
func (p *ImageProcessor) ProcessBackgroundImage(data, name string) (*ProcessedImage, error) {
	if data == "" {
		return nil, ErrEmptyImage
	}
	match := dataURLPattern.FindStringSubmatch(data)
	if match == nil {
		return nil, fmt.Errorf("%w: expected a base64 data URL", ErrUnsupportedImage)
	}
	mime := match[1]
	decoded, err := base64.StdEncoding.DecodeString(data[len(match[0]):])
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}

	targetDir := filepath.Join(p.basePath, backgroundsDir)
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	name = sanitizeName(name)
	if mime == "image/svg+xml" {
		return p.storeSVG(decoded, name, targetDir)
	}
	return p.storeRaster(decoded, name, targetDir)
}

func (p *ImageProcessor) storeSVG(decoded []byte, name, targetDir string) (*ProcessedImage, error) {
	filename := name + ".svg"
	if err := os.WriteFile(filepath.Join(targetDir, filename), decoded, 0644); err != nil {
		return nil, fmt.Errorf("failed to write SVG file: %w", err)
	}
	return &ProcessedImage{URL: mediaURL(filename)}, nil
}

func (p *ImageProcessor) storeRaster(decoded []byte, name, targetDir string) (*ProcessedImage, error) {
	img, err := imaging.Decode(bytes.NewReader(decoded), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if img.Bounds().Dx() > MaxBackgroundWidth {
		img = imaging.Resize(img, MaxBackgroundWidth, 0, imaging.Lanczos)
	}

	filename := name + ".webp"
	if err := webp.Save(filepath.Join(targetDir, filename), img, &webp.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to save WebP image: %w", err)
	}
	result := &ProcessedImage{
		URL:    mediaURL(filename),
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}

	written := []string{filepath.Join(targetDir, filename)}
	for _, width := range variantWidths {
		if width >= result.Width {
			continue
		}
		resized := imaging.Resize(img, width, 0, imaging.Lanczos)
		variant := fmt.Sprintf("%s_%dpx.webp", name, width)
		path := filepath.Join(targetDir, variant)
		if err := webp.Save(path, resized, &webp.Options{Quality: 85}); err != nil {
			for _, w := range written {
				os.Remove(w)
			}
			return nil, fmt.Errorf("failed to save WebP variant %s: %w", variant, err)
		}
		written = append(written, path)
		result.Variants = append(result.Variants, mediaURL(variant))
	}
	return result, nil
}

// Delete removes a stored background image and its variants. Missing files
// are ignored.
func (p *ImageProcessor) Delete(url string) error {
	filename := filepath.Base(strings.TrimPrefix(url, "/media/"+backgroundsDir+"/"))
	if filename == "." || filename == "/" || filename == "" {
		return fmt.Errorf("invalid media url %q", url)
	}
	targetDir := filepath.Join(p.basePath, backgroundsDir)
	if err := os.Remove(filepath.Join(targetDir, filename)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove image: %w", err)
	}
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	for _, width := range variantWidths {
		os.Remove(filepath.Join(targetDir, fmt.Sprintf("%s_%dpx.webp", base, width)))
	}
	return nil
}

func mediaURL(filename string) string {
	return "/media/" + backgroundsDir + "/" + filename
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

func sanitizeName(name string) string {
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = unsafeNameChars.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	if name == "" {
		return "background"
	}
	return name
}
