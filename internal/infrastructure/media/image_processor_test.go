package media

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const svgMarkup = `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"></svg>`

func TestProcessBackgroundImageStoresSVG(t *testing.T) {
	dir := t.TempDir()
	p := NewImageProcessor(dir)
	data := "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svgMarkup))

	img, err := p.ProcessBackgroundImage(data, "hero wave.svg")
	require.NoError(t, err)
	assert.Equal(t, "/media/backgrounds/hero-wave.svg", img.URL)

	stored, err := os.ReadFile(filepath.Join(dir, "backgrounds", "hero-wave.svg"))
	require.NoError(t, err)
	assert.Equal(t, svgMarkup, string(stored))

	require.NoError(t, p.Delete(img.URL))
	_, err = os.Stat(filepath.Join(dir, "backgrounds", "hero-wave.svg"))
	assert.True(t, os.IsNotExist(err))
}

func TestProcessBackgroundImageRejectsBadInput(t *testing.T) {
	p := NewImageProcessor(t.TempDir())

	_, err := p.ProcessBackgroundImage("", "x")
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = p.ProcessBackgroundImage("not a data url", "x")
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	garbage := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("not a png"))
	_, err = p.ProcessBackgroundImage(garbage, "x")
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "background", sanitizeName("../"))
	assert.Equal(t, "my-photo_1", sanitizeName("my photo_1.png"))
}
