package thumbnail

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 200})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	p := filepath.Join(t.TempDir(), "pic.png")
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o644))
	return p
}

func TestGenerateFitsBoundingBox(t *testing.T) {
	g := New(Config{}, nil)
	p := writePNG(t, 600, 400)

	out, ok := g.Generate(context.Background(), p)
	require.True(t, ok)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 300, cfg.Width)
	assert.Equal(t, 200, cfg.Height)

	_, err = jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
}

func TestGenerateDoesNotUpscale(t *testing.T) {
	g := New(Config{}, nil)
	out, ok := g.Generate(context.Background(), writePNG(t, 40, 20))
	require.True(t, ok)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 20, cfg.Height)
}

func TestCorruptImageYieldsNoThumbnail(t *testing.T) {
	g := New(Config{}, nil)
	p := filepath.Join(t.TempDir(), "broken.jpg")
	require.NoError(t, os.WriteFile(p, []byte("\xff\xd8 definitely not a jpeg"), 0o644))

	out, ok := g.Generate(context.Background(), p)
	assert.False(t, ok)
	assert.Nil(t, out)
}

func TestNonRasterSkipped(t *testing.T) {
	g := New(Config{}, nil)
	p := filepath.Join(t.TempDir(), "logo.svg")
	require.NoError(t, os.WriteFile(p, []byte("<svg/>"), 0o644))
	_, ok := g.Generate(context.Background(), p)
	assert.False(t, ok)
}

func TestDimensions(t *testing.T) {
	w, h, ok := Dimensions(writePNG(t, 123, 45))
	require.True(t, ok)
	assert.Equal(t, 123, w)
	assert.Equal(t, 45, h)

	_, _, ok = Dimensions(filepath.Join(t.TempDir(), "missing.png"))
	assert.False(t, ok)
}
