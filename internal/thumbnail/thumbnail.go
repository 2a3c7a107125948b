package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/joseph-ayodele/knowledge-vault/constants"
)

type Config struct {
	MaxWidth  uint // default 300
	MaxHeight uint // default 300
	Quality   int  // JPEG quality, default 85
}

// Generator produces bounded JPEG previews of raster images.
type Generator struct {
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxWidth == 0 {
		cfg.MaxWidth = 300
	}
	if cfg.MaxHeight == 0 {
		cfg.MaxHeight = 300
	}
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = 85
	}
	return &Generator{cfg: cfg, logger: logger}
}

// Generate returns a JPEG thumbnail of the image at path. ok is false for
// non-raster extensions and for any decode or encode failure.
func (g *Generator) Generate(ctx context.Context, path string) ([]byte, bool) {
	if !constants.IsRaster(constants.ExtOf(path)) {
		return nil, false
	}
	if ctx.Err() != nil {
		return nil, false
	}
	f, err := os.Open(path)
	if err != nil {
		g.logger.Warn("thumbnail.failed", "path", path, "error", err)
		return nil, false
	}
	defer func() { _ = f.Close() }()

	out, err := g.Encode(f)
	if err != nil {
		g.logger.Warn("thumbnail.failed", "path", path, "error", err)
		return nil, false
	}
	return out, true
}

// Encode decodes r, fits it into the bounding box without upscaling, flattens
// it onto white and re-encodes it as JPEG.
func (g *Generator) Encode(r io.Reader) ([]byte, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	small := resize.Thumbnail(g.cfg.MaxWidth, g.cfg.MaxHeight, img, resize.Lanczos3)

	b := small.Bounds()
	rgb := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgb, rgb.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(rgb, rgb.Bounds(), small, b.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, rgb, &jpeg.Options{Quality: g.cfg.Quality}); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Dimensions reads the pixel size of the image at path without decoding it fully.
func Dimensions(path string) (width, height int, ok bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, false
	}
	defer func() { _ = f.Close() }()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}
