package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joseph-ayodele/knowledge-vault/constants"
	"github.com/joseph-ayodele/knowledge-vault/internal/extract"
	"github.com/joseph-ayodele/knowledge-vault/internal/thumbnail"
)

// ExtractionResult is everything derived from one stored file.
type ExtractionResult struct {
	Title         string
	MimeType      string
	SizeBytes     int64
	ExtractedText *string
	Thumbnail     []byte
	Metadata      map[string]any
}

type ProcessorConfig struct {
	ExtractText        bool
	GenerateThumbnails bool
}

// FileProcessor runs text extraction and thumbnailing over a stored file.
// Format and thumbnail failures degrade to absent fields.
type FileProcessor struct {
	registry *extract.Registry
	thumbs   *thumbnail.Generator
	cfg      ProcessorConfig
	logger   *slog.Logger
}

func NewFileProcessor(registry *extract.Registry, thumbs *thumbnail.Generator, cfg ProcessorConfig, logger *slog.Logger) *FileProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileProcessor{registry: registry, thumbs: thumbs, cfg: cfg, logger: logger}
}

// Process inspects the file at path. Only a missing or unreadable file is an error.
func (p *FileProcessor) Process(ctx context.Context, path, title string) (ExtractionResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("file not found: %w", err)
	}
	ext := constants.ExtOf(path)
	res := ExtractionResult{
		Title:     title,
		MimeType:  constants.MimeType(path),
		SizeBytes: info.Size(),
		Metadata:  map[string]any{},
	}

	if p.cfg.ExtractText && p.registry != nil && constants.IsTextExtractable(ext, res.MimeType) {
		if text, ok := p.registry.Extract(ctx, path, res.MimeType); ok {
			res.ExtractedText = &text
		}
	}

	if constants.IsImage(ext) {
		if p.cfg.GenerateThumbnails && p.thumbs != nil {
			if thumb, ok := p.thumbs.Generate(ctx, path); ok {
				res.Thumbnail = thumb
			}
		}
		// nil marks an image whose size could not be read
		res.Metadata["dimensions"] = nil
		if w, h, ok := thumbnail.Dimensions(path); ok {
			res.Metadata["dimensions"] = map[string]any{"width": w, "height": h}
		}
	}
	if constants.IsVideo(ext) {
		res.Metadata["video"] = true
	}
	return res, nil
}
