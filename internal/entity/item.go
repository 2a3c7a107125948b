package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/knowledge-vault/constants"
)

// Item is one imported source: an uploaded or local file, a web page or a note.
type Item struct {
	ID            uuid.UUID             `json:"id"`
	Title         string                `json:"title"`
	Description   *string               `json:"description,omitempty"`
	ContentType   constants.ContentType `json:"content_type"`
	SourceURL     *string               `json:"source_url,omitempty"`
	FilePath      *string               `json:"file_path,omitempty"`
	OriginalPath  *string               `json:"original_path,omitempty"`
	FileHash      *string               `json:"file_hash,omitempty"`
	FileSize      int64                 `json:"file_size"`
	MimeType      string                `json:"mime_type,omitempty"`
	ExtractedText *string               `json:"extracted_text,omitempty"`
	ThumbnailPath *string               `json:"thumbnail_path,omitempty"`
	CategoryID    *uuid.UUID            `json:"category_id,omitempty"`
	Confidence    float64               `json:"confidence"`
	Stage         constants.Stage       `json:"stage"`
	Metadata      map[string]any        `json:"metadata,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// ClassificationText is the text fed to the classifier for an already stored item:
// title, description and the first n characters of the extracted text.
func (i *Item) ClassificationText(n int) string {
	parts := []string{i.Title}
	if i.Description != nil && *i.Description != "" {
		parts = append(parts, *i.Description)
	}
	if i.ExtractedText != nil && *i.ExtractedText != "" {
		text := []rune(*i.ExtractedText)
		if n > 0 && len(text) > n {
			text = text[:n]
		}
		parts = append(parts, string(text))
	}
	return strings.Join(parts, " ")
}
