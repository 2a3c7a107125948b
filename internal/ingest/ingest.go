package ingest

import (
	"context"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/knowledge-vault/internal/classify"
	"github.com/joseph-ayodele/knowledge-vault/internal/entity"
	"github.com/joseph-ayodele/knowledge-vault/internal/scrape"
)

// UploadRequest is a single file received as raw bytes.
type UploadRequest struct {
	Filename     string
	Content      []byte
	CategoryID   *uuid.UUID
	AutoClassify bool
}

// PathRequest imports a local file or a directory tree.
type PathRequest struct {
	Path         string
	CategoryID   *uuid.UUID
	AutoClassify bool
}

// URLRequest imports a single web page.
type URLRequest struct {
	URL          string
	CategoryID   *uuid.UUID
	AutoClassify bool
}

// ImportResult is the outcome of one successful import.
type ImportResult struct {
	Item           *entity.Item
	Classification classify.Result
}

// BatchResult summarises a multi-source import. Success holds only when
// Errors is empty.
type BatchResult struct {
	Success       bool           `json:"success"`
	ItemsImported int            `json:"items_imported"`
	ItemsSkipped  int            `json:"items_skipped"`
	Errors        []string       `json:"errors"`
	Items         []*entity.Item `json:"items"`
}

// ReclassifyStats reports a bulk reclassification.
type ReclassifyStats struct {
	Total        int `json:"total"`
	Reclassified int `json:"reclassified"`
	Skipped      int `json:"skipped"`
	Failed       int `json:"failed"`
}

// PageFetcher is one scrape session. Close releases its connections.
type PageFetcher interface {
	Scrape(ctx context.Context, url string) (*scrape.Page, error)
	Close() error
}

// FetcherFactory opens a new scrape session.
type FetcherFactory func() PageFetcher

// Processor turns a stored file into an ExtractionResult.
type Processor interface {
	Process(ctx context.Context, path, title string) (ExtractionResult, error)
}
