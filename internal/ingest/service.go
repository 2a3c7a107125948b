package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/knowledge-vault/constants"
	"github.com/joseph-ayodele/knowledge-vault/internal/classify"
	"github.com/joseph-ayodele/knowledge-vault/internal/common"
	"github.com/joseph-ayodele/knowledge-vault/internal/entity"
	"github.com/joseph-ayodele/knowledge-vault/internal/repository"
	"github.com/joseph-ayodele/knowledge-vault/internal/storage"
)

// classifyChars bounds how much extracted text feeds URL and re-classification.
const classifyChars = 2000

type Config struct {
	MaxFileSize     int64
	Workers         int
	FileTimeout     time.Duration
	AIMinConfidence float64
}

// Deps are the collaborators of the import pipeline.
type Deps struct {
	Store      *storage.Store
	Processor  Processor
	Engine     *classify.Engine
	Items      repository.ItemRepository
	Categories repository.CategoryRepository
	Fetchers   FetcherFactory
}

// Service sequences storage, extraction, classification and persistence for
// every kind of import source.
type Service struct {
	store      *storage.Store
	processor  Processor
	engine     *classify.Engine
	items      repository.ItemRepository
	categories repository.CategoryRepository
	fetchers   FetcherFactory
	cfg        Config
	logger     *slog.Logger
}

func NewService(deps Deps, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Service{
		store:      deps.Store,
		processor:  deps.Processor,
		engine:     deps.Engine,
		items:      deps.Items,
		categories: deps.Categories,
		fetchers:   deps.Fetchers,
		cfg:        cfg,
		logger:     logger,
	}
}

func (s *Service) stage(ctx context.Context, stage constants.Stage, source string, attrs ...any) {
	args := append([]any{"stage", stage, "source", source, "request_id", common.RequestIDFromContext(ctx)}, attrs...)
	s.logger.Debug("import.stage", args...)
}

// classify runs the rules and consults the AI arbiter when the rules are not
// confident enough.
func (s *Service) classify(ctx context.Context, text, pathHint string) classify.Result {
	res := s.engine.Classify(ctx, text, pathHint)
	if s.engine.AIEnabled() && res.Confidence < s.cfg.AIMinConfidence {
		if ai, ok := s.engine.ClassifyWithAI(ctx, text); ok {
			return ai
		}
	}
	return res
}

// assign decides the category of a new item: an explicit category wins,
// otherwise the classifier runs when enabled.
func (s *Service) assign(ctx context.Context, manual *uuid.UUID, auto bool, text, pathHint string) (classify.Result, error) {
	if manual != nil {
		if s.categories != nil {
			cat, err := s.categories.Get(ctx, *manual)
			if err != nil {
				if errors.Is(err, common.ErrNotFound) {
					return classify.Result{}, common.NewAppError(common.CodeInvalidInput, "unknown category "+manual.String(), errors.Join(common.ErrInvalidInput, err))
				}
				return classify.Result{}, err
			}
			return classify.Result{CategoryName: cat.Name, CategoryID: manual, Confidence: 1, Source: classify.SourceManual}, nil
		}
		return classify.Result{CategoryID: manual, Confidence: 1, Source: classify.SourceManual}, nil
	}
	if !auto || s.engine == nil {
		return classify.Result{}, nil
	}
	return s.classify(ctx, text, pathHint), nil
}

func (s *Service) persist(ctx context.Context, item *entity.Item, res classify.Result, thumb []byte) error {
	item.CategoryID = res.CategoryID
	item.Confidence = res.Confidence
	if res.Matched() && res.CategoryID == nil {
		item.Metadata = withMeta(item.Metadata, "category_name", res.CategoryName)
	}
	if res.Source != "" {
		item.Metadata = withMeta(item.Metadata, "classified_by", res.Source)
	}
	item.Stage = constants.StageFinalized
	if err := s.items.Create(ctx, item); err != nil {
		return err
	}
	if len(thumb) == 0 {
		return nil
	}
	rel, err := s.store.SaveThumbnail(item.ID.String(), thumb)
	if err != nil {
		// the item is already persisted; a missing preview is not worth failing it
		s.logger.Warn("thumbnail.save.failed", "item_id", item.ID, "error", err)
		return nil
	}
	if err := s.items.SetThumbnail(ctx, item.ID, rel); err != nil {
		s.logger.Warn("thumbnail.link.failed", "item_id", item.ID, "error", err)
		return nil
	}
	item.ThumbnailPath = &rel
	return nil
}

// discard removes a blob written by an import that then failed. Blobs that
// were already stored may back another item and are kept.
func (s *Service) discard(blob storage.Blob, cause error) {
	if blob.Existed || isDuplicate(cause) {
		return
	}
	if _, err := s.store.Delete(blob.RelativePath); err != nil {
		s.logger.Warn("store.blob.discard_failed", "path", blob.RelativePath, "error", err)
		return
	}
	s.logger.Debug("store.blob.discarded", "path", blob.RelativePath, "cause", cause)
}

func withMeta(m map[string]any, k string, v any) map[string]any {
	if m == nil {
		m = map[string]any{}
	}
	m[k] = v
	return m
}

func strPtr(s string) *string { return &s }
