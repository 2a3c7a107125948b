package ingest

import (
	"context"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/knowledge-vault/internal/classify"
	"github.com/joseph-ayodele/knowledge-vault/internal/common"
	"github.com/joseph-ayodele/knowledge-vault/internal/entity"
	"github.com/joseph-ayodele/knowledge-vault/internal/repository"
)

// Reclassify re-runs the classifier on the stored fields of an item and
// overwrites its category and confidence. Nothing is re-extracted.
func (s *Service) Reclassify(ctx context.Context, id uuid.UUID) (*ImportResult, error) {
	item, err := s.items.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := s.reclassify(ctx, item)
	if err != nil {
		return nil, err
	}
	return &ImportResult{Item: item, Classification: res}, nil
}

func (s *Service) reclassify(ctx context.Context, item *entity.Item) (classify.Result, error) {
	pathHint := ""
	if item.OriginalPath != nil {
		pathHint = *item.OriginalPath
	}
	res := s.classify(ctx, item.ClassificationText(classifyChars), pathHint)
	if err := s.items.UpdateClassification(ctx, item.ID, res.CategoryID, res.Confidence); err != nil {
		return res, err
	}
	item.CategoryID = res.CategoryID
	item.Confidence = res.Confidence
	s.logger.Info("import.reclassify.ok", "item_id", item.ID, "category", res.CategoryName,
		"confidence", res.Confidence, "request_id", common.RequestIDFromContext(ctx))
	return res, nil
}

// ReclassifyAll reclassifies stored items. With onlyUncategorized set, items
// that already carry a category, including manually assigned ones, are
// skipped. Per-item failures are counted and logged; only a failure to list
// items is returned.
func (s *Service) ReclassifyAll(ctx context.Context, onlyUncategorized bool) (ReclassifyStats, error) {
	items, err := s.items.List(ctx, repository.ListFilter{})
	if err != nil {
		return ReclassifyStats{}, err
	}
	stats := ReclassifyStats{Total: len(items)}
	for _, item := range items {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		if onlyUncategorized && item.CategoryID != nil {
			stats.Skipped++
			continue
		}
		if _, err := s.reclassify(ctx, item); err != nil {
			s.logger.Warn("import.reclassify.failed", "item_id", item.ID, "error", err)
			stats.Failed++
			continue
		}
		stats.Reclassified++
	}
	return stats, nil
}
