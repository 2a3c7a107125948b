package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/knowledge-vault/constants"
	"github.com/joseph-ayodele/knowledge-vault/internal/common"
	"github.com/joseph-ayodele/knowledge-vault/internal/entity"
)

type candidate struct {
	path    string
	walkErr error
}

type fileOutcome struct {
	item    *entity.Item
	skipped bool
	err     string
}

// ImportPath imports a single file or every supported file below a directory.
// Per-file failures never abort the batch; they are reported in Errors.
// Content already in the vault is skipped without an error.
func (s *Service) ImportPath(ctx context.Context, req PathRequest) (*BatchResult, error) {
	ctx, _ = common.EnsureRequestID(ctx)
	if strings.TrimSpace(req.Path) == "" {
		return nil, common.NewAppError(common.CodeInvalidInput, "path is required", common.ErrInvalidInput)
	}
	root, err := filepath.Abs(expandHome(req.Path))
	if err != nil {
		return nil, common.NewAppError(common.CodeInvalidInput, "invalid path", errors.Join(common.ErrInvalidInput, err))
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, common.NewAppError(common.CodeInvalidInput, "path not found: "+root, errors.Join(common.ErrInvalidInput, err))
	}

	start := time.Now()
	var candidates []candidate
	if info.IsDir() {
		candidates = enumerate(root)
	} else {
		candidates = []candidate{{path: root}}
	}

	outcomes := make([]fileOutcome, len(candidates))
	var g errgroup.Group
	g.SetLimit(s.cfg.Workers)
	for i, c := range candidates {
		g.Go(func() error {
			outcomes[i] = s.importCandidate(ctx, c, req)
			return nil
		})
	}
	_ = g.Wait()

	result := aggregate(outcomes)
	s.logger.Info("import.batch.done", "root", root, "files", len(candidates),
		"imported", result.ItemsImported, "skipped", result.ItemsSkipped, "errors", len(result.Errors),
		"elapsed_ms", time.Since(start).Milliseconds())
	return result, nil
}

func aggregate(outcomes []fileOutcome) *BatchResult {
	result := &BatchResult{Errors: []string{}, Items: []*entity.Item{}}
	for _, o := range outcomes {
		if o.err != "" {
			result.Errors = append(result.Errors, o.err)
		}
		if o.skipped {
			result.ItemsSkipped++
			continue
		}
		if o.item != nil {
			result.Items = append(result.Items, o.item)
			result.ItemsImported++
		}
	}
	result.Success = len(result.Errors) == 0
	return result
}

// enumerate lists the supported, non-hidden files below root in lexical order.
func enumerate(root string) []candidate {
	var out []candidate
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			out = append(out, candidate{path: path, walkErr: walkErr})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if !constants.IsSupported(constants.ExtOf(path)) {
			return nil
		}
		out = append(out, candidate{path: path})
		return nil
	})
	return out
}

func (s *Service) importCandidate(ctx context.Context, c candidate, req PathRequest) fileOutcome {
	name := filepath.Base(c.path)
	if c.walkErr != nil {
		return fileOutcome{skipped: true, err: fmt.Sprintf("Error importing %s: %v", name, c.walkErr)}
	}
	if s.cfg.FileTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.FileTimeout)
		defer cancel()
	}

	item, err := s.importFile(ctx, c.path, req)
	switch {
	case err == nil:
		return fileOutcome{item: item}
	case errors.Is(err, common.ErrDuplicateContent):
		return fileOutcome{skipped: true}
	case errors.Is(err, common.ErrInputTooLarge):
		return fileOutcome{skipped: true, err: "File too large: " + name}
	default:
		s.logger.Warn("import.file.failed", "path", c.path, "error", err)
		return fileOutcome{skipped: true, err: fmt.Sprintf("Error importing %s: %v", name, err)}
	}
}

// importFile runs one local file through the pipeline.
func (s *Service) importFile(ctx context.Context, path string, req PathRequest) (_ *entity.Item, err error) {
	name := filepath.Base(path)
	s.stage(ctx, constants.StageReceived, path)

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if s.cfg.MaxFileSize > 0 && info.Size() > s.cfg.MaxFileSize {
		s.stage(ctx, constants.StageRejected, path, "reason", common.CodeInputTooLarge)
		return nil, common.NewAppError(common.CodeInputTooLarge, "file too large: "+name, common.ErrInputTooLarge)
	}

	blob, err := s.store.StoreFromPath(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			s.discard(blob, err)
		}
	}()
	exists, err := s.items.ExistsByHash(ctx, blob.Digest)
	if err != nil {
		return nil, err
	}
	if exists {
		s.stage(ctx, constants.StageRejected, path, "reason", common.CodeDuplicateContent, "digest", blob.Digest)
		return nil, common.NewAppError(common.CodeDuplicateContent, "file already exists in vault", common.ErrDuplicateContent)
	}
	s.stage(ctx, constants.StageDeduplicated, path, "digest", blob.Digest)

	extracted, err := s.processor.Process(ctx, s.store.Abs(blob.RelativePath), name)
	if err != nil {
		return nil, err
	}
	s.stage(ctx, constants.StageExtracted, path, "has_text", extracted.ExtractedText != nil)

	text := name
	if extracted.ExtractedText != nil {
		text = *extracted.ExtractedText
	}
	res, err := s.assign(ctx, req.CategoryID, req.AutoClassify, text, path)
	if err != nil {
		return nil, err
	}
	s.stage(ctx, constants.StageClassified, path, "category", res.CategoryName, "confidence", res.Confidence)

	item := &entity.Item{
		Title:         name,
		ContentType:   constants.ContentTypeFile,
		FilePath:      strPtr(blob.RelativePath),
		OriginalPath:  strPtr(path),
		FileHash:      strPtr(blob.Digest),
		FileSize:      blob.Size,
		MimeType:      extracted.MimeType,
		ExtractedText: extracted.ExtractedText,
		Metadata:      extracted.Metadata,
	}
	if err := s.persist(ctx, item, res, extracted.Thumbnail); err != nil {
		return nil, err
	}
	s.stage(ctx, constants.StageFinalized, path, "item_id", item.ID)
	return item, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
