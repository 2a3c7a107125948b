package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/joseph-ayodele/knowledge-vault/constants"
	"github.com/joseph-ayodele/knowledge-vault/internal/common"
	"github.com/joseph-ayodele/knowledge-vault/internal/entity"
	"github.com/joseph-ayodele/knowledge-vault/internal/storage"
)

// ImportUpload stores and classifies a single uploaded file. Content that is
// already in the vault is rejected with ErrDuplicateContent.
func (s *Service) ImportUpload(ctx context.Context, req UploadRequest) (_ *ImportResult, err error) {
	ctx, _ = common.EnsureRequestID(ctx)
	start := time.Now()
	name := DecodeFilename(req.Filename)

	if err := common.NewValidator().Field("filename", name, common.Required, common.MaxLength(255)).Err(); err != nil {
		return nil, err
	}
	s.stage(ctx, constants.StageReceived, name, "bytes", len(req.Content))

	if s.cfg.MaxFileSize > 0 && int64(len(req.Content)) > s.cfg.MaxFileSize {
		s.stage(ctx, constants.StageRejected, name, "reason", common.CodeInputTooLarge)
		return nil, common.NewAppError(common.CodeInputTooLarge,
			fmt.Sprintf("file too large: maximum size is %d bytes", s.cfg.MaxFileSize), common.ErrInputTooLarge)
	}

	digest := storage.Hash(req.Content)
	exists, err := s.items.ExistsByHash(ctx, digest)
	if err != nil {
		return nil, err
	}
	if exists {
		s.stage(ctx, constants.StageRejected, name, "reason", common.CodeDuplicateContent, "digest", digest)
		return nil, common.NewAppError(common.CodeDuplicateContent, "file already exists in vault", common.ErrDuplicateContent)
	}
	s.stage(ctx, constants.StageDeduplicated, name, "digest", digest)

	blob, err := s.store.Store(ctx, req.Content, digest, name)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			s.discard(blob, err)
		}
	}()

	extracted, err := s.processor.Process(ctx, s.store.Abs(blob.RelativePath), name)
	if err != nil {
		return nil, err
	}
	s.stage(ctx, constants.StageExtracted, name, "has_text", extracted.ExtractedText != nil, "has_thumbnail", len(extracted.Thumbnail) > 0)

	text := name
	if extracted.ExtractedText != nil {
		text = *extracted.ExtractedText
	}
	res, err := s.assign(ctx, req.CategoryID, req.AutoClassify, text, name)
	if err != nil {
		return nil, err
	}
	s.stage(ctx, constants.StageClassified, name, "category", res.CategoryName, "confidence", res.Confidence)

	item := &entity.Item{
		Title:         name,
		ContentType:   constants.ContentTypeFile,
		FilePath:      strPtr(blob.RelativePath),
		OriginalPath:  strPtr(name),
		FileHash:      strPtr(digest),
		FileSize:      int64(len(req.Content)),
		MimeType:      extracted.MimeType,
		ExtractedText: extracted.ExtractedText,
		Metadata:      extracted.Metadata,
	}
	if err := s.persist(ctx, item, res, extracted.Thumbnail); err != nil {
		return nil, err
	}
	s.stage(ctx, constants.StageFinalized, name, "item_id", item.ID)
	s.logger.Info("import.upload.ok", "item_id", item.ID, "filename", name, "digest", digest,
		"category", res.CategoryName, "elapsed_ms", time.Since(start).Milliseconds())
	return &ImportResult{Item: item, Classification: res}, nil
}
