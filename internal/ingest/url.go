package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/knowledge-vault/constants"
	"github.com/joseph-ayodele/knowledge-vault/internal/common"
	"github.com/joseph-ayodele/knowledge-vault/internal/entity"
	"github.com/joseph-ayodele/knowledge-vault/internal/scrape"
)

// ImportURL fetches, classifies and stores one web page. A page whose final
// URL is already in the vault is rejected with ErrDuplicateContent.
func (s *Service) ImportURL(ctx context.Context, req URLRequest) (*ImportResult, error) {
	fetcher := s.fetchers()
	defer func() {
		if err := fetcher.Close(); err != nil {
			s.logger.Warn("scrape.close.failed", "error", err)
		}
	}()
	return s.importURL(ctx, fetcher, req)
}

// ImportURLs imports several pages through one scrape session, in order.
// Failures and duplicates are aggregated like a directory import.
func (s *Service) ImportURLs(ctx context.Context, urls []string, req URLRequest) *BatchResult {
	fetcher := s.fetchers()
	defer func() {
		if err := fetcher.Close(); err != nil {
			s.logger.Warn("scrape.close.failed", "error", err)
		}
	}()

	outcomes := make([]fileOutcome, 0, len(urls))
	for _, u := range urls {
		r := req
		r.URL = u
		res, err := s.importURL(ctx, fetcher, r)
		switch {
		case err == nil:
			outcomes = append(outcomes, fileOutcome{item: res.Item})
		case isDuplicate(err):
			outcomes = append(outcomes, fileOutcome{skipped: true})
		default:
			outcomes = append(outcomes, fileOutcome{skipped: true, err: fmt.Sprintf("Error importing %s: %v", u, err)})
		}
	}
	return aggregate(outcomes)
}

func (s *Service) importURL(ctx context.Context, fetcher PageFetcher, req URLRequest) (*ImportResult, error) {
	ctx, _ = common.EnsureRequestID(ctx)
	if err := common.NewValidator().Field("url", req.URL, common.Required, common.HTTPURL).Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	s.stage(ctx, constants.StageReceived, req.URL)

	page, err := fetcher.Scrape(ctx, req.URL)
	if err != nil {
		s.stage(ctx, constants.StageFailed, req.URL, "error", err)
		return nil, err
	}
	exists, err := s.items.ExistsByURL(ctx, page.URL)
	if err != nil {
		return nil, err
	}
	if exists {
		s.stage(ctx, constants.StageRejected, req.URL, "reason", common.CodeDuplicateContent, "final_url", page.URL)
		return nil, common.NewAppError(common.CodeDuplicateContent, "URL already exists in vault", common.ErrDuplicateContent)
	}
	s.stage(ctx, constants.StageDeduplicated, req.URL, "final_url", page.URL)
	s.stage(ctx, constants.StageExtracted, req.URL, "chars", len(page.ExtractedText))

	res, err := s.assign(ctx, req.CategoryID, req.AutoClassify, pageClassificationText(page), "")
	if err != nil {
		return nil, err
	}
	s.stage(ctx, constants.StageClassified, req.URL, "category", res.CategoryName, "confidence", res.Confidence)

	item := &entity.Item{
		Title:       page.Title,
		Description: page.Description,
		ContentType: constants.ContentTypeURL,
		SourceURL:   strPtr(page.URL),
		MimeType:    "text/html",
		FileSize:    int64(len(page.ExtractedText)),
		Metadata:    page.Metadata,
	}
	if page.ExtractedText != "" {
		item.ExtractedText = strPtr(page.ExtractedText)
	}
	if err := s.persist(ctx, item, res, nil); err != nil {
		return nil, err
	}
	s.stage(ctx, constants.StageFinalized, req.URL, "item_id", item.ID)
	s.logger.Info("import.url.ok", "item_id", item.ID, "url", page.URL, "category", res.CategoryName,
		"elapsed_ms", time.Since(start).Milliseconds())
	return &ImportResult{Item: item, Classification: res}, nil
}

// pageClassificationText is the title, the description and the start of the body.
func pageClassificationText(p *scrape.Page) string {
	desc := ""
	if p.Description != nil {
		desc = *p.Description
	}
	body := []rune(p.ExtractedText)
	if len(body) > classifyChars {
		body = body[:classifyChars]
	}
	return strings.Join([]string{p.Title, desc, string(body)}, " ")
}
