package extract

import (
	"context"
	"fmt"
	"strings"
)

// PageSeparator joins per-page text.
const PageSeparator = "\n\n"

type pdfExtractor struct {
	bin    string
	runner Runner
}

// Extract runs pdftotext and joins the pages it emits in order.
func (p *pdfExtractor) Extract(ctx context.Context, path string) (string, error) {
	stdout, stderr, err := p.runner.Run(ctx, p.bin, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w: %s", err, truncate(strings.TrimSpace(string(stderr)), 512))
	}
	return JoinPages(strings.Split(string(stdout), "\f")), nil
}

// JoinPages normalizes each page and joins non-empty pages with PageSeparator.
func JoinPages(pages []string) string {
	out := make([]string, 0, len(pages))
	for _, pg := range pages {
		if pg = Normalize(pg); pg != "" {
			out = append(out, pg)
		}
	}
	return strings.Join(out, PageSeparator)
}
