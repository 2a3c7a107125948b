package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/joseph-ayodele/knowledge-vault/internal/htmltext"
)

func extractHTML(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return HTMLText(strings.ToValidUTF8(string(b), "�"))
}

// HTMLText strips boilerplate elements and returns the remaining text as
// newline-separated non-empty lines.
func HTMLText(markup string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	htmltext.Strip(doc, htmltext.Boilerplate...)
	return htmltext.Text(doc.Selection), nil
}
