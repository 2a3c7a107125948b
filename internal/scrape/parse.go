package scrape

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/joseph-ayodele/knowledge-vault/internal/common"
	"github.com/joseph-ayodele/knowledge-vault/internal/htmltext"
)

// Page is the structured result of one scrape.
type Page struct {
	Title         string
	Description   *string
	ExtractedText string
	URL           string // final URL after redirects
	RequestedURL  string
	Metadata      map[string]any
}

var nonContent = []string{"script", "style", "nav", "footer", "header", "aside", "form", "iframe", "noscript"}

var (
	reContentClass = regexp.MustCompile(`(?i)content|main|post|article|RichText`)
	reContentID    = regexp.MustCompile(`(?i)content|main|post|article`)
)

// Parse extracts title, description, main text and Open Graph metadata from
// an HTML document.
func Parse(r io.Reader, requestedURL, finalURL string) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", common.ErrFetchFailure, err)
	}

	page := &Page{
		Title:        title(doc, requestedURL),
		RequestedURL: requestedURL,
		URL:          finalURL,
		Metadata: map[string]any{
			"original_url": requestedURL,
			"final_url":    finalURL,
			"domain":       hostOf(finalURL),
		},
	}
	if d := description(doc); d != "" {
		page.Description = &d
	}
	if og := openGraph(doc); len(og) > 0 {
		page.Metadata["og"] = og
	}

	htmltext.Strip(doc, nonContent...)
	page.ExtractedText = htmltext.Text(mainContent(doc))
	return page, nil
}

func title(doc *goquery.Document, requestedURL string) string {
	if t := htmltext.Meta(doc, "property", "og:title"); t != "" {
		return t
	}
	if t := trimmed(doc.Find("title").First().Text()); t != "" {
		return t
	}
	if t := trimmed(doc.Find("h1").First().Text()); t != "" {
		return t
	}
	return hostOf(requestedURL)
}

func description(doc *goquery.Document) string {
	if d := htmltext.Meta(doc, "property", "og:description"); d != "" {
		return d
	}
	return htmltext.Meta(doc, "name", "description")
}

func openGraph(doc *goquery.Document) map[string]string {
	og := map[string]string{}
	doc.Find("meta[property]").Each(func(_ int, s *goquery.Selection) {
		prop := strings.ToLower(trimmed(s.AttrOr("property", "")))
		content := trimmed(s.AttrOr("content", ""))
		if !strings.HasPrefix(prop, "og:") || content == "" {
			return
		}
		og[strings.TrimPrefix(prop, "og:")] = content
	})
	return og
}

// mainContent picks main, then article, then a div whose class or id looks
// like a content container, then body.
func mainContent(doc *goquery.Document) *goquery.Selection {
	if s := doc.Find("main").First(); s.Length() > 0 {
		return s
	}
	if s := doc.Find("article").First(); s.Length() > 0 {
		return s
	}
	if s := doc.Find("div[class]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		for _, c := range strings.Fields(s.AttrOr("class", "")) {
			if reContentClass.MatchString(c) {
				return true
			}
		}
		return false
	}).First(); s.Length() > 0 {
		return s
	}
	if s := doc.Find("div[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return reContentID.MatchString(s.AttrOr("id", ""))
	}).First(); s.Length() > 0 {
		return s
	}
	if s := doc.Find("body").First(); s.Length() > 0 {
		return s
	}
	return doc.Selection
}
