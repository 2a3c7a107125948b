// Package htmltext holds the goquery helpers shared by the HTML extractor and
// the web scraper.
package htmltext

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Boilerplate lists elements removed before the text of a file is extracted.
var Boilerplate = []string{"script", "style", "nav", "footer", "header"}

// Strip removes every element matching one of tags from doc.
func Strip(doc *goquery.Document, tags ...string) {
	if len(tags) == 0 {
		return
	}
	doc.Find(strings.Join(tags, ", ")).Remove()
}

// Text returns the text under sel as newline-separated, trimmed, non-empty lines.
func Text(sel *goquery.Selection) string {
	var lines []string
	for _, n := range sel.Nodes {
		collect(n, &lines)
	}
	return strings.Join(lines, "\n")
}

func collect(n *html.Node, lines *[]string) {
	switch n.Type {
	case html.TextNode:
		for _, line := range strings.Split(n.Data, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				*lines = append(*lines, line)
			}
		}
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		if n.Data == "script" || n.Data == "style" || n.Data == "noscript" {
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(c, lines)
	}
}

// Meta returns the trimmed content of the first <meta> matching attr=value.
func Meta(doc *goquery.Document, attr, value string) string {
	var out string
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := s.Attr(attr); ok && strings.EqualFold(v, value) {
			out = strings.TrimSpace(s.AttrOr("content", ""))
			return out == ""
		}
		return true
	})
	return out
}
