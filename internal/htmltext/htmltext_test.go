package htmltext

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextStripsBoilerplate(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<html><body>
<header>Site header</header>
<nav>Menu</nav>
<p>  First paragraph  </p>
<script>var x = 1;</script>
<div><span>Nested</span>

   <b>bold</b></div>
<footer>Footer</footer>
</body></html>`))
	require.NoError(t, err)

	Strip(doc, Boilerplate...)
	assert.Equal(t, "First paragraph\nNested\nbold", Text(doc.Find("body")))
}

func TestMetaPicksFirstNonEmpty(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<head>
<meta name="description" content="  ">
<meta name="Description" content=" Real one ">
</head>`))
	require.NoError(t, err)
	assert.Equal(t, "Real one", Meta(doc, "name", "description"))
	assert.Equal(t, "", Meta(doc, "property", "og:title"))
}
