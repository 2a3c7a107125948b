package scrape

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/knowledge-vault/internal/common"
)

func parse(t *testing.T, markup string) *Page {
	t.Helper()
	p, err := Parse(strings.NewReader(markup), "https://example.com:8443/a", "https://example.com:8443/a")
	require.NoError(t, err)
	return p
}

func TestOGTitleWins(t *testing.T) {
	p := parse(t, `<html><head><meta property="og:title" content="Foo"><title>Bar</title></head><body><h1>Baz</h1></body></html>`)
	assert.Equal(t, "Foo", p.Title)
}

func TestTitleFallbacks(t *testing.T) {
	tests := []struct {
		name, markup, want string
	}{
		{"title element", `<title> Bar </title><h1>Baz</h1>`, "Bar"},
		{"first h1", `<body><h1>Baz</h1><h1>Qux</h1></body>`, "Baz"},
		{"hostname", `<body><p>nothing</p></body>`, "example.com:8443"},
		{"blank og title", `<meta property="og:title" content="  "><title>Bar</title>`, "Bar"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parse(t, tt.markup).Title)
		})
	}
}

func TestDescriptionPriority(t *testing.T) {
	p := parse(t, `<meta name="description" content="plain"><meta property="og:description" content="social">`)
	require.NotNil(t, p.Description)
	assert.Equal(t, "social", *p.Description)

	p = parse(t, `<meta name="description" content="plain">`)
	require.NotNil(t, p.Description)
	assert.Equal(t, "plain", *p.Description)

	assert.Nil(t, parse(t, `<title>x</title>`).Description)
}

func TestMainContentSelection(t *testing.T) {
	tests := []struct {
		name, markup, want string
	}{
		{"main element", `<body><div class="content">div</div><main><p>main text</p></main></body>`, "main text"},
		{"article element", `<body><div class="content">div</div><article>story</article></body>`, "story"},
		{"class heuristic", `<body><div class="sidebar">side</div><div class="x RichText">rich</div></body>`, "rich"},
		{"id heuristic", `<body><div id="left">l</div><div id="post-1">by id</div></body>`, "by id"},
		{"body fallback", `<body><nav>menu</nav><p>one</p>
<aside>ads</aside>
<p>  two  </p><script>x()</script></body>`, "one\ntwo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parse(t, tt.markup).ExtractedText)
		})
	}
}

func TestOpenGraphMetadata(t *testing.T) {
	p := parse(t, `<meta property="og:title" content="Foo"><meta property="og:type" content="article"><meta property="twitter:card" content="x">`)
	og, ok := p.Metadata["og"].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"title": "Foo", "type": "article"}, og)
	assert.Equal(t, "example.com:8443", p.Metadata["domain"])

	p = parse(t, `<meta property="og:title" content="Foo"><meta property="og:image" content="">`)
	og, ok = p.Metadata["og"].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"title": "Foo"}, og)

	p = parse(t, `<meta property="og:image" content="  ">`)
	_, ok = p.Metadata["og"]
	assert.False(t, ok, "empty properties are dropped")

	p = parse(t, `<title>plain</title>`)
	_, ok = p.Metadata["og"]
	assert.False(t, ok)
}

func TestScrapeFollowsRedirects(t *testing.T) {
	var gotUA string
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte("<html><head><title>caf\xe9</title></head><body><article>Read me</article></body></html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	s := New(Config{}, nil)
	defer func() { _ = s.Close() }()

	page, err := s.Scrape(context.Background(), srv.URL+"/start")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/final", page.URL)
	assert.Equal(t, srv.URL+"/start", page.RequestedURL)
	assert.Equal(t, "café", page.Title)
	assert.Equal(t, "Read me", page.ExtractedText)
	assert.Equal(t, DefaultUserAgent, gotUA)
	assert.Equal(t, srv.URL+"/start", page.Metadata["original_url"])
}

func TestScrapeNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	s := New(Config{}, nil)
	defer func() { _ = s.Close() }()

	_, err := s.Scrape(context.Background(), srv.URL)
	require.Error(t, err)
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	assert.Equal(t, "Not Found", fe.Status)
	assert.True(t, errors.Is(err, common.ErrFetchFailure))
}

func TestScrapeNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	s := New(Config{}, nil)
	_, err := s.Scrape(context.Background(), url)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrFetchFailure))
}

func TestScraperReusableAfterClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<title>ok</title>"))
	}))
	defer srv.Close()

	s := New(Config{RatePerSecond: 100, Burst: 2}, nil)
	for i := 0; i < 2; i++ {
		page, err := s.Scrape(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, "ok", page.Title)
		require.NoError(t, s.Close())
	}
	require.NoError(t, s.Close())
}
