package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/joseph-ayodele/knowledge-vault/internal/common"
)

// DefaultUserAgent mimics a desktop Chrome browser.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

type Config struct {
	Timeout       time.Duration // per request, default 30s
	RatePerSecond float64       // 0 disables spacing
	Burst         int
	MaxBodyBytes  int64 // default 10 MiB
	UserAgent     string
}

// FetchError reports a non-2xx response.
type FetchError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %d %s", e.URL, e.StatusCode, e.Status)
}

func (e *FetchError) Unwrap() error { return common.ErrFetchFailure }

// Scraper fetches pages over one lazily created HTTP client. Close releases
// the client's connections; a closed Scraper creates a fresh client on next use.
type Scraper struct {
	cfg     Config
	limiter *rate.Limiter
	logger  *slog.Logger

	mu        sync.Mutex
	client    *http.Client
	transport *http.Transport
}

func New(cfg Config, logger *slog.Logger) *Scraper {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 10 << 20
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	s := &Scraper{cfg: cfg, logger: logger}
	if cfg.RatePerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst)
	}
	return s
}

func (s *Scraper) httpClient() *http.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		s.transport = http.DefaultTransport.(*http.Transport).Clone()
		s.client = &http.Client{Timeout: s.cfg.Timeout, Transport: s.transport}
	}
	return s.client
}

// Close releases pooled connections. It is safe to call more than once.
func (s *Scraper) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transport != nil {
		s.transport.CloseIdleConnections()
	}
	s.client, s.transport = nil, nil
	return nil
}

func (s *Scraper) setHeaders(req *http.Request) {
	// Accept-Encoding is left to the transport so compressed bodies are decoded.
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,zh-CN;q=0.8,zh;q=0.7")
	req.Header.Set("DNT", "1")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Sec-Fetch-User", "?1")
	req.Header.Set("Cache-Control", "max-age=0")
}

// Scrape fetches rawURL, following redirects, and parses the final document.
// It does not retry.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (*Page, error) {
	start := time.Now()
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrFetchFailure, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", common.ErrFetchFailure, err)
	}
	s.setHeaders(req)

	resp, err := s.httpClient().Do(req)
	if err != nil {
		s.logger.Warn("scrape.fetch.error", "url", rawURL, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, fmt.Errorf("%w: %v", common.ErrFetchFailure, err)
	}
	defer func() { _ = resp.Body.Close() }()

	finalURL := resp.Request.URL.String()
	if resp.StatusCode/100 != 2 {
		s.logger.Warn("scrape.fetch.status", "url", rawURL, "final_url", finalURL, "status", resp.StatusCode)
		return nil, &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, s.cfg.MaxBodyBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("%w: decode body: %v", common.ErrFetchFailure, err)
	}
	page, err := Parse(body, rawURL, finalURL)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", common.ErrFetchFailure, err)
		}
		return nil, err
	}

	s.logger.Info("scrape.fetch.ok",
		"url", rawURL,
		"final_url", finalURL,
		"status", resp.StatusCode,
		"chars", len(page.ExtractedText),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return page, nil
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

func trimmed(s string) string { return strings.TrimSpace(s) }
