package extract

import (
	"context"
	"log/slog"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/joseph-ayodele/knowledge-vault/constants"
)

// Extractor turns one file into plain text.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, path string) (string, error)

func (f ExtractorFunc) Extract(ctx context.Context, path string) (string, error) { return f(ctx, path) }

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Runner    Runner // when set, PDF support is registered without probing PATH
}

// Registry dispatches files to the extractors that were available at
// construction time. Formats without an extractor yield no text.
type Registry struct {
	byMime map[string]registered
	byExt  map[string]registered
	plain  registered
	logger *slog.Logger
}

type registered struct {
	format string
	ex     Extractor
}

func NewRegistry(cfg Config, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	r := &Registry{
		byMime: map[string]registered{},
		byExt:  map[string]registered{},
		logger: logger,
	}

	r.plain = registered{format: "text", ex: ExtractorFunc(extractPlain)}
	r.Register("text", r.plain.ex,
		[]string{"text/plain", "text/markdown", "text/x-rst", "text/css", "text/javascript",
			"application/json", "application/xml", "application/yaml", "application/toml", "application/sql"},
		plainExtensions()...)
	r.Register("html", ExtractorFunc(extractHTML),
		[]string{"text/html", "application/xhtml+xml"}, ".html", ".htm")
	r.Register("docx", ExtractorFunc(extractDOCX),
		[]string{"application/vnd.openxmlformats-officedocument.wordprocessingml.document"}, ".docx")
	r.Register("xlsx", ExtractorFunc(extractXLSX),
		[]string{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"}, ".xlsx")

	runner := cfg.Runner
	if runner == nil {
		if _, err := exec.LookPath(cfg.Pdftotext); err == nil {
			runner = execRunner{logger: logger}
		} else {
			logger.Info("extract.capability.unavailable", "format", "pdf", "binary", cfg.Pdftotext, "error", err)
		}
	}
	if runner != nil {
		r.Register("pdf", &pdfExtractor{bin: cfg.Pdftotext, runner: runner}, []string{"application/pdf"}, ".pdf")
	}

	logger.Debug("extract.registry.ready", "formats", r.Formats())
	return r
}

func plainExtensions() []string {
	var out []string
	for _, set := range []map[string]struct{}{constants.CodeExtensions, constants.PlainTextExtensions} {
		for ext := range set {
			out = append(out, ext)
		}
	}
	return out
}

// Register binds an extractor to MIME types and extensions, replacing any
// previous binding.
func (r *Registry) Register(format string, ex Extractor, mimes []string, exts ...string) {
	reg := registered{format: format, ex: ex}
	for _, m := range mimes {
		r.byMime[constants.BaseMime(m)] = reg
	}
	for _, e := range exts {
		r.byExt[constants.NormalizeExt(e)] = reg
	}
}

// Formats lists the registered format names.
func (r *Registry) Formats() []string {
	seen := map[string]struct{}{}
	for _, reg := range r.byExt {
		seen[reg.format] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Lookup resolves the extractor for a MIME type, falling back to the file
// extension when the MIME type is missing or unknown.
func (r *Registry) Lookup(mimeType, path string) (string, Extractor, bool) {
	m := constants.BaseMime(mimeType)
	if reg, ok := r.byMime[m]; ok {
		return reg.format, reg.ex, true
	}
	if reg, ok := r.byExt[constants.ExtOf(path)]; ok {
		return reg.format, reg.ex, true
	}
	if strings.HasPrefix(m, "text/") {
		return r.plain.format, r.plain.ex, true
	}
	return "", nil, false
}

// Extract returns the text of path. ok is false when the format has no
// extractor, when extraction fails, or when the file holds no text; failures
// are logged and never returned.
func (r *Registry) Extract(ctx context.Context, path, mimeType string) (string, bool) {
	format, ex, found := r.Lookup(mimeType, path)
	if !found {
		r.logger.Debug("extract.unsupported", "path", path, "mime", mimeType)
		return "", false
	}

	start := time.Now()
	text, err := ex.Extract(ctx, path)
	if err != nil {
		r.logger.Warn("extract.failed", "path", path, "format", format, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return "", false
	}
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	r.logger.Debug("extract.ok", "path", path, "format", format, "chars", len(text),
		"elapsed_ms", time.Since(start).Milliseconds())
	return text, true
}
