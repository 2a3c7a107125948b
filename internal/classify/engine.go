package classify

import (
	"context"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/knowledge-vault/internal/common"
)

const (
	keywordWeight  = 1.0
	fileTypeWeight = 3.0
	pathWeight     = 2.0

	// scoreScale maps a raw score onto [0,1] confidence.
	scoreScale = 10.0

	// AIConfidence is assigned to categories chosen by AI arbitration.
	AIConfidence = 0.85

	SourceRules  = "rules"
	SourceAI     = "ai"
	SourceManual = "manual"
)

// CategoryResolver looks up the stored identifier of a category name.
type CategoryResolver interface {
	CategoryIDByName(ctx context.Context, name string) (uuid.UUID, bool, error)
}

// Result is the outcome of one classification.
type Result struct {
	CategoryName string // empty when no category scored
	CategoryID   *uuid.UUID
	Confidence   float64
	Source       string
}

// Matched reports whether a category was chosen.
func (r Result) Matched() bool { return r.CategoryName != "" }

// CategoryScore is the aggregate score of one category.
type CategoryScore struct {
	Category string
	Score    float64
}

// Engine scores text and path hints against a built-in and a configured
// rule set. Scoring is pure; only the name-to-ID cache is shared state.
type Engine struct {
	mu         sync.RWMutex
	builtin    []Rule
	configured []Rule
	order      []string

	resolver CategoryResolver
	cacheMu  sync.Mutex
	idCache  map[string]uuid.UUID

	arbiter *Arbiter
	logger  *slog.Logger
}

type Option func(*Engine)

func WithResolver(r CategoryResolver) Option { return func(e *Engine) { e.resolver = r } }
func WithArbiter(a *Arbiter) Option          { return func(e *Engine) { e.arbiter = a } }
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine validates configured rules and fixes the category declaration
// order: built-in categories first, then config-only ones in config order.
func NewEngine(builtin, configured []Rule, opts ...Option) (*Engine, error) {
	if err := common.ValidateRules(configured); err != nil {
		return nil, common.NewAppError(common.CodeConfig, "invalid classification rules", err)
	}
	e := &Engine{
		builtin: builtin,
		idCache: map[string]uuid.UUID{},
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	e.setConfigured(configured)
	return e, nil
}

func (e *Engine) setConfigured(configured []Rule) {
	seen := map[string]struct{}{}
	var order []string
	for _, set := range [][]Rule{e.builtin, configured} {
		for _, r := range set {
			if _, ok := seen[r.Category]; ok {
				continue
			}
			seen[r.Category] = struct{}{}
			order = append(order, r.Category)
		}
	}
	e.configured = configured
	e.order = order
}

// Reload swaps the configured rules and clears the ID cache.
func (e *Engine) Reload(configured []Rule) error {
	if err := common.ValidateRules(configured); err != nil {
		return common.NewAppError(common.CodeConfig, "invalid classification rules", err)
	}
	e.mu.Lock()
	e.setConfigured(configured)
	e.mu.Unlock()

	e.cacheMu.Lock()
	e.idCache = map[string]uuid.UUID{}
	e.cacheMu.Unlock()
	e.logger.Info("classify.rules.reloaded", "configured", len(configured))
	return nil
}

// Categories returns every known category in declaration order.
func (e *Engine) Categories() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]string(nil), e.order...)
}

// Score returns the aggregate score of every declared category, in
// declaration order. Within one rule set contributions add up; across the
// built-in and configured sets a category keeps the larger of the two.
func (e *Engine) Score(text, pathHint string) []CategoryScore {
	e.mu.RLock()
	defer e.mu.RUnlock()

	lowerText := strings.ToLower(text)
	lowerPath := strings.ToLower(pathHint)
	ext := strings.ToLower(filepath.Ext(pathHint))

	builtin := scoreSet(e.builtin, lowerText, lowerPath, ext)
	configured := scoreSet(e.configured, lowerText, lowerPath, ext)

	out := make([]CategoryScore, len(e.order))
	for i, cat := range e.order {
		out[i] = CategoryScore{Category: cat, Score: math.Max(builtin[cat], configured[cat])}
	}
	return out
}

func scoreSet(rules []Rule, lowerText, lowerPath, ext string) map[string]float64 {
	scores := make(map[string]float64, len(rules))
	for _, r := range rules {
		scores[r.Category] += scoreRule(r, lowerText, lowerPath, ext)
	}
	return scores
}

func scoreRule(r Rule, lowerText, lowerPath, ext string) float64 {
	var s float64
	for _, kw := range r.Keywords {
		if kw != "" && strings.Contains(lowerText, strings.ToLower(kw)) {
			s += keywordWeight
		}
	}
	if lowerPath == "" {
		return s
	}
	if ext != "" {
		for _, ft := range r.FileTypes {
			if strings.ToLower(ft) == ext {
				s += fileTypeWeight
				break
			}
		}
	}
	for _, p := range r.PathPatterns {
		if p != "" && strings.Contains(lowerPath, strings.ToLower(p)) {
			s += pathWeight
		}
	}
	return s
}

// Classify picks the category with the strictly highest score; ties go to
// the category declared first.
func (e *Engine) Classify(ctx context.Context, text, pathHint string) Result {
	best := CategoryScore{}
	for _, cs := range e.Score(text, pathHint) {
		if cs.Score > best.Score {
			best = cs
		}
	}
	if best.Score <= 0 {
		return Result{Source: SourceRules}
	}
	return Result{
		CategoryName: best.Category,
		CategoryID:   e.ResolveID(ctx, best.Category),
		Confidence:   math.Min(best.Score/scoreScale, 1.0),
		Source:       SourceRules,
	}
}

// ClassifyWithAI asks the arbiter to choose among the known categories.
// ok is false when AI is disabled or has no opinion.
func (e *Engine) ClassifyWithAI(ctx context.Context, text string) (Result, bool) {
	if e.arbiter == nil || !e.arbiter.Enabled() {
		return Result{}, false
	}
	name, ok := e.arbiter.Arbitrate(ctx, text, e.Categories())
	if !ok {
		return Result{}, false
	}
	return Result{
		CategoryName: name,
		CategoryID:   e.ResolveID(ctx, name),
		Confidence:   AIConfidence,
		Source:       SourceAI,
	}, true
}

// AIEnabled reports whether an arbiter is configured.
func (e *Engine) AIEnabled() bool { return e.arbiter != nil && e.arbiter.Enabled() }

// ResolveID maps a category name to its stored ID through a per-engine
// cache. Misses and lookup errors yield nil.
func (e *Engine) ResolveID(ctx context.Context, name string) *uuid.UUID {
	if e.resolver == nil || name == "" {
		return nil
	}
	e.cacheMu.Lock()
	id, ok := e.idCache[name]
	e.cacheMu.Unlock()
	if ok {
		return &id
	}

	id, found, err := e.resolver.CategoryIDByName(ctx, name)
	if err != nil {
		e.logger.Warn("classify.resolve.failed", "category", name, "error", err)
		return nil
	}
	if !found {
		e.logger.Debug("classify.resolve.miss", "category", name)
		return nil
	}
	e.cacheMu.Lock()
	e.idCache[name] = id
	e.cacheMu.Unlock()
	return &id
}
