package classify

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/knowledge-vault/internal/common"
	"github.com/joseph-ayodele/knowledge-vault/internal/llm"
)

// MaxPromptChars bounds the text sample sent to the model.
const MaxPromptChars = 2000

// Arbiter asks a completion model to pick one of the known categories. It
// never returns an error: every failure means "no opinion".
type Arbiter struct {
	completer llm.Completer
	timeout   time.Duration
	logger    *slog.Logger
}

// NewArbiter returns an arbiter; a nil completer yields a disabled one.
func NewArbiter(c llm.Completer, timeout time.Duration, logger *slog.Logger) *Arbiter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Arbiter{completer: c, timeout: timeout, logger: logger}
}

func (a *Arbiter) Enabled() bool { return a != nil && a.completer != nil }

// Arbitrate returns the category the model chose, or ok=false.
func (a *Arbiter) Arbitrate(ctx context.Context, text string, categories []string) (string, bool) {
	if !a.Enabled() || len(categories) == 0 || strings.TrimSpace(text) == "" {
		return "", false
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	reply, err := a.completer.Complete(ctx, BuildPrompt(text, categories))
	if err != nil {
		a.logger.Warn("classify.ai.no_opinion",
			"provider", a.completer.Name(),
			"code", common.CodeAIUnavailable,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", false
	}

	name, ok := MatchCategory(reply, categories)
	if !ok {
		a.logger.Info("classify.ai.unmatched", "provider", a.completer.Name(), "reply", truncateRunes(reply, 80))
		return "", false
	}
	a.logger.Info("classify.ai.ok", "provider", a.completer.Name(), "category", name,
		"elapsed_ms", time.Since(start).Milliseconds())
	return name, true
}

// BuildPrompt renders the single-turn classification prompt.
func BuildPrompt(text string, categories []string) string {
	return "Classify the following text into one of these categories: " +
		strings.Join(categories, ", ") +
		"\n\nText: " + truncateRunes(text, MaxPromptChars) +
		"\n\nRespond with only the category name, nothing else."
}

// MatchCategory maps a model reply onto a known category: exact match first,
// then case-insensitive containment in either direction, in category order.
func MatchCategory(reply string, categories []string) (string, bool) {
	reply = strings.Trim(reply, " \t\r\n\"'`*.!:")
	if reply == "" {
		return "", false
	}
	for _, c := range categories {
		if c == reply {
			return c, true
		}
	}
	lr := strings.ToLower(reply)
	for _, c := range categories {
		lc := strings.ToLower(c)
		if strings.Contains(lr, lc) || strings.Contains(lc, lr) {
			return c, true
		}
	}
	return "", false
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
