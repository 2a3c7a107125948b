package llm

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/knowledge-vault/internal/common"
	"github.com/joseph-ayodele/knowledge-vault/internal/llm/openai"
)

// New selects a completion client by provider name. It returns nil when AI
// classification is switched off.
func New(cfg common.ClassificationConfig, logger *slog.Logger) (Completer, error) {
	if !cfg.UseAI {
		return nil, nil
	}
	switch cfg.AIProvider {
	case common.ProviderDeepSeek:
		return openai.NewClient(openai.Config{
			APIKey:  cfg.DeepSeek.APIKey,
			BaseURL: cfg.DeepSeek.BaseURL,
			Model:   cfg.DeepSeek.Model,
			Timeout: cfg.AITimeout,
		}, logger), nil
	case common.ProviderOllama:
		return NewOllamaClient(OllamaConfig{
			BaseURL: cfg.Ollama.BaseURL,
			Model:   cfg.Ollama.Model,
			Timeout: cfg.AITimeout,
		}, logger), nil
	default:
		return nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("unknown ai_provider %q", cfg.AIProvider), common.ErrInvalidInput)
	}
}
