package llm

import "context"

// Completer sends one free-text prompt and returns one free-text completion.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string
}
