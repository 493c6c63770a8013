// Package llm provides answer-generation clients for chat models.
package llm

import "context"

// Options controls one generation call.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Generator produces a completion for a single-turn prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
	// Ping reports whether the model endpoint is reachable.
	Ping(ctx context.Context) error
	Model() string
}
