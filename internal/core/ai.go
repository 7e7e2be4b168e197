package core

import "context"

// GenerateOptions bounds a single completion.
type GenerateOptions struct {
	MaxTokens   int
	Temperature float32
}

type LLMProvider interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string, opts GenerateOptions) (string, error)
	// ModelName is recorded in the AI call log.
	ModelName() string
	// Mode is "stub" or the provider name.
	Mode() string
}
