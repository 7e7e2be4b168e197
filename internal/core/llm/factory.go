package llm

import (
	"context"
	"fmt"

	"github.com/markdave123-py/csrdesk/internal/config"
	"github.com/markdave123-py/csrdesk/internal/core"
)

// New returns the provider selected by AI_MODE.
func New(ctx context.Context, cfg *config.Config) (core.LLMProvider, error) {
	switch cfg.AIMode {
	case ModeGemini:
		return NewGeminiLLM(ctx, cfg.AIAPIKey, cfg.GenModel)
	case ModeStub, "":
		return NewStubLLM(), nil
	default:
		return nil, fmt.Errorf("unknown AI mode %q", cfg.AIMode)
	}
}
