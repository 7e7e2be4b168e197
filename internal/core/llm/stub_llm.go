package llm

import (
	"context"
	"fmt"

	"github.com/markdave123-py/csrdesk/internal/core"
)

const stubModelName = "stub-model-v0"

var _ core.LLMProvider = (*StubLLM)(nil)

// StubLLM returns a deterministic placeholder built from the prompt.
type StubLLM struct{}

func NewStubLLM() *StubLLM { return &StubLLM{} }

func (s *StubLLM) ModelName() string { return stubModelName }
func (s *StubLLM) Mode() string      { return ModeStub }

func (s *StubLLM) Generate(ctx context.Context, _ string, userPrompt string, _ core.GenerateOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	preview := []rune(userPrompt)
	if len(preview) > 200 {
		preview = preview[:200]
	}
	return fmt.Sprintf("[STUB AI OUTPUT] Generated from prompt (%d chars): %s", len([]rune(userPrompt)), string(preview)), nil
}
