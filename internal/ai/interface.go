package ai

import (
	"context"

	"nearmatch/internal/modules/profile"
)

// LLMClient is the minimal text-in/text-out contract every model backend
// implements. This allows swapping Gemini, OpenAI or Claude without touching
// the matching code.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Oracle scores the compatibility of two profiles. The response is free-form
// text expected to embed one JSON object; see ParseDecision.
type Oracle interface {
	Score(ctx context.Context, a, b profile.Profile) (string, error)
}
