package ai

import (
	"context"
	"errors"
	"fmt"

	"nearmatch/internal/modules/profile"
)

// PromptOracle implements Oracle on top of any LLMClient.
type PromptOracle struct {
	llm        LLMClient
	strictness Strictness
}

func NewPromptOracle(llm LLMClient, strictness Strictness) *PromptOracle {
	if strictness == "" {
		strictness = StrictnessBalanced
	}
	return &PromptOracle{llm: llm, strictness: strictness}
}

func (o *PromptOracle) Score(ctx context.Context, a, b profile.Profile) (string, error) {
	prompt, err := buildMatchPrompt(a, b, o.strictness)
	if err != nil {
		return "", fmt.Errorf("build prompt: %w", err)
	}
	raw, err := o.llm.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrOracleFailure, err)
	}
	return raw, nil
}

// Decide scores a and b and parses the verdict.
func Decide(ctx context.Context, oracle Oracle, a, b profile.Profile) (MatchDecision, error) {
	raw, err := oracle.Score(ctx, a, b)
	if err != nil {
		if !errors.Is(err, ErrOracleFailure) {
			err = fmt.Errorf("%w: %w", ErrOracleFailure, err)
		}
		return MatchDecision{}, err
	}
	return ParseDecision(raw)
}
