package ai

import (
	"context"
	"fmt"
	"strings"

	"nearmatch/internal/config"
)

// NewClient builds the LLM backend named by cfg.Provider.
func NewClient(ctx context.Context, cfg config.OracleConfig) (LLMClient, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "gemini":
		return NewGeminiClient(ctx, cfg.APIKey, cfg.Model, cfg.Temperature)
	case "openai":
		return NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Temperature), nil
	case "claude", "anthropic":
		return NewClaudeClient(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Temperature), nil
	default:
		return nil, fmt.Errorf("unsupported oracle provider: %s", cfg.Provider)
	}
}

// NewOracle wires the configured backend behind the match prompt.
func NewOracle(ctx context.Context, cfg config.OracleConfig) (*PromptOracle, LLMClient, error) {
	llm, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return NewPromptOracle(llm, Strictness(cfg.Strictness)), llm, nil
}
