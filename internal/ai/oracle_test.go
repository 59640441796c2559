package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nearmatch/internal/config"
	"nearmatch/internal/modules/profile"
)

type stubLLM struct {
	prompt   string
	response string
	err      error
}

func (s *stubLLM) Generate(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.response, s.err
}

func TestPromptOracle_EmbedsBothProfiles(t *testing.T) {
	llm := &stubLLM{response: `{"isMatch":true,"compatibilityScore":0.8}`}
	o := NewPromptOracle(llm, StrictnessStrict)

	a := profile.Profile{Name: "Ana", Age: 29, Bio: "Trail runner", Interests: []string{"hiking", "coffee"}}
	b := profile.Profile{Name: "Ben", Bio: "Barista"}

	d, err := Decide(context.Background(), o, a, b)
	require.NoError(t, err)
	assert.True(t, d.IsMatch)

	assert.Contains(t, llm.prompt, `"name":"Ana"`)
	assert.Contains(t, llm.prompt, `"interests":["hiking","coffee"]`)
	assert.Contains(t, llm.prompt, `"name":"Ben"`)
	assert.Contains(t, llm.prompt, `"interests":[]`)
	assert.Contains(t, llm.prompt, "Be selective")
}

func TestPromptOracle_TransportErrorIsOracleFailure(t *testing.T) {
	o := NewPromptOracle(&stubLLM{err: errors.New("timeout")}, "")
	_, err := Decide(context.Background(), o, profile.Profile{}, profile.Profile{})
	assert.ErrorIs(t, err, ErrOracleFailure)
}

func TestNewClient_UnknownProvider(t *testing.T) {
	_, err := NewClient(context.Background(), config.OracleConfig{Provider: "palm"})
	assert.Error(t, err)
}

func TestNewClient_OpenAIAndClaude(t *testing.T) {
	c, err := NewClient(context.Background(), config.OracleConfig{Provider: "openai", APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, c)

	c, err = NewClient(context.Background(), config.OracleConfig{Provider: "claude", APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &ClaudeClient{}, c)
}
