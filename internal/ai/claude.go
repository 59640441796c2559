package ai

import (
	"context"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"
)

const (
	defaultClaudeModel = "claude-3-5-haiku-latest"
	claudeMaxTokens    = 512
)

type ClaudeClient struct {
	client      *anthropic.Client
	model       string
	temperature float32
}

func NewClaudeClient(apiKey, model, baseURL string, temperature float32) *ClaudeClient {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	if model == "" {
		model = defaultClaudeModel
	}
	return &ClaudeClient{
		client:      anthropic.NewClient(apiKey, opts...),
		model:       model,
		temperature: temperature,
	}
}

func (c *ClaudeClient) Generate(ctx context.Context, prompt string) (string, error) {
	temperature := c.temperature
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model: anthropic.Model(c.model),
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(prompt),
				},
			},
		},
		MaxTokens:   claudeMaxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return "", fmt.Errorf("claude: create message: %w", err)
	}
	if len(resp.Content) > 0 && resp.Content[0].Text != nil {
		return *resp.Content[0].Text, nil
	}
	return "", fmt.Errorf("claude: no response content")
}
