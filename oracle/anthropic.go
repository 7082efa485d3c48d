package oracle

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
)

// DefaultModel is used when no model is specified.
const DefaultModel = "claude-sonnet-4-20250514"

// ClaudeGenerator backs the oracle with the Anthropic Messages API.
type ClaudeGenerator struct {
	client *anthropic.Client
	model  string
}

// NewClaudeGenerator creates a generator using the given client.
// An empty model selects DefaultModel.
func NewClaudeGenerator(client *anthropic.Client, model string) *ClaudeGenerator {
	if model == "" {
		model = DefaultModel
	}
	return &ClaudeGenerator{
		client: client,
		model:  model,
	}
}

// Generate performs one non-streaming Messages call and concatenates
// the text blocks of the response.
func (g *ClaudeGenerator) Generate(ctx context.Context, systemPrompt, userText string, temperature float64) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(g.model),
		MaxTokens:   64,
		Temperature: anthropic.Float(temperature),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userText)),
		},
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude api error: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}
