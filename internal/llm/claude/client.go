// Package claude implements the triage.Narrator interface against the
// Anthropic Claude API.
package claude

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const responseTokens = 4096

// Client generates narratives via the Claude messages API.
type Client struct {
	client anthropic.Client
	model  string
}

// New creates a new Claude narrator with the given API key and model name.
func New(apiKey, model string) *Client {
	return &Client{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Generate sends a single-turn messages request and returns the text
// content. No retries; tool use is not involved in narrative generation.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: responseTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude messages: %w", err)
	}

	text := extractText(msg)
	if text == "" {
		return "", fmt.Errorf("claude messages: empty response (stop_reason=%s)", msg.StopReason)
	}
	return text, nil
}

// extractText concatenates the text blocks of a response, skipping any other
// block types.
func extractText(msg *anthropic.Message) string {
	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text
}

// Available reports whether the API answers a model listing request.
func (c *Client) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := c.client.Models.List(ctx, anthropic.ModelListParams{
		Limit: anthropic.Int(1),
	})
	return err == nil
}
