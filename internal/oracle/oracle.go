// Package oracle wraps the reasoning model behind an OpenAI-compatible API.
// The model sees the current knowledge graph plus one new document per call
// and answers with a graph delta; all merge intelligence lives in the
// prompts, not in client code.
package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/osgraph/osgraph/internal/model"
)

// Client calls a chat-completion endpoint. DeepSeek is the default target;
// any OpenAI-compatible server works via the base URL.
type Client struct {
	client *openai.Client
	cfg    model.OracleConfig
}

// NewClient builds an oracle client. A missing API key is a configuration
// error surfaced before the run starts.
func NewClient(cfg model.OracleConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("oracle API key is required")
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return &Client{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
	}, nil
}

// Derive asks the model to extract subject-relevant facts from document and
// express them as a delta against the current graph. Returns the raw model
// text; the caller extracts and parses the embedded JSON.
func (c *Client) Derive(ctx context.Context, subject, graphJSON, document string) (string, error) {
	return c.complete(ctx, derivePrompt(subject, graphJSON, document))
}

// Advise asks the model for follow-up investigation guidance once a person's
// identifiers have been enriched. It sees the person's subgraph together
// with the breach and account-enumeration findings; the answer is free-form
// prose.
func (c *Client) Advise(ctx context.Context, subject, subgraphJSON, enrichmentJSON string) (string, error) {
	return c.complete(ctx, advisePrompt(subject, subgraphJSON, enrichmentJSON))
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("oracle request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("oracle returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
