package connector

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultClaudeModel = "claude-sonnet-4-5"

// ClaudeConnector talks to the Anthropic Messages API.
type ClaudeConnector struct {
	base
	client anthropic.Client
}

// NewClaude creates an unconnected Claude connector.
func NewClaude(creds CredentialSource, settings Settings) *ClaudeConnector {
	if settings.Model == "" {
		settings.Model = defaultClaudeModel
	}
	return &ClaudeConnector{base: newBase(Claude, creds, settings)}
}

func (c *ClaudeConnector) options(key string) []option.RequestOption {
	opts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithMaxRetries(0),
		option.WithHTTPClient(c.httpClient()),
	}
	if c.settings.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(c.settings.BaseURL))
	}
	return opts
}

func (c *ClaudeConnector) Connect(ctx context.Context) (bool, error) {
	key, err := c.resolveKey()
	if err != nil {
		c.markConnected("", false)
		return false, err
	}

	client := anthropic.NewClient(c.options(key)...)
	if _, err := client.Models.List(ctx, anthropic.ModelListParams{}); err != nil {
		c.markConnected("", false)
		return probeFailure(c.name, anthropicStatus(err), err)
	}

	c.mu.Lock()
	c.client = client
	c.mu.Unlock()
	c.markConnected(key, true)
	return true, nil
}

func (c *ClaudeConnector) SendPrompt(ctx context.Context, text string) (string, error) {
	if err := c.requireConnected(); err != nil {
		return "", err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.settings.Model),
		MaxTokens: int64(c.maxTokens()),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
		},
	}
	if c.settings.Temperature != nil {
		params.Temperature = anthropic.Float(*c.settings.Temperature)
	}

	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return "", promptFailure(c.name, anthropicStatus(err), err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if b, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(b.Text)
		}
	}
	if sb.Len() == 0 {
		return "", newError(ErrorRequest, c.name, "empty response", nil)
	}
	return sb.String(), nil
}

func anthropicStatus(err error) int {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
