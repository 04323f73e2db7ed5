package connector

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultChatGPTModel = "gpt-4o-mini"

// ChatGPTConnector talks to the OpenAI chat completions API.
// Also works with compatible servers via Settings.BaseURL.
type ChatGPTConnector struct {
	base
	client openai.Client
}

// NewChatGPT creates an unconnected ChatGPT connector.
func NewChatGPT(creds CredentialSource, settings Settings) *ChatGPTConnector {
	if settings.Model == "" {
		settings.Model = defaultChatGPTModel
	}
	return &ChatGPTConnector{base: newBase(ChatGPT, creds, settings)}
}

func (c *ChatGPTConnector) options(key string) []option.RequestOption {
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

func (c *ChatGPTConnector) Connect(ctx context.Context) (bool, error) {
	key, err := c.resolveKey()
	if err != nil {
		c.markConnected("", false)
		return false, err
	}

	client := openai.NewClient(c.options(key)...)
	if _, err := client.Models.List(ctx); err != nil {
		c.markConnected("", false)
		return probeFailure(c.name, openaiStatus(err), err)
	}

	c.mu.Lock()
	c.client = client
	c.mu.Unlock()
	c.markConnected(key, true)
	return true, nil
}

func (c *ChatGPTConnector) SendPrompt(ctx context.Context, text string) (string, error) {
	if err := c.requireConnected(); err != nil {
		return "", err
	}

	params := openai.ChatCompletionNewParams{
		Model: c.settings.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(text),
		},
		MaxTokens: openai.Int(int64(c.maxTokens())),
	}
	if c.settings.Temperature != nil {
		params.Temperature = openai.Float(*c.settings.Temperature)
	}

	c.mu.RLock()
	client := c.client
	c.mu.RUnlock()

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", promptFailure(c.name, openaiStatus(err), err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", newError(ErrorRequest, c.name, "empty response", nil)
	}
	return resp.Choices[0].Message.Content, nil
}

func openaiStatus(err error) int {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
