package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultGeminiModel   = "gemini-2.0-flash"
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	geminiKeyHeader      = "x-goog-api-key"
	maxErrorBody         = 4096
)

// GeminiConnector talks to the Google Generative Language REST API.
type GeminiConnector struct {
	base
	client *http.Client
}

// NewGemini creates an unconnected Gemini connector.
func NewGemini(creds CredentialSource, settings Settings) *GeminiConnector {
	if settings.Model == "" {
		settings.Model = defaultGeminiModel
	}
	if settings.BaseURL == "" {
		settings.BaseURL = defaultGeminiBaseURL
	}
	settings.BaseURL = strings.TrimRight(settings.BaseURL, "/")
	g := &GeminiConnector{base: newBase(Gemini, creds, settings)}
	g.client = g.httpClient()
	return g
}

func (g *GeminiConnector) Connect(ctx context.Context) (bool, error) {
	key, err := g.resolveKey()
	if err != nil {
		g.markConnected("", false)
		return false, err
	}

	req, err := g.newRequest(ctx, http.MethodGet, "/v1beta/models?pageSize=1", key, nil)
	if err != nil {
		g.markConnected("", false)
		return false, newError(ErrorConnection, g.name, "build request", err)
	}
	if err := g.do(req, nil); err != nil {
		g.markConnected("", false)
		return probeFailure(g.name, geminiProbeStatus(err), err)
	}

	g.markConnected(key, true)
	return true, nil
}

func (g *GeminiConnector) SendPrompt(ctx context.Context, text string) (string, error) {
	if err := g.requireConnected(); err != nil {
		return "", err
	}

	payload := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: text}}}},
		GenerationConfig: geminiGenerationConfig{
			MaxOutputTokens: g.maxTokens(),
		},
	}
	if g.settings.Temperature != nil {
		t := *g.settings.Temperature
		payload.GenerationConfig.Temperature = &t
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", newError(ErrorRequest, g.name, "marshal payload", err)
	}

	g.mu.RLock()
	key := g.apiKey
	g.mu.RUnlock()

	path := fmt.Sprintf("/v1beta/models/%s:generateContent", g.settings.Model)
	req, err := g.newRequest(ctx, http.MethodPost, path, key, bytes.NewReader(body))
	if err != nil {
		return "", newError(ErrorRequest, g.name, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp geminiResponse
	if err := g.do(req, &resp); err != nil {
		return "", promptFailure(g.name, statusOf(err), err)
	}

	if resp.PromptFeedback.BlockReason != "" {
		return "", newError(ErrorRequest, g.name, "prompt blocked: "+resp.PromptFeedback.BlockReason, nil)
	}
	if len(resp.Candidates) == 0 {
		return "", newError(ErrorRequest, g.name, "empty candidates in response", nil)
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	if sb.Len() == 0 {
		return "", newError(ErrorRequest, g.name, "empty response", nil)
	}
	return sb.String(), nil
}

func (g *GeminiConnector) newRequest(ctx context.Context, method, path, key string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, g.settings.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set(geminiKeyHeader, key)
	return req, nil
}

// do sends the request, checks for a 2xx status, and decodes into dest
// when dest is non-nil.
func (g *GeminiConnector) do(req *http.Request, dest any) error {
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &statusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// statusError is a non-2xx reply from a REST provider.
type statusError struct {
	StatusCode int
	Body       string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

func statusOf(err error) int {
	if se, ok := err.(*statusError); ok {
		return se.StatusCode
	}
	return 0
}

// geminiProbeStatus folds Google's 400 API_KEY_INVALID reply into an auth
// rejection.
func geminiProbeStatus(err error) int {
	se, ok := err.(*statusError)
	if !ok {
		return 0
	}
	if se.StatusCode == http.StatusBadRequest && strings.Contains(se.Body, "API_KEY_INVALID") {
		return http.StatusUnauthorized
	}
	return se.StatusCode
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}
