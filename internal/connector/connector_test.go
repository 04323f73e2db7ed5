package connector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticCreds is a mutable in-memory credential source.
type staticCreds struct {
	mu   sync.Mutex
	keys map[ProviderName]string
}

func newStaticCreds(kv map[ProviderName]string) *staticCreds {
	if kv == nil {
		kv = map[ProviderName]string{}
	}
	return &staticCreds{keys: kv}
}

func (s *staticCreds) Credential(p ProviderName) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.keys[p]
	return v, ok
}

func (s *staticCreds) set(p ProviderName, v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[p] = v
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func TestParseProviderName(t *testing.T) {
	cases := map[string]ProviderName{
		"claude":    Claude,
		"Anthropic": Claude,
		" ChatGPT ": ChatGPT,
		"openai":    ChatGPT,
		"GEMINI":    Gemini,
		"google":    Gemini,
	}
	for in, want := range cases {
		got, err := ParseProviderName(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseProviderName("grok")
	require.Error(t, err)
	assert.Equal(t, ErrorUnknownProvider, KindOf(err))
}

func TestErrorKindText(t *testing.T) {
	b, err := ErrorRateLimit.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "rate_limit", string(b))

	var k ErrorKind
	require.NoError(t, k.UnmarshalText([]byte("connection")))
	assert.Equal(t, ErrorConnection, k)
}

func TestFactoryCreateReturnsFreshInstances(t *testing.T) {
	f := NewFactory(newStaticCreds(nil), nil)

	a, err := f.Create(Claude)
	require.NoError(t, err)
	b, err := f.Create(Claude)
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.False(t, a.Connected())
	assert.Equal(t, Claude, a.Name())
}

func TestFactoryUnknownProvider(t *testing.T) {
	f := NewFactory(newStaticCreds(nil), nil)
	_, err := f.Create("Grok")
	require.Error(t, err)
	assert.Equal(t, ErrorUnknownProvider, KindOf(err))
}

func TestFactoryNamesAndLookup(t *testing.T) {
	f := NewFactory(newStaticCreds(nil), nil)
	assert.Equal(t, []ProviderName{Claude, ChatGPT, Gemini}, f.Names())

	name, err := f.Lookup("openai")
	require.NoError(t, err)
	assert.Equal(t, ChatGPT, name)

	f.Register("Local", func(c CredentialSource, s Settings) Connector { return NewChatGPT(c, s) })
	name, err = f.Lookup("local")
	require.NoError(t, err)
	assert.Equal(t, ProviderName("Local"), name)
	assert.Equal(t, []ProviderName{Claude, ChatGPT, Gemini, "Local"}, f.Names())

	empty := NewEmptyFactory(nil)
	_, err = empty.Lookup("claude")
	assert.Equal(t, ErrorUnknownProvider, KindOf(err))
}

func geminiServer(t *testing.T, handler http.HandlerFunc) (*GeminiConnector, *staticCreds) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	creds := newStaticCreds(map[ProviderName]string{Gemini: "g-key"})
	return NewGemini(creds, Settings{BaseURL: srv.URL, Model: "gemini-test"}), creds
}

func TestGeminiConnectAndSend(t *testing.T) {
	g, _ := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "g-key", r.Header.Get("x-goog-api-key"))
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/v1beta/models":
			writeJSON(t, w, http.StatusOK, map[string]any{"models": []any{}})
		case r.Method == http.MethodPost && r.URL.Path == "/v1beta/models/gemini-test:generateContent":
			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			contents, _ := body["contents"].([]any)
			assert.Len(t, contents, 1)
			writeJSON(t, w, http.StatusOK, map[string]any{
				"candidates": []map[string]any{{
					"content": map[string]any{
						"role":  "model",
						"parts": []map[string]any{{"text": "Use a "}, {"text": "SaveGame object."}},
					},
					"finishReason": "STOP",
				}},
			})
		default:
			http.NotFound(w, r)
		}
	})

	ok, err := g.Connect(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, g.Connected())

	text, err := g.SendPrompt(context.Background(), "How do I save games?")
	require.NoError(t, err)
	assert.Equal(t, "Use a SaveGame object.", text)
}

func TestGeminiTemperatureZeroIsSent(t *testing.T) {
	var mu sync.Mutex
	var configs []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			writeJSON(t, w, http.StatusOK, map[string]any{"models": []any{}})
			return
		}
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		cfg, _ := body["generationConfig"].(map[string]any)
		mu.Lock()
		configs = append(configs, cfg)
		mu.Unlock()
		writeJSON(t, w, http.StatusOK, map[string]any{
			"candidates": []map[string]any{{"content": map[string]any{"parts": []map[string]any{{"text": "ok"}}}}},
		})
	}))
	defer srv.Close()

	zero := 0.0
	creds := newStaticCreds(map[ProviderName]string{Gemini: "g-key"})
	for _, temp := range []*float64{&zero, nil} {
		g := NewGemini(creds, Settings{BaseURL: srv.URL, Model: "gemini-test", Temperature: temp})
		_, err := g.Connect(context.Background())
		require.NoError(t, err)
		_, err = g.SendPrompt(context.Background(), "seed the RNG")
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, configs, 2)
	got, ok := configs[0]["temperature"]
	require.True(t, ok, "a zero temperature must be sent")
	assert.Equal(t, 0.0, got)
	_, ok = configs[1]["temperature"]
	assert.False(t, ok, "an unset temperature must be omitted")
}

func TestGeminiMissingCredential(t *testing.T) {
	g := NewGemini(newStaticCreds(nil), Settings{BaseURL: "http://127.0.0.1:1"})
	ok, err := g.Connect(context.Background())
	assert.False(t, ok)
	require.Error(t, err)
	assert.Equal(t, ErrorConnection, KindOf(err))
}

func TestGeminiCredentialChangeBetweenConnects(t *testing.T) {
	g, creds := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "new-key" {
			writeJSON(t, w, http.StatusBadRequest, map[string]any{
				"error": map[string]any{"status": "INVALID_ARGUMENT", "details": []any{map[string]any{"reason": "API_KEY_INVALID"}}},
			})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{"models": []any{}})
	})

	ok, err := g.Connect(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	creds.set(Gemini, "new-key")
	ok, err = g.Connect(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGeminiAuthRejected(t *testing.T) {
	g, _ := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	ok, err := g.Connect(context.Background())
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, g.Connected())
}

func TestGeminiRateLimited(t *testing.T) {
	g, _ := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			writeJSON(t, w, http.StatusOK, map[string]any{})
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
	})
	ok, err := g.Connect(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	_, err = g.SendPrompt(context.Background(), "hi")
	require.Error(t, err)
	assert.Equal(t, ErrorRateLimit, KindOf(err))
}

func TestGeminiServerErrorIsRequestError(t *testing.T) {
	g, _ := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			writeJSON(t, w, http.StatusOK, map[string]any{})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := g.Connect(context.Background())
	require.NoError(t, err)

	_, err = g.SendPrompt(context.Background(), "hi")
	assert.Equal(t, ErrorRequest, KindOf(err))
}

func TestGeminiUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	g := NewGemini(newStaticCreds(map[ProviderName]string{Gemini: "k"}), Settings{BaseURL: url})
	ok, err := g.Connect(context.Background())
	assert.False(t, ok)
	assert.Equal(t, ErrorConnection, KindOf(err))
}

func TestSendBeforeConnect(t *testing.T) {
	for _, c := range []Connector{
		NewClaude(newStaticCreds(nil), Settings{}),
		NewChatGPT(newStaticCreds(nil), Settings{}),
		NewGemini(newStaticCreds(nil), Settings{}),
	} {
		_, err := c.SendPrompt(context.Background(), "hi")
		require.Error(t, err, c.Name())
		assert.Equal(t, ErrorConnection, KindOf(err), c.Name())
	}
}

func TestClaudeConnectAndSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "c-key", r.Header.Get("X-Api-Key"))
		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/v1/models"):
			writeJSON(t, w, http.StatusOK, map[string]any{
				"data": []map[string]any{{
					"id": "claude-test", "type": "model", "display_name": "Claude Test",
					"created_at": "2025-01-01T00:00:00Z",
				}},
				"has_more": false, "first_id": "claude-test", "last_id": "claude-test",
			})
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/v1/messages"):
			writeJSON(t, w, http.StatusOK, map[string]any{
				"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-test",
				"content":     []map[string]any{{"type": "text", "text": "Serialize to a slot file."}},
				"stop_reason": "end_turn",
				"usage":       map[string]any{"input_tokens": 5, "output_tokens": 6},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClaude(newStaticCreds(map[ProviderName]string{Claude: "c-key"}), Settings{BaseURL: srv.URL, Model: "claude-test"})
	ok, err := c.Connect(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	text, err := c.SendPrompt(context.Background(), "save systems?")
	require.NoError(t, err)
	assert.Equal(t, "Serialize to a slot file.", text)
}

func TestClaudeAuthRejectedAndRateLimit(t *testing.T) {
	var reject atomic.Bool
	reject.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			if reject.Load() {
				writeJSON(t, w, http.StatusUnauthorized, map[string]any{
					"type": "error", "error": map[string]any{"type": "authentication_error", "message": "invalid x-api-key"},
				})
				return
			}
			writeJSON(t, w, http.StatusOK, map[string]any{"data": []any{}, "has_more": false})
			return
		}
		writeJSON(t, w, http.StatusTooManyRequests, map[string]any{
			"type": "error", "error": map[string]any{"type": "rate_limit_error", "message": "slow down"},
		})
	}))
	defer srv.Close()

	c := NewClaude(newStaticCreds(map[ProviderName]string{Claude: "bad"}), Settings{BaseURL: srv.URL})
	ok, err := c.Connect(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	reject.Store(false)
	ok, err = c.Connect(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	_, err = c.SendPrompt(context.Background(), "hi")
	require.Error(t, err)
	assert.Equal(t, ErrorRateLimit, KindOf(err))
}

func TestChatGPTConnectAndSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer o-key", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/models"):
			writeJSON(t, w, http.StatusOK, map[string]any{
				"object": "list",
				"data":   []map[string]any{{"id": "gpt-test", "object": "model", "created": 1, "owned_by": "openai"}},
			})
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/chat/completions"):
			writeJSON(t, w, http.StatusOK, map[string]any{
				"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "gpt-test",
				"choices": []map[string]any{{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": "Use USaveGame."},
					"finish_reason": "stop",
				}},
				"usage": map[string]any{"prompt_tokens": 3, "completion_tokens": 4, "total_tokens": 7},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewChatGPT(newStaticCreds(map[ProviderName]string{ChatGPT: "o-key"}), Settings{BaseURL: srv.URL, Model: "gpt-test"})
	ok, err := c.Connect(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	text, err := c.SendPrompt(context.Background(), "save systems?")
	require.NoError(t, err)
	assert.Equal(t, "Use USaveGame.", text)
}

func TestChatGPTMissingCredential(t *testing.T) {
	c := NewChatGPT(newStaticCreds(map[ProviderName]string{ChatGPT: ""}), Settings{})
	ok, err := c.Connect(context.Background())
	assert.False(t, ok)
	assert.Equal(t, ErrorConnection, KindOf(err))
}
