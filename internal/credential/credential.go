// Package credential resolves provider API keys. Connectors receive a
// Resolver at construction time and read from it on every connect, so keys
// saved through a settings front end take effect without a restart.
package credential

import (
	"os"
	"strings"
	"sync"

	"gamedev-ai/internal/connector"
)

// Resolver supplies a credential for a provider. A false second return
// means the provider is unconfigured.
type Resolver interface {
	Credential(provider connector.ProviderName) (string, bool)
}

// Setter persists or overrides a credential.
type Setter interface {
	SetCredential(provider connector.ProviderName, value string) error
}

// DefaultEnvVars are the conventional environment variables per provider.
var DefaultEnvVars = map[connector.ProviderName]string{
	connector.ChatGPT: "OPENAI_API_KEY",
	connector.Claude:  "ANTHROPIC_API_KEY",
	connector.Gemini:  "GOOGLE_API_KEY",
}

// EnvResolver reads credentials from environment variables on every call.
type EnvResolver struct {
	vars   map[connector.ProviderName]string
	lookup func(string) (string, bool)
}

// NewEnvResolver creates a resolver over DefaultEnvVars with per-provider
// overrides applied.
func NewEnvResolver(overrides map[connector.ProviderName]string) *EnvResolver {
	vars := make(map[connector.ProviderName]string, len(DefaultEnvVars))
	for p, v := range DefaultEnvVars {
		vars[p] = v
	}
	for p, v := range overrides {
		if v != "" {
			vars[p] = v
		}
	}
	return &EnvResolver{vars: vars, lookup: os.LookupEnv}
}

// EnvVar returns the variable consulted for provider.
func (r *EnvResolver) EnvVar(provider connector.ProviderName) string {
	return r.vars[provider]
}

func (r *EnvResolver) Credential(provider connector.ProviderName) (string, bool) {
	name, ok := r.vars[provider]
	if !ok {
		return "", false
	}
	val, ok := r.lookup(name)
	val = strings.TrimSpace(val)
	if !ok || val == "" {
		return "", false
	}
	return val, true
}

// Overlay holds credentials set during this process, typically from a
// settings form. Values are never written anywhere by the overlay itself.
type Overlay struct {
	mu   sync.RWMutex
	keys map[connector.ProviderName]string
}

func NewOverlay() *Overlay {
	return &Overlay{keys: make(map[connector.ProviderName]string)}
}

func (o *Overlay) Credential(provider connector.ProviderName) (string, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	v, ok := o.keys[provider]
	return v, ok && v != ""
}

// SetCredential stores value; an empty value clears the override.
func (o *Overlay) SetCredential(provider connector.ProviderName, value string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if value == "" {
		delete(o.keys, provider)
		return nil
	}
	o.keys[provider] = value
	return nil
}

// Chain returns the first credential found, in order.
type Chain []Resolver

func (c Chain) Credential(provider connector.ProviderName) (string, bool) {
	for _, r := range c {
		if r == nil {
			continue
		}
		if v, ok := r.Credential(provider); ok {
			return v, true
		}
	}
	return "", false
}

// Static is a fixed credential map, handy in tests.
type Static map[connector.ProviderName]string

func (s Static) Credential(provider connector.ProviderName) (string, bool) {
	v, ok := s[provider]
	return v, ok && v != ""
}

// SecretName is the key-store entry name for a provider's API key.
func SecretName(provider connector.ProviderName) string {
	return "api_key_" + strings.ToLower(string(provider))
}

// StoreResolver reads credentials persisted in a KeyStore.
type StoreResolver struct {
	store *KeyStore
}

func NewStoreResolver(store *KeyStore) *StoreResolver {
	return &StoreResolver{store: store}
}

func (r *StoreResolver) Credential(provider connector.ProviderName) (string, bool) {
	if r.store == nil {
		return "", false
	}
	v, err := r.store.Get(SecretName(provider))
	if err != nil || v == "" {
		return "", false
	}
	return v, true
}

func (r *StoreResolver) SetCredential(provider connector.ProviderName, value string) error {
	if value == "" {
		return r.store.Delete(SecretName(provider))
	}
	return r.store.Set(SecretName(provider), value)
}

// MaskKey returns a masked version of an API key for display.
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:3] + "..." + key[len(key)-4:]
}
