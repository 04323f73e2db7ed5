package connector

import (
	"net/http"
	"sync"
	"time"
)

// CredentialSource supplies the secret a connector needs at connect time.
// A false second return means the provider is not configured.
type CredentialSource interface {
	Credential(provider ProviderName) (string, bool)
}

// Settings carries the per-provider knobs shared by all variants.
type Settings struct {
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature *float64 // nil sends no temperature; zero is sent as zero
	Timeout     time.Duration
	HTTPClient  *http.Client
}

// base holds the connection state every variant owns.
type base struct {
	mu        sync.RWMutex
	name      ProviderName
	creds     CredentialSource
	settings  Settings
	connected bool
	apiKey    string
}

func newBase(name ProviderName, creds CredentialSource, settings Settings) base {
	return base{name: name, creds: creds, settings: settings}
}

func (b *base) Name() ProviderName { return b.name }

func (b *base) Connected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.connected
}

// resolveKey reads the credential fresh on every connect so that a value
// saved between two connects is picked up.
func (b *base) resolveKey() (string, error) {
	if b.creds == nil {
		return "", newError(ErrorConnection, b.name, "no credential source configured", nil)
	}
	key, ok := b.creds.Credential(b.name)
	if !ok || key == "" {
		return "", newError(ErrorConnection, b.name, "credential not set", nil)
	}
	return key, nil
}

func (b *base) markConnected(key string, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = ok
	if ok {
		b.apiKey = key
	} else {
		b.apiKey = ""
	}
}

func (b *base) requireConnected() error {
	if !b.Connected() {
		return newError(ErrorConnection, b.name, "not connected", nil)
	}
	return nil
}

func (b *base) httpClient() *http.Client {
	if b.settings.HTTPClient != nil {
		return b.settings.HTTPClient
	}
	timeout := b.settings.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func (b *base) maxTokens() int {
	if b.settings.MaxTokens > 0 {
		return b.settings.MaxTokens
	}
	return 4096
}
