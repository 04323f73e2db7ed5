package connector

import (
	"fmt"
	"strings"
	"sync"
)

// BuildFunc constructs a fresh, unconnected connector.
type BuildFunc func(creds CredentialSource, settings Settings) Connector

// Factory maps provider names onto connector variants. It is the single
// source of truth for which providers exist.
type Factory struct {
	mu       sync.RWMutex
	creds    CredentialSource
	settings map[ProviderName]Settings
	builders map[ProviderName]BuildFunc
	order    []ProviderName
}

// NewFactory creates a factory with the built-in Claude, ChatGPT and Gemini
// variants registered in that order.
func NewFactory(creds CredentialSource, settings map[ProviderName]Settings) *Factory {
	f := NewEmptyFactory(creds)
	for name, s := range settings {
		f.settings[name] = s
	}
	f.Register(Claude, func(c CredentialSource, s Settings) Connector { return NewClaude(c, s) })
	f.Register(ChatGPT, func(c CredentialSource, s Settings) Connector { return NewChatGPT(c, s) })
	f.Register(Gemini, func(c CredentialSource, s Settings) Connector { return NewGemini(c, s) })
	return f
}

// NewEmptyFactory creates a factory with no variants registered.
func NewEmptyFactory(creds CredentialSource) *Factory {
	return &Factory{
		creds:    creds,
		settings: make(map[ProviderName]Settings),
		builders: make(map[ProviderName]BuildFunc),
	}
}

// Register adds or replaces a variant. New names are appended to the
// attempt order.
func (f *Factory) Register(name ProviderName, build BuildFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.builders[name]; !exists {
		f.order = append(f.order, name)
	}
	f.builders[name] = build
}

// Create returns a new unconnected connector for name. Every call yields a
// separate instance.
func (f *Factory) Create(name ProviderName) (Connector, error) {
	f.mu.RLock()
	build, ok := f.builders[name]
	settings := f.settings[name]
	creds := f.creds
	f.mu.RUnlock()

	if !ok {
		return nil, &Error{
			Kind:     ErrorUnknownProvider,
			Provider: name,
			Message:  fmt.Sprintf("unknown provider: %s", name),
		}
	}
	return build(creds, settings), nil
}

// Names returns the registered providers in attempt order.
func (f *Factory) Names() []ProviderName {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]ProviderName, len(f.order))
	copy(names, f.order)
	return names
}

// Lookup resolves a user-supplied name against the registered variants,
// accepting vendor aliases for the built-in providers.
func (f *Factory) Lookup(raw string) (ProviderName, error) {
	f.mu.RLock()
	for _, name := range f.order {
		if strings.EqualFold(string(name), strings.TrimSpace(raw)) {
			f.mu.RUnlock()
			return name, nil
		}
	}
	f.mu.RUnlock()

	name, err := ParseProviderName(raw)
	if err != nil {
		return "", err
	}
	f.mu.RLock()
	_, ok := f.builders[name]
	f.mu.RUnlock()
	if !ok {
		return "", &Error{
			Kind:     ErrorUnknownProvider,
			Provider: name,
			Message:  fmt.Sprintf("provider not registered: %s", name),
		}
	}
	return name, nil
}
