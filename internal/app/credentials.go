package app

import (
	"fmt"
	"log"
	"strings"

	"gamedev-ai/internal/connector"
	"gamedev-ai/internal/credential"
	"gamedev-ai/internal/eventbus"
)

// Credential sources, in lookup order.
const (
	SourceSession  = "session"
	SourceEnv      = "env"
	SourceKeyStore = "keystore"
)

// CredentialInfo describes one provider's credential without revealing it.
type CredentialInfo struct {
	Provider connector.ProviderName `json:"provider"`
	Set      bool                   `json:"set"`
	Source   string                 `json:"source,omitempty"`
	Masked   string                 `json:"masked,omitempty"`
	EnvVar   string                 `json:"env_var"`
}

// SaveCredential sets provider's API key for this process and persists it in
// the key store when one is available. The returned bool reports whether
// the key was persisted.
func (a *App) SaveCredential(provider, value string) (bool, error) {
	name, err := a.factory.Lookup(provider)
	if err != nil {
		return false, err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return false, fmt.Errorf("empty credential for %s", name)
	}

	// Persist first so a failed save leaves the session unchanged.
	persisted := false
	if a.keyStore != nil {
		if err := credential.NewStoreResolver(a.keyStore).SetCredential(name, value); err != nil {
			log.Printf("[app] failed to persist %s credential: %v", name, err)
			return false, fmt.Errorf("persist %s credential: %w", name, err)
		}
		persisted = true
	}
	_ = a.overlay.SetCredential(name, value)
	a.bus.Publish(eventbus.TopicCredentialChange, fmt.Sprintf("%s credential updated", name))
	return persisted, nil
}

// DeleteCredential clears the session value and the stored value. A value
// coming from the environment is not touched.
func (a *App) DeleteCredential(provider string) error {
	name, err := a.factory.Lookup(provider)
	if err != nil {
		return err
	}
	_ = a.overlay.SetCredential(name, "")
	if a.keyStore != nil {
		if err := credential.NewStoreResolver(a.keyStore).SetCredential(name, ""); err != nil {
			return fmt.Errorf("delete %s credential: %w", name, err)
		}
	}
	a.bus.Publish(eventbus.TopicCredentialChange, fmt.Sprintf("%s credential removed", name))
	return nil
}

// CredentialStatus reports, per provider, whether a key is available and
// where it comes from.
func (a *App) CredentialStatus() []CredentialInfo {
	sources := []struct {
		name string
		r    credential.Resolver
	}{
		{SourceSession, a.overlay},
		{SourceEnv, a.env},
	}
	if a.keyStore != nil {
		sources = append(sources, struct {
			name string
			r    credential.Resolver
		}{SourceKeyStore, credential.NewStoreResolver(a.keyStore)})
	}

	var out []CredentialInfo
	for _, p := range a.factory.Names() {
		info := CredentialInfo{Provider: p, EnvVar: a.env.EnvVar(p)}
		for _, s := range sources {
			if v, ok := s.r.Credential(p); ok {
				info.Set = true
				info.Source = s.name
				info.Masked = credential.MaskKey(v)
				break
			}
		}
		out = append(out, info)
	}
	return out
}

// MissingCredentials lists providers with no key from any source.
func (a *App) MissingCredentials() []connector.ProviderName {
	var missing []connector.ProviderName
	for _, p := range a.factory.Names() {
		if _, ok := a.creds.Credential(p); !ok {
			missing = append(missing, p)
		}
	}
	return missing
}

// RequireCredentials fails when any provider has no key. Servers call it at
// startup.
func (a *App) RequireCredentials() error {
	missing := a.MissingCredentials()
	if len(missing) == 0 {
		return nil
	}
	var vars []string
	for _, p := range missing {
		if v := a.env.EnvVar(p); v != "" {
			vars = append(vars, v)
		} else {
			vars = append(vars, string(p))
		}
	}
	return fmt.Errorf("missing API keys: %s", strings.Join(vars, ", "))
}
