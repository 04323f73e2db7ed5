package config

import (
	"time"

	"gamedev-ai/internal/connector"
)

// Config is the top-level application configuration.
type Config struct {
	Providers   ProvidersConfig  `json:"providers"`
	FanOut      FanOutConfig     `json:"fanout"`
	Server      ServerConfig     `json:"server"`
	Channels    ChannelsConfig   `json:"channels"`
	Security    SecurityConfig   `json:"security"`
	History     HistoryConfig    `json:"history"`
	Perceptual  PerceptualConfig `json:"perceptual"`
	PresetsFile string           `json:"presets_file,omitempty"`
}

type ProvidersConfig struct {
	Claude  ProviderConfig `json:"claude"`
	ChatGPT ProviderConfig `json:"chatgpt"`
	Gemini  ProviderConfig `json:"gemini"`
}

type ProviderConfig struct {
	Model       string  `json:"model"`
	BaseURL     string  `json:"base_url,omitempty"`
	APIKeyEnv   string  `json:"api_key_env,omitempty"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature *float64 `json:"temperature,omitempty"` // nil leaves the provider default
	TimeoutSecs int     `json:"timeout_secs"`
}

type FanOutConfig struct {
	PacingMillis int `json:"pacing_millis"`
}

type ServerConfig struct {
	Addr string `json:"addr"`
}

type ChannelsConfig struct {
	Telegram *TelegramConfig `json:"telegram,omitempty"`
}

type TelegramConfig struct {
	Token      string  `json:"token"`
	AllowedIDs []int64 `json:"allowed_ids,omitempty"`
}

type SecurityConfig struct {
	UseKeyring   bool            `json:"use_keyring"`
	PIIFiltering PIIFilterConfig `json:"pii_filtering"`
}

type PIIFilterConfig struct {
	Enabled      bool `json:"enabled"`
	FilterEmails bool `json:"filter_emails"`
	FilterPhones bool `json:"filter_phones"`
	FilterCards  bool `json:"filter_cards"`
	FilterIPs    bool `json:"filter_ips"`
	FilterSSN    bool `json:"filter_ssn"`
}

type HistoryConfig struct {
	Enabled bool   `json:"enabled"`
	DBPath  string `json:"db_path,omitempty"` // defaults to <config dir>/history.db
}

type PerceptualConfig struct {
	Endpoint    string `json:"endpoint,omitempty"`
	TimeoutSecs int    `json:"timeout_secs"`
}

// Pacing returns the fan-out delay between providers.
func (c *Config) Pacing() time.Duration {
	if c.FanOut.PacingMillis < 0 {
		return 0
	}
	return time.Duration(c.FanOut.PacingMillis) * time.Millisecond
}

// Provider returns the section for name.
func (c *Config) Provider(name connector.ProviderName) (ProviderConfig, bool) {
	switch name {
	case connector.Claude:
		return c.Providers.Claude, true
	case connector.ChatGPT:
		return c.Providers.ChatGPT, true
	case connector.Gemini:
		return c.Providers.Gemini, true
	}
	return ProviderConfig{}, false
}

// ConnectorSettings converts the provider sections for connector.NewFactory.
func (c *Config) ConnectorSettings() map[connector.ProviderName]connector.Settings {
	out := make(map[connector.ProviderName]connector.Settings, 3)
	for _, name := range []connector.ProviderName{connector.Claude, connector.ChatGPT, connector.Gemini} {
		p, _ := c.Provider(name)
		out[name] = connector.Settings{
			Model:       p.Model,
			BaseURL:     p.BaseURL,
			MaxTokens:   p.MaxTokens,
			Temperature: p.Temperature,
			Timeout:     time.Duration(p.TimeoutSecs) * time.Second,
		}
	}
	return out
}

// EnvOverrides returns the configured API-key variable names.
func (c *Config) EnvOverrides() map[connector.ProviderName]string {
	out := make(map[connector.ProviderName]string)
	for _, name := range []connector.ProviderName{connector.Claude, connector.ChatGPT, connector.Gemini} {
		if p, _ := c.Provider(name); p.APIKeyEnv != "" {
			out[name] = p.APIKeyEnv
		}
	}
	return out
}
