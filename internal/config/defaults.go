package config

// Defaults returns a Config with sensible default values.
func Defaults() *Config {
	return &Config{
		Providers: ProvidersConfig{
			Claude: ProviderConfig{
				Model:       "claude-sonnet-4-5",
				APIKeyEnv:   "ANTHROPIC_API_KEY",
				MaxTokens:   4096,
				Temperature: temperature(0.7),
				TimeoutSecs: 120,
			},
			ChatGPT: ProviderConfig{
				Model:       "gpt-4o-mini",
				APIKeyEnv:   "OPENAI_API_KEY",
				MaxTokens:   4096,
				Temperature: temperature(0.7),
				TimeoutSecs: 120,
			},
			Gemini: ProviderConfig{
				Model:       "gemini-2.0-flash",
				APIKeyEnv:   "GOOGLE_API_KEY",
				MaxTokens:   4096,
				Temperature: temperature(0.7),
				TimeoutSecs: 120,
			},
		},
		FanOut: FanOutConfig{
			PacingMillis: 2000,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:5000",
		},
		Channels: ChannelsConfig{},
		Security: SecurityConfig{
			UseKeyring: true,
			PIIFiltering: PIIFilterConfig{
				Enabled:      true,
				FilterEmails: true,
				FilterPhones: true,
				FilterCards:  true,
				FilterIPs:    false,
				FilterSSN:    true,
			},
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Perceptual: PerceptualConfig{
			TimeoutSecs: 30,
		},
	}
}

func temperature(v float64) *float64 { return &v }
