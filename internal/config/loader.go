package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	configDir  = ".gamedev-ai"
	configFile = "config.json"
)

// Loader manages reading and writing the config file.
type Loader struct {
	mu       sync.RWMutex
	config   *Config
	dir      string
	filePath string
}

// NewLoader creates a loader that stores config in ~/.gamedev-ai/config.json.
func NewLoader() (*Loader, error) {
	dir, err := DefaultDir()
	if err != nil {
		return nil, err
	}
	return NewLoaderAt(dir)
}

// NewLoaderAt creates a loader rooted at dir.
func NewLoaderAt(dir string) (*Loader, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return &Loader{
		dir:      dir,
		filePath: filepath.Join(dir, configFile),
	}, nil
}

// DefaultDir returns ~/.gamedev-ai.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configDir), nil
}

// Load reads the config from disk. If the file doesn't exist, returns defaults.
func (l *Loader) Load() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cfg := Defaults()

	data, err := os.ReadFile(l.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			l.config = cfg
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", l.filePath, err)
	}

	l.config = cfg
	return cfg, nil
}

// Save writes the current config to disk.
func (l *Loader) Save(cfg *Config) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	l.config = cfg
	return os.WriteFile(l.filePath, data, 0600)
}

// Get returns the currently loaded config (or defaults if not loaded yet).
func (l *Loader) Get() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.config == nil {
		return Defaults()
	}
	return l.config
}

// FilePath returns the config file path.
func (l *Loader) FilePath() string {
	return l.filePath
}

// Dir returns the directory holding the config file, the vault and the
// history database.
func (l *Loader) Dir() string {
	return l.dir
}

// HistoryPath returns the history database path.
func (l *Loader) HistoryPath() string {
	cfg := l.Get()
	if cfg.History.DBPath != "" {
		return cfg.History.DBPath
	}
	return filepath.Join(l.dir, "history.db")
}
