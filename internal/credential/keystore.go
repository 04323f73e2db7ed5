package credential

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"
)

const (
	DefaultKeyringService = "gamedev-ai"
	vaultFile             = "vault.enc"
)

// ErrNotFound is returned when a secret exists in neither backend.
var ErrNotFound = errors.New("secret not found")

// KeyStore persists secrets. Primary: OS keychain. Fallback: an encrypted
// vault file, available only when a master password was supplied.
type KeyStore struct {
	service    string
	useKeyring bool
	vault      *Vault
}

// KeyStoreConfig configures NewKeyStore.
type KeyStoreConfig struct {
	Dir            string // directory holding the vault file
	Service        string // keychain service name
	UseKeyring     bool
	MasterPassword string // enables the vault fallback when non-empty
}

// NewKeyStore creates a key store rooted at cfg.Dir.
func NewKeyStore(cfg KeyStoreConfig) (*KeyStore, error) {
	if cfg.Service == "" {
		cfg.Service = DefaultKeyringService
	}
	ks := &KeyStore{service: cfg.Service, useKeyring: cfg.UseKeyring}
	if cfg.MasterPassword != "" {
		if err := os.MkdirAll(cfg.Dir, 0700); err != nil {
			return nil, err
		}
		ks.vault = NewVault(filepath.Join(cfg.Dir, vaultFile), cfg.MasterPassword)
	}
	if !ks.useKeyring && ks.vault == nil {
		return nil, fmt.Errorf("key store has no backend: enable the keyring or set a master password")
	}
	return ks, nil
}

// Set stores a secret, trying the keychain first.
func (ks *KeyStore) Set(name, value string) error {
	if ks.useKeyring {
		err := keyring.Set(ks.service, name, value)
		if err == nil {
			return nil
		}
		if ks.vault == nil {
			return fmt.Errorf("keyring set %s: %w", name, err)
		}
	}
	return ks.vault.Set(name, value)
}

// Get retrieves a secret.
func (ks *KeyStore) Get(name string) (string, error) {
	if ks.useKeyring {
		if val, err := keyring.Get(ks.service, name); err == nil {
			return val, nil
		}
	}
	if ks.vault == nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return ks.vault.Get(name)
}

// Delete removes a secret from both backends.
func (ks *KeyStore) Delete(name string) error {
	if ks.useKeyring {
		if err := keyring.Delete(ks.service, name); err != nil && !errors.Is(err, keyring.ErrNotFound) && ks.vault == nil {
			return fmt.Errorf("keyring delete %s: %w", name, err)
		}
	}
	if ks.vault == nil {
		return nil
	}
	return ks.vault.Delete(name)
}
