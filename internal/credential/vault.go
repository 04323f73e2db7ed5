package credential

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/crypto/argon2"
)

const (
	argonTime    = 3
	argonMemory  = 64 * 1024 // 64MB
	argonThreads = 4
	argonKeyLen  = 32 // AES-256
	saltLen      = 16
)

// DeriveKey derives an AES-256 key from a password using Argon2id.
func DeriveKey(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// GenerateSalt creates a random salt.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// Seal encrypts plaintext with AES-256-GCM and returns the nonce-prefixed
// ciphertext.
func Seal(plaintext, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Open reverses Seal.
func Open(sealed, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(sealed) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return gcm, nil
}

// vaultEnvelope is the on-disk layout. The salt travels with the data so a
// password alone reopens the vault.
type vaultEnvelope struct {
	Salt string `json:"salt"`
	Data string `json:"data"`
}

// Vault is an encrypted JSON map of secrets in a single file.
type Vault struct {
	mu       sync.Mutex
	path     string
	password string
}

func NewVault(path, password string) *Vault {
	return &Vault{path: path, password: password}
}

func (v *Vault) Set(name, value string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	secrets, salt, err := v.load()
	if err != nil {
		return err
	}
	secrets[name] = value
	return v.save(secrets, salt)
}

func (v *Vault) Get(name string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	secrets, _, err := v.load()
	if err != nil {
		return "", err
	}
	val, ok := secrets[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return val, nil
}

func (v *Vault) Delete(name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	secrets, salt, err := v.load()
	if err != nil {
		return err
	}
	if _, ok := secrets[name]; !ok {
		return nil
	}
	delete(secrets, name)
	return v.save(secrets, salt)
}

// load returns the decrypted map and its salt. A missing file yields an
// empty map and a nil salt.
func (v *Vault) load() (map[string]string, []byte, error) {
	raw, err := os.ReadFile(v.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil, nil
		}
		return nil, nil, err
	}

	var env vaultEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, nil, fmt.Errorf("parse vault: %w", err)
	}
	salt, err := base64.StdEncoding.DecodeString(env.Salt)
	if err != nil {
		return nil, nil, fmt.Errorf("decode salt: %w", err)
	}
	sealed, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("decode vault: %w", err)
	}
	plaintext, err := Open(sealed, DeriveKey(v.password, salt))
	if err != nil {
		return nil, nil, fmt.Errorf("open vault: %w", err)
	}

	secrets := make(map[string]string)
	if err := json.Unmarshal(plaintext, &secrets); err != nil {
		return nil, nil, fmt.Errorf("parse vault: %w", err)
	}
	return secrets, salt, nil
}

func (v *Vault) save(secrets map[string]string, salt []byte) error {
	if salt == nil {
		var err error
		if salt, err = GenerateSalt(); err != nil {
			return err
		}
	}
	plaintext, err := json.Marshal(secrets)
	if err != nil {
		return err
	}
	sealed, err := Seal(plaintext, DeriveKey(v.password, salt))
	if err != nil {
		return err
	}
	out, err := json.Marshal(vaultEnvelope{
		Salt: base64.StdEncoding.EncodeToString(salt),
		Data: base64.StdEncoding.EncodeToString(sealed),
	})
	if err != nil {
		return err
	}
	return os.WriteFile(v.path, out, 0600)
}
