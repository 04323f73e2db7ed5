package credential

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"gamedev-ai/internal/connector"
)

func fakeEnv(vals map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := vals[name]
		return v, ok
	}
}

func TestEnvResolver(t *testing.T) {
	r := NewEnvResolver(map[connector.ProviderName]string{connector.Gemini: "GEMINI_KEY"})
	r.lookup = fakeEnv(map[string]string{
		"ANTHROPIC_API_KEY": "  sk-ant-123  ",
		"OPENAI_API_KEY":    "",
		"GEMINI_KEY":        "g-1",
		"GOOGLE_API_KEY":    "ignored",
	})

	v, ok := r.Credential(connector.Claude)
	require.True(t, ok)
	assert.Equal(t, "sk-ant-123", v)

	_, ok = r.Credential(connector.ChatGPT)
	assert.False(t, ok, "empty variable counts as absent")

	v, ok = r.Credential(connector.Gemini)
	require.True(t, ok)
	assert.Equal(t, "g-1", v)
	assert.Equal(t, "GEMINI_KEY", r.EnvVar(connector.Gemini))

	_, ok = r.Credential(connector.ProviderName("Local"))
	assert.False(t, ok)
}

func TestEnvResolverReadsEveryCall(t *testing.T) {
	vals := map[string]string{}
	r := NewEnvResolver(nil)
	r.lookup = fakeEnv(vals)

	_, ok := r.Credential(connector.ChatGPT)
	assert.False(t, ok)

	vals["OPENAI_API_KEY"] = "sk-new"
	v, ok := r.Credential(connector.ChatGPT)
	require.True(t, ok)
	assert.Equal(t, "sk-new", v)
}

func TestOverlayAndChain(t *testing.T) {
	overlay := NewOverlay()
	chain := Chain{overlay, nil, Static{connector.Claude: "from-static", connector.Gemini: ""}}

	v, ok := chain.Credential(connector.Claude)
	require.True(t, ok)
	assert.Equal(t, "from-static", v)

	require.NoError(t, overlay.SetCredential(connector.Claude, "from-overlay"))
	v, _ = chain.Credential(connector.Claude)
	assert.Equal(t, "from-overlay", v)

	require.NoError(t, overlay.SetCredential(connector.Claude, ""))
	v, _ = chain.Credential(connector.Claude)
	assert.Equal(t, "from-static", v)

	_, ok = chain.Credential(connector.Gemini)
	assert.False(t, ok)
}

func TestOverlayConcurrentAccess(t *testing.T) {
	overlay := NewOverlay()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = overlay.SetCredential(connector.ChatGPT, "sk")
		}()
		go func() {
			defer wg.Done()
			overlay.Credential(connector.ChatGPT)
		}()
	}
	wg.Wait()
	v, ok := overlay.Credential(connector.ChatGPT)
	assert.True(t, ok)
	assert.Equal(t, "sk", v)
}

func TestVaultRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.enc")
	v := NewVault(path, "master")

	_, err := v.Get("missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, v.Set("api_key_claude", "sk-ant-secret"))
	require.NoError(t, v.Set("api_key_gemini", "g-secret"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "sk-ant-secret")

	reopened := NewVault(path, "master")
	got, err := reopened.Get("api_key_claude")
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-secret", got)

	require.NoError(t, reopened.Delete("api_key_claude"))
	_, err = reopened.Get("api_key_claude")
	assert.True(t, errors.Is(err, ErrNotFound))
	got, err = reopened.Get("api_key_gemini")
	require.NoError(t, err)
	assert.Equal(t, "g-secret", got)
}

func TestVaultWrongPassword(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.enc")
	require.NoError(t, NewVault(path, "right").Set("k", "v"))

	_, err := NewVault(path, "wrong").Get("k")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestSealOpen(t *testing.T) {
	salt, err := GenerateSalt()
	require.NoError(t, err)
	key := DeriveKey("pw", salt)

	sealed, err := Seal([]byte("secret"), key)
	require.NoError(t, err)
	plain, err := Open(sealed, key)
	require.NoError(t, err)
	assert.Equal(t, "secret", string(plain))

	_, err = Open(sealed[:4], key)
	assert.Error(t, err)
}

func TestKeyStoreKeyring(t *testing.T) {
	keyring.MockInit()
	ks, err := NewKeyStore(KeyStoreConfig{UseKeyring: true})
	require.NoError(t, err)

	res := NewStoreResolver(ks)
	_, ok := res.Credential(connector.ChatGPT)
	assert.False(t, ok)

	require.NoError(t, res.SetCredential(connector.ChatGPT, "sk-openai"))
	v, ok := res.Credential(connector.ChatGPT)
	require.True(t, ok)
	assert.Equal(t, "sk-openai", v)

	require.NoError(t, res.SetCredential(connector.ChatGPT, ""))
	_, ok = res.Credential(connector.ChatGPT)
	assert.False(t, ok)
}

func TestKeyStoreVaultFallback(t *testing.T) {
	keyring.MockInitWithError(errors.New("no keychain"))
	t.Cleanup(keyring.MockInit)

	dir := t.TempDir()
	ks, err := NewKeyStore(KeyStoreConfig{Dir: dir, UseKeyring: true, MasterPassword: "pw"})
	require.NoError(t, err)

	require.NoError(t, ks.Set(SecretName(connector.Gemini), "g-key"))
	v, err := ks.Get(SecretName(connector.Gemini))
	require.NoError(t, err)
	assert.Equal(t, "g-key", v)
	assert.FileExists(t, filepath.Join(dir, vaultFile))

	require.NoError(t, ks.Delete(SecretName(connector.Gemini)))
	_, err = ks.Get(SecretName(connector.Gemini))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestKeyStoreNeedsBackend(t *testing.T) {
	_, err := NewKeyStore(KeyStoreConfig{Dir: t.TempDir()})
	assert.Error(t, err)
}

func TestSecretNameAndMask(t *testing.T) {
	assert.Equal(t, "api_key_chatgpt", SecretName(connector.ChatGPT))
	assert.Equal(t, "", MaskKey(""))
	assert.Equal(t, "****", MaskKey("short"))
	assert.Equal(t, "sk-...cdef", MaskKey("sk-1234567890abcdef"))
}
