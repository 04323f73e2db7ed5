package preset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinPresets(t *testing.T) {
	r, err := Builtin()
	require.NoError(t, err)

	var names []string
	for _, p := range r.List() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{
		"character-controller", "debug-help", "design-advice", "document-code",
		"game-content", "save-load", "test-cases", "weapon-variations",
	}, names)
}

func TestRenderDefaults(t *testing.T) {
	r, err := Builtin()
	require.NoError(t, err)

	p, err := r.Get("weapon-variations")
	require.NoError(t, err)
	assert.Equal(t, "weapons", p.ContentType)

	out, err := p.Render(nil)
	require.NoError(t, err)
	assert.Contains(t, out, "class Sword:")
	assert.Contains(t, out, "Axe, Dagger, Hammer")

	p, err = r.Get("game-content")
	require.NoError(t, err)
	out, err = p.Render(map[string]string{"count": "5", "theme": ""})
	require.NoError(t, err)
	assert.Contains(t, out, "Generate 5 fantasy weapons for a medieval dark fantasy game.")
}

func TestRenderMissingAndUnknown(t *testing.T) {
	r, err := Builtin()
	require.NoError(t, err)
	p, err := r.Get("debug-help")
	require.NoError(t, err)

	_, err = p.Render(map[string]string{"code": "x := nil"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error")

	_, err = p.Render(map[string]string{"code": "x", "error": "nil deref", "colour": "red"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colour")

	out, err := p.Render(map[string]string{"code": "x", "error": "nil deref"})
	require.NoError(t, err)
	assert.Contains(t, out, "nil deref")
}

func TestGetUnknown(t *testing.T) {
	r, err := Builtin()
	require.NoError(t, err)
	_, err = r.Get("nope")
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
presets:
  - name: save-load
    description: Overridden
    content_type: narrative
    params:
      - name: engine
        default: Godot
    template: "Save systems in {{.engine}}?"
  - name: quest-hooks
    description: Quest ideas
    content_type: quests
    params:
      - name: region
    template: "Three quest hooks set in {{.region}}."
`), 0o600))

	r, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, r.List(), 9)

	p, err := r.Get("save-load")
	require.NoError(t, err)
	out, err := p.Render(nil)
	require.NoError(t, err)
	assert.Equal(t, "Save systems in Godot?", out)

	p, err = r.Get("quest-hooks")
	require.NoError(t, err)
	out, err = p.Render(map[string]string{"region": "the marshes"})
	require.NoError(t, err)
	assert.Equal(t, "Three quest hooks set in the marshes.", out)
}

func TestLoadMissingFileAndBadTemplate(t *testing.T) {
	r, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Len(t, r.List(), 8)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("presets:\n  - name: broken\n    template: \"{{.x\"\n"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestParseParams(t *testing.T) {
	got, err := ParseParams([]string{"count=5", "theme=dark = grim"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"count": "5", "theme": "dark = grim"}, got)

	_, err = ParseParams([]string{"novalue"})
	assert.Error(t, err)
}
