// Package preset holds named prompt templates for common game development
// requests. Built-in presets are embedded; a user file may override or add
// presets by name.
package preset

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var builtinYAML []byte

// ErrNotFound is returned by Get for an unknown preset name.
var ErrNotFound = errors.New("preset not found")

// Param is a named template input. A param without a default is required.
type Param struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Default     string `yaml:"default,omitempty" json:"default,omitempty"`
}

// Preset is a prompt template plus the content type of what it produces.
type Preset struct {
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description" json:"description"`
	ContentType string  `yaml:"content_type" json:"content_type"`
	Params      []Param `yaml:"params" json:"params"`
	Template    string  `yaml:"template" json:"template"`

	tmpl *template.Template
}

type file struct {
	Presets []Preset `yaml:"presets"`
}

// Registry is a set of presets keyed by name.
type Registry struct {
	mu      sync.RWMutex
	presets map[string]*Preset
}

// Builtin returns a registry with only the embedded presets.
func Builtin() (*Registry, error) {
	r := &Registry{presets: make(map[string]*Preset)}
	if err := r.add(builtinYAML, "builtin"); err != nil {
		return nil, err
	}
	return r, nil
}

// Load returns the built-in presets overlaid with those in path. An empty
// path or a missing file yields the built-ins alone.
func Load(path string) (*Registry, error) {
	r, err := Builtin()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return r, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("preset: read %s: %w", path, err)
	}
	if err := r.add(data, path); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) add(data []byte, source string) error {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("preset: parse %s: %w", source, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range f.Presets {
		p := f.Presets[i]
		if p.Name == "" {
			return fmt.Errorf("preset: %s: preset %d has no name", source, i)
		}
		tmpl, err := template.New(p.Name).Option("missingkey=error").Parse(p.Template)
		if err != nil {
			return fmt.Errorf("preset: %s: %s: %w", source, p.Name, err)
		}
		p.tmpl = tmpl
		r.presets[p.Name] = &p
	}
	return nil
}

// Get returns the preset called name.
func (r *Registry) Get(name string) (*Preset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return p, nil
}

// List returns all presets sorted by name.
func (r *Registry) List() []*Preset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Preset, 0, len(r.presets))
	for _, p := range r.presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Render fills the template. Inputs override defaults; unknown inputs are
// rejected so typos surface instead of being silently dropped.
func (p *Preset) Render(input map[string]string) (string, error) {
	values := make(map[string]string, len(p.Params))
	known := make(map[string]bool, len(p.Params))
	for _, param := range p.Params {
		known[param.Name] = true
		if param.Default != "" {
			values[param.Name] = param.Default
		}
	}
	for k, v := range input {
		if !known[k] {
			return "", fmt.Errorf("preset %s: unknown parameter %q", p.Name, k)
		}
		if v != "" {
			values[k] = v
		}
	}
	var missing []string
	for _, param := range p.Params {
		if _, ok := values[param.Name]; !ok {
			missing = append(missing, param.Name)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("preset %s: missing parameter(s): %s", p.Name, strings.Join(missing, ", "))
	}

	var sb strings.Builder
	if err := p.tmpl.Execute(&sb, values); err != nil {
		return "", fmt.Errorf("preset %s: %w", p.Name, err)
	}
	return strings.TrimSpace(sb.String()), nil
}

// ParseParams turns "key=value" pairs into a Render input map.
func ParseParams(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("preset: expected key=value, got %q", pair)
		}
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}
