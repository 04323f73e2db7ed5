package security

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gamedev-ai/internal/config"
)

// Sanitizer replaces PII in outgoing prompts with placeholders. It holds
// only the compiled filters; the placeholder mapping for one exchange lives
// in a Scope so concurrent requests never see each other's values.
type Sanitizer struct {
	filters []piiFilter
	enabled bool
}

type piiFilter struct {
	name    string
	pattern *regexp.Regexp
	prefix  string
}

var defaultFilters = []struct {
	name    string
	pattern string
	prefix  string
}{
	{"email", `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`, "EMAIL"},
	{"card", `\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`, "CARD"},
	{"ssn", `\b\d{3}-\d{2}-\d{4}\b`, "SSN"},
	{"ip", `\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`, "IP"},
	// Phone numbers need a leading + or -/. separators; bare digit runs are
	// seeds, constants and sizes.
	{"phone", `\+\d{1,3}[-.\s]\d{2,4}[-.\s]\d{3,4}[-.\s]?\d{3,4}\b|(?:\(\d{2,4}\)\s?|\b\d{2,4}[-.])\d{3,4}[-.]\d{3,4}\b`, "PHONE"},
}

// NewSanitizer creates a PII sanitizer from config.
func NewSanitizer(cfg config.PIIFilterConfig) *Sanitizer {
	s := &Sanitizer{enabled: cfg.Enabled}

	enableMap := map[string]bool{
		"email": cfg.FilterEmails,
		"phone": cfg.FilterPhones,
		"card":  cfg.FilterCards,
		"ip":    cfg.FilterIPs,
		"ssn":   cfg.FilterSSN,
	}

	for _, f := range defaultFilters {
		if enableMap[f.name] {
			s.filters = append(s.filters, piiFilter{
				name:    f.name,
				pattern: regexp.MustCompile(f.pattern),
				prefix:  f.prefix,
			})
		}
	}

	return s
}

// Enabled reports whether any filtering happens.
func (s *Sanitizer) Enabled() bool {
	return s != nil && s.enabled && len(s.filters) > 0
}

// Scope is the placeholder mapping for one prompt and its replies. It is
// not safe for concurrent use.
type Scope struct {
	s        *Sanitizer
	mappings map[string]string // placeholder → original value
	reverse  map[string]string
	counter  map[string]int
}

// Begin starts a new scope.
func (s *Sanitizer) Begin() *Scope {
	return &Scope{
		s:        s,
		mappings: make(map[string]string),
		reverse:  make(map[string]string),
		counter:  make(map[string]int),
	}
}

// Sanitize replaces PII in text with placeholders. The same value maps to
// the same placeholder within a scope.
func (sc *Scope) Sanitize(text string) string {
	if !sc.s.Enabled() {
		return text
	}

	result := text
	for _, f := range sc.s.filters {
		result = f.pattern.ReplaceAllStringFunc(result, func(match string) string {
			if placeholder, ok := sc.reverse[match]; ok {
				return placeholder
			}
			sc.counter[f.prefix]++
			placeholder := fmt.Sprintf("[%s_%d]", f.prefix, sc.counter[f.prefix])
			sc.mappings[placeholder] = match
			sc.reverse[match] = placeholder
			return placeholder
		})
	}
	return result
}

// Restore replaces placeholders back with original values.
func (sc *Scope) Restore(text string) string {
	if len(sc.mappings) == 0 {
		return text
	}
	placeholders := make([]string, 0, len(sc.mappings))
	for p := range sc.mappings {
		placeholders = append(placeholders, p)
	}
	sort.Slice(placeholders, func(i, j int) bool { return len(placeholders[i]) > len(placeholders[j]) })

	result := text
	for _, p := range placeholders {
		result = strings.ReplaceAll(result, p, sc.mappings[p])
	}
	return result
}

// Replaced returns how many distinct values were masked.
func (sc *Scope) Replaced() int {
	return len(sc.mappings)
}
