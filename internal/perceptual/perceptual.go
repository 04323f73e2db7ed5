// Package perceptual forwards generated game content to an external
// perceptual scoring service and reports its verdict. The scoring itself
// happens entirely on the other side of the wire.
package perceptual

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"gamedev-ai/internal/connector"
	"gamedev-ai/internal/eventbus"
	"gamedev-ai/internal/fanout"
)

// Domain is a perceptual channel the scorer evaluates.
type Domain string

const (
	Sight Domain = "sight"
	Sound Domain = "sound"
)

// contentDomains groups the accepted content types by the domains they are
// scored on.
var contentDomains = map[string][]Domain{
	"dialogue":   {Sound},
	"narrative":  {Sound},
	"story":      {Sound},
	"items":      {Sight, Sound},
	"weapons":    {Sight, Sound},
	"equipment":  {Sight, Sound},
	"quests":     {Sight},
	"missions":   {Sight},
	"objectives": {Sight},
}

// ErrNotConfigured is returned when no scorer endpoint is set.
var ErrNotConfigured = errors.New("perceptual validation is not configured")

// ContentTypes returns the accepted content types, sorted.
func ContentTypes() []string {
	out := make([]string, 0, len(contentDomains))
	for t := range contentDomains {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// DomainsFor returns the domains content of type t is scored on.
func DomainsFor(t string) ([]Domain, error) {
	d, ok := contentDomains[strings.ToLower(t)]
	if !ok {
		return nil, fmt.Errorf("unsupported content type %q (want one of %s)", t, strings.Join(ContentTypes(), ", "))
	}
	return d, nil
}

// Request is what the scorer receives.
type Request struct {
	ContentType string                 `json:"content_type"`
	Domains     []Domain               `json:"domains"`
	Content     string                 `json:"content"`
	Provider    connector.ProviderName `json:"provider,omitempty"`
}

// Result is the scorer's verdict.
type Result struct {
	Valid       bool     `json:"valid"`
	Confidence  float64  `json:"confidence"`
	Violations  []string `json:"violations"`
	Suggestions []string `json:"suggestions"`
}

// Scorer evaluates one piece of content.
type Scorer interface {
	Score(ctx context.Context, req Request) (*Result, error)
}

// EntryValidation is one provider's answer and its verdict.
type EntryValidation struct {
	Provider connector.ProviderName `json:"provider"`
	Result   *Result                `json:"result,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

// ReportValidation collects verdicts for every successful fan-out entry.
type ReportValidation struct {
	ReportID    string            `json:"report_id"`
	ContentType string            `json:"content_type"`
	Entries     []EntryValidation `json:"entries"`
}

// Validator checks content types and forwards content to a Scorer.
type Validator struct {
	scorer Scorer
	bus    *eventbus.Bus
}

// NewValidator creates a validator. A nil scorer makes every call return
// ErrNotConfigured.
func NewValidator(scorer Scorer, bus *eventbus.Bus) *Validator {
	return &Validator{scorer: scorer, bus: bus}
}

// Configured reports whether a scorer is attached.
func (v *Validator) Configured() bool { return v.scorer != nil }

// Validate scores a single piece of content. The content type is checked
// before any network call.
func (v *Validator) Validate(ctx context.Context, contentType, content string) (*Result, error) {
	return v.validate(ctx, contentType, content, "")
}

func (v *Validator) validate(ctx context.Context, contentType, content string, provider connector.ProviderName) (*Result, error) {
	if v.scorer == nil {
		return nil, ErrNotConfigured
	}
	domains, err := DomainsFor(contentType)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("content is empty")
	}
	res, err := v.scorer.Score(ctx, Request{
		ContentType: strings.ToLower(contentType),
		Domains:     domains,
		Content:     content,
		Provider:    provider,
	})
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		log.Printf("[perceptual] %d violation(s) in %s content", len(res.Violations), contentType)
	}
	return res, nil
}

// ValidateReport scores every successful entry of report. A scorer failure
// for one entry is recorded on that entry and does not stop the others.
func (v *Validator) ValidateReport(ctx context.Context, report *fanout.Report, contentType string) (*ReportValidation, error) {
	if v.scorer == nil {
		return nil, ErrNotConfigured
	}
	if _, err := DomainsFor(contentType); err != nil {
		return nil, err
	}

	out := &ReportValidation{ReportID: report.ID, ContentType: contentType, Entries: []EntryValidation{}}
	for _, res := range report.Successes() {
		entry := EntryValidation{Provider: res.Provider}
		verdict, err := v.validate(ctx, contentType, res.Text, res.Provider)
		if err != nil {
			log.Printf("[perceptual] scoring %s failed: %v", res.Provider, err)
			entry.Error = err.Error()
		} else {
			entry.Result = verdict
		}
		out.Entries = append(out.Entries, entry)
	}
	if v.bus != nil {
		v.bus.Publish(eventbus.TopicValidation, out)
	}
	return out, nil
}
