package fanout

import (
	"fmt"
	"time"

	"gamedev-ai/internal/connector"
)

// Mode tells what a report was produced by.
type Mode string

const (
	ModeAsk  Mode = "ask"
	ModeTest Mode = "test"
)

// PromptRequest is a prompt plus an optional provider filter. An empty
// filter targets every registered provider.
type PromptRequest struct {
	Prompt    string                   `json:"prompt"`
	Providers []connector.ProviderName `json:"providers,omitempty"`
	// Restore, when set, is applied to every reply before it is recorded or
	// published.
	Restore func(string) string `json:"-"`
}

// Result is one provider's outcome: Success(Text) when OK, otherwise
// Failure(Kind) with a human-readable Message.
type Result struct {
	Provider connector.ProviderName `json:"provider"`
	OK       bool                   `json:"ok"`
	Text     string                 `json:"text,omitempty"`
	Kind     connector.ErrorKind    `json:"kind,omitempty"`
	Message  string                 `json:"message,omitempty"`
	Duration time.Duration          `json:"duration"`
}

func success(p connector.ProviderName, text string) Result {
	return Result{Provider: p, OK: true, Text: text}
}

func failure(p connector.ProviderName, kind connector.ErrorKind, msg string) Result {
	return Result{Provider: p, Kind: kind, Message: msg}
}

// Report holds exactly one Result per attempted provider, in attempt order.
type Report struct {
	ID         string    `json:"id"`
	Mode       Mode      `json:"mode"`
	Prompt     string    `json:"prompt,omitempty"`
	Results    []Result  `json:"results"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Summary is the derived success count.
type Summary struct {
	Succeeded int `json:"succeeded"`
	Attempted int `json:"attempted"`
}

func (s Summary) String() string {
	return fmt.Sprintf("%d/%d", s.Succeeded, s.Attempted)
}

// AllFailed reports whether nothing succeeded.
func (s Summary) AllFailed() bool { return s.Succeeded == 0 }

func (r *Report) Summary() Summary {
	s := Summary{Attempted: len(r.Results)}
	for _, res := range r.Results {
		if res.OK {
			s.Succeeded++
		}
	}
	return s
}

// Successes returns the successful results in attempt order.
func (r *Report) Successes() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.OK {
			out = append(out, res)
		}
	}
	return out
}

// Result returns the entry for provider.
func (r *Report) Result(provider connector.ProviderName) (Result, bool) {
	for _, res := range r.Results {
		if res.Provider == provider {
			return res, true
		}
	}
	return Result{}, false
}

// Progress is the payload published on the event bus while a fan-out runs.
type Progress struct {
	ReportID string                 `json:"report_id"`
	Mode     Mode                   `json:"mode"`
	Provider connector.ProviderName `json:"provider,omitempty"`
	Index    int                    `json:"index"`
	Total    int                    `json:"total"`
	Result   *Result                `json:"result,omitempty"`
	Summary  *Summary               `json:"summary,omitempty"`
}
