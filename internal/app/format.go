package app

import (
	"fmt"
	"strings"
	"time"

	"gamedev-ai/internal/fanout"
)

// FormatReport renders a report as plain text for chat channels.
func FormatReport(r *fanout.Report) string {
	var sb strings.Builder
	for _, res := range r.Results {
		switch {
		case res.OK && r.Mode == fanout.ModeTest:
			fmt.Fprintf(&sb, "%s: connected (%s)\n", res.Provider, res.Duration.Round(time.Millisecond))
		case res.OK:
			fmt.Fprintf(&sb, "== %s (%s) ==\n%s\n\n", res.Provider, res.Duration.Round(time.Millisecond), strings.TrimSpace(res.Text))
		default:
			fmt.Fprintf(&sb, "%s: failed [%s] %s\n", res.Provider, res.Kind, res.Message)
		}
	}
	sb.WriteString(SummaryLine(r))
	return sb.String()
}

// SummaryLine describes the outcome of a report in one line.
func SummaryLine(r *fanout.Report) string {
	s := r.Summary()
	verb := "answered"
	if r.Mode == fanout.ModeTest {
		verb = "connected"
	}
	line := fmt.Sprintf("%s providers %s", s, verb)
	switch {
	case s.Attempted > 0 && s.AllFailed():
		line += ". No provider succeeded; check your API keys."
	case s.Succeeded < s.Attempted:
		line += ". Some providers failed."
	}
	return line
}
