package cmd

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"gamedev-ai/internal/app"
	"gamedev-ai/internal/fanout"
)

var (
	headerColor  = lipgloss.Color("#F780FF") // Bright pink
	promptColor  = lipgloss.Color("#8BE9FD") // Cyan
	mutedColor   = lipgloss.Color("#6272A4") // Muted purple
	errorColor   = lipgloss.Color("#FF5555") // Red
	successColor = lipgloss.Color("#50FA7B") // Green
	warnColor    = lipgloss.Color("#F1FA8C") // Yellow

	headerStyle  = lipgloss.NewStyle().Foreground(headerColor).Bold(true)
	promptStyle  = lipgloss.NewStyle().Foreground(promptColor).Italic(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor).Italic(true)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(successColor)
	warnStyle    = lipgloss.NewStyle().Foreground(warnColor)
	borderStyle  = lipgloss.NewStyle().Foreground(mutedColor)
)

var (
	mdOnce     sync.Once
	mdRenderer *glamour.TermRenderer
)

// renderMarkdown converts markdown text to terminal-formatted output. Falls
// back to plain text if the renderer is unavailable.
func renderMarkdown(text string) string {
	mdOnce.Do(func() {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err == nil {
			mdRenderer = r
		}
	})
	if mdRenderer == nil {
		return text
	}
	out, err := mdRenderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

func printPrompt(prompt string) {
	fmt.Println()
	fmt.Println(headerStyle.Render("Prompt:"))
	fmt.Println(promptStyle.Render(prompt))
	fmt.Println()
}

// printReport prints every provider's outcome followed by the summary line.
func printReport(r *fanout.Report, raw bool) {
	rule := borderStyle.Render(strings.Repeat("─", 60))
	for _, res := range r.Results {
		took := res.Duration.Round(time.Millisecond)
		switch {
		case res.OK && r.Mode == fanout.ModeTest:
			fmt.Printf("%s %s %s\n", successStyle.Render("✓"), headerStyle.Render(string(res.Provider)), mutedStyle.Render(took.String()))
		case res.OK:
			fmt.Println(rule)
			fmt.Printf("%s %s\n\n", headerStyle.Render(string(res.Provider)), mutedStyle.Render(took.String()))
			if raw {
				fmt.Println(strings.TrimSpace(res.Text))
			} else {
				fmt.Println(renderMarkdown(res.Text))
			}
			fmt.Println()
		default:
			if r.Mode == fanout.ModeAsk {
				fmt.Println(rule)
			}
			fmt.Printf("%s %s %s %s\n", errorStyle.Render("✗"), headerStyle.Render(string(res.Provider)),
				warnStyle.Render("["+res.Kind.String()+"]"), res.Message)
		}
	}
	if r.Mode == fanout.ModeAsk {
		fmt.Println(rule)
	}
	printSummary(r)
}

func printSummary(r *fanout.Report) {
	line := app.SummaryLine(r)
	s := r.Summary()
	switch {
	case s.AllFailed():
		fmt.Println(errorStyle.Render(line))
	case s.Succeeded < s.Attempted:
		fmt.Println(warnStyle.Render(line))
	default:
		fmt.Println(successStyle.Render(line))
	}
	fmt.Println(mutedStyle.Render("report " + r.ID))
}
