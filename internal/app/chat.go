package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"gamedev-ai/internal/channel"
	"gamedev-ai/internal/preset"
)

const chatHelp = `Send any text to ask every provider.
/ask <providers>: <prompt>  ask selected providers, e.g. /ask claude,gemini: hi
/status                      test provider connections
/presets                     list prompt presets
/preset <name> [k=v ...]     run a preset
/history                     recent reports
/help                        this message`

// HandleMessage runs one chat line and returns the reply text.
func (a *App) HandleMessage(ctx context.Context, msg channel.InboundMessage) string {
	cmd := channel.ParseCommand(msg.Text)
	switch cmd.Name {
	case "ask":
		providers, prompt := a.splitProviders(cmd.Args)
		if prompt == "" {
			return "Usage: /ask <providers>: <prompt>"
		}
		report, err := a.Ask(ctx, prompt, providers)
		if err != nil {
			return "Error: " + err.Error()
		}
		return FormatReport(report)

	case "status":
		report, err := a.TestConnections(ctx, nil)
		if err != nil {
			return "Error: " + err.Error()
		}
		return FormatReport(report)

	case "presets":
		var sb strings.Builder
		for _, p := range a.Presets() {
			fmt.Fprintf(&sb, "%s: %s\n", p.Name, p.Description)
		}
		return strings.TrimSpace(sb.String())

	case "preset":
		fields := strings.Fields(cmd.Args)
		if len(fields) == 0 {
			return "Usage: /preset <name> [key=value ...]"
		}
		input, err := preset.ParseParams(fields[1:])
		if err != nil {
			return "Error: " + err.Error()
		}
		run, err := a.RunPreset(ctx, fields[0], input, nil)
		if err != nil {
			return "Error: " + err.Error()
		}
		return FormatReport(run.Report)

	case "history":
		entries, err := a.History(ctx, 10)
		if err != nil {
			return "Error: " + err.Error()
		}
		if len(entries) == 0 {
			return "No reports yet."
		}
		var sb strings.Builder
		for _, e := range entries {
			fmt.Fprintf(&sb, "%s  %s  %s  %s\n", e.StartedAt.Format("2006-01-02 15:04"), e.Mode, e.Summary, truncate(e.Prompt, 50))
		}
		return strings.TrimSpace(sb.String())

	case "help", "start":
		return chatHelp

	default:
		return fmt.Sprintf("Unknown command /%s\n\n%s", cmd.Name, chatHelp)
	}
}

// ServeChannels answers every message arriving on mgr's channels.
func (a *App) ServeChannels(ctx context.Context, mgr *channel.Manager) {
	mgr.OnMessage(func(msg channel.InboundMessage) {
		reply := a.HandleMessage(ctx, msg)
		if err := mgr.Reply(ctx, msg, reply); err != nil {
			log.Printf("[app] reply on %s failed: %v", msg.ChannelName, err)
		}
	})
}

// splitProviders separates an optional "a,b:" provider prefix from the
// prompt. A prefix naming anything but registered providers is part of the
// prompt.
func (a *App) splitProviders(args string) ([]string, string) {
	args = strings.TrimSpace(args)
	head, rest, ok := strings.Cut(args, ":")
	if !ok {
		return nil, args
	}
	var names []string
	for _, part := range strings.Split(head, ",") {
		part = strings.TrimSpace(part)
		if strings.EqualFold(part, "all") {
			continue
		}
		if _, err := a.factory.Lookup(part); err != nil {
			return nil, args
		}
		names = append(names, part)
	}
	return names, strings.TrimSpace(rest)
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}
