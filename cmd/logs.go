package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/spf13/cobra"

	"gamedev-ai/internal/app"
)

var (
	logsAddr   string
	logsFollow bool
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show recent logs of a running 'serve' process",
	Long: `Fetch recent log entries from a running 'gamedev-ai serve'. With --follow,
stay connected and print fan-out progress events as they happen.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := logsAddr
		if addr == "" {
			a, err := openApp()
			if err != nil {
				return err
			}
			addr = a.Config().Server.Addr
			a.Close()
		}

		client := &http.Client{Timeout: 10 * time.Second}
		req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, "http://"+addr+"/api/logs", nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("is 'gamedev-ai serve' running on %s? %w", addr, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		var entries []app.LogEntry
		if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
			return fmt.Errorf("decode logs: %w", err)
		}
		for _, e := range entries {
			printLogEntry(e)
		}

		if !logsFollow {
			return nil
		}
		return followEvents(cmd, addr)
	},
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.Flags().StringVar(&logsAddr, "addr", "", "Address of the running server (default from config)")
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Stream progress events")
}

func printLogEntry(e app.LogEntry) {
	ts := mutedStyle.Render(e.Time.Local().Format("15:04:05"))
	switch e.Level {
	case "error":
		fmt.Println(ts, errorStyle.Render("ERROR"), e.Message)
	case "warn":
		fmt.Println(ts, warnStyle.Render("WARN "), e.Message)
	default:
		fmt.Println(ts, successStyle.Render("INFO "), e.Message)
	}
}

type wireEvent struct {
	Topic     string          `json:"topic"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

func followEvents(cmd *cobra.Command, addr string) error {
	ctx := cmd.Context()
	conn, _, err := websocket.Dial(ctx, "ws://"+addr+"/api/events", nil)
	if err != nil {
		return fmt.Errorf("dial events: %w", err)
	}
	defer conn.CloseNow()

	fmt.Println(mutedStyle.Render("→ Following events, press Ctrl+C to stop"))
	for {
		var ev wireEvent
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			if ctx.Err() != nil {
				conn.Close(websocket.StatusNormalClosure, "")
				return nil
			}
			return fmt.Errorf("read event: %w", err)
		}
		fmt.Println(mutedStyle.Render(ev.Timestamp.Local().Format("15:04:05")), headerStyle.Render(ev.Topic), string(ev.Payload))
	}
}
