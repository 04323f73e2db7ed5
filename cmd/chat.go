package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"gamedev-ai/internal/channel"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive console session",
	Long: `Start an interactive session. Plain text is sent to every provider; type
/help for commands and /quit to leave.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if missing := a.MissingCredentials(); len(missing) > 0 {
			fmt.Println(warnStyle.Render(fmt.Sprintf("No API key for %v; those providers will fail.", missing)))
		}

		ctx := cmd.Context()
		console := channel.NewConsoleChannel()
		mgr := channel.NewManager()
		mgr.Register(console)
		a.ServeChannels(ctx, mgr)
		if err := mgr.StartAll(ctx); err != nil {
			return err
		}

		select {
		case <-console.Done():
		case <-ctx.Done():
		}

		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		mgr.StopAll(stopCtx)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
