package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var telegramCmd = &cobra.Command{
	Use:   "telegram",
	Short: "Run the Telegram bot",
	Long: `Answer Telegram messages with the same commands as the console chat.
Only the user IDs configured with 'settings telegram --allow' are served.

Every provider must have an API key unless --allow-missing is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := checkCredentials(a); err != nil {
			return err
		}

		ctx := cmd.Context()
		mgr, err := startTelegram(ctx, a)
		if err != nil {
			return err
		}
		fmt.Println(successStyle.Render("✓ Telegram bot running, press Ctrl+C to stop"))
		<-ctx.Done()

		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		mgr.StopAll(stopCtx)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(telegramCmd)
	telegramCmd.Flags().BoolVar(&allowMissing, "allow-missing", false, "Start even if some providers have no API key")
}
