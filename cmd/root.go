package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"gamedev-ai/internal/app"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "gamedev-ai",
	Short: "Ask several AI providers the same game development question",
	Long: `gamedev-ai sends one prompt to Claude, ChatGPT and Gemini in turn and
reports every provider's answer or failure side by side.

API keys are read from the session, then the environment
(ANTHROPIC_API_KEY, OPENAI_API_KEY, GOOGLE_API_KEY), then the OS keychain
or the encrypted vault unlocked by GAMEDEV_AI_MASTER_PASSWORD.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Config directory (default ~/.gamedev-ai)")
}

func openApp() (*app.App, error) {
	return app.New(app.Options{Dir: configDir})
}
