package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

var (
	askProviders []string
	rawOutput    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [prompt]",
	Short: "Send a prompt to every provider and compare the answers",
	Long: `Send one prompt to the selected providers in turn and print each answer
or failure. A provider without an API key is reported as failed; the others
are still asked.

Examples:
  gamedev-ai ask "Create a weapon class for Unity"
  gamedev-ai ask --providers claude,gemini "How should I structure a save system?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringSliceVarP(&askProviders, "providers", "p", nil, "Providers to ask (default all)")
	askCmd.Flags().BoolVar(&rawOutput, "raw", false, "Print answers without markdown rendering")
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	prompt := strings.Join(args, " ")
	printPrompt(prompt)

	report, err := a.Ask(cmd.Context(), prompt, askProviders)
	if err != nil {
		return err
	}
	printReport(report, rawOutput)
	return nil
}
