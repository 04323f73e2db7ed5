package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse past reports",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent reports, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.History(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println(mutedStyle.Render("No reports yet."))
			return nil
		}
		for _, e := range entries {
			prompt := strings.ReplaceAll(e.Prompt, "\n", " ")
			if len([]rune(prompt)) > 60 {
				prompt = string([]rune(prompt)[:57]) + "..."
			}
			fmt.Printf("%s  %s  %-4s %5s  %s\n",
				mutedStyle.Render(e.ID),
				e.StartedAt.Local().Format("2006-01-02 15:04"),
				e.Mode, e.Summary, promptStyle.Render(prompt))
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <report-id>",
	Short: "Print a stored report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.Report(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if report.Prompt != "" {
			printPrompt(report.Prompt)
		}
		printReport(report, rawOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd)
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of reports to list")
	historyShowCmd.Flags().BoolVar(&rawOutput, "raw", false, "Print answers without markdown rendering")
}
