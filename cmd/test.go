package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var testProviders []string

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Check that each provider accepts its API key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Println(mutedStyle.Render("→ Testing provider connections..."))
		report, err := a.TestConnections(cmd.Context(), testProviders)
		if err != nil {
			return err
		}
		printReport(report, false)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(testCmd)
	testCmd.Flags().StringSliceVarP(&testProviders, "providers", "p", nil, "Providers to test (default all)")
}
