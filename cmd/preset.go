package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"gamedev-ai/internal/preset"
)

var (
	presetParams    []string
	presetProviders []string
	presetValidate  bool
)

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "Run ready-made game development prompts",
}

var presetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available presets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		for _, p := range a.Presets() {
			fmt.Printf("%s %s\n", headerStyle.Render(p.Name), mutedStyle.Render("("+p.ContentType+")"))
			fmt.Printf("  %s\n", p.Description)
			for _, param := range p.Params {
				def := "required"
				if param.Default != "" {
					def = "default " + param.Default
				}
				fmt.Printf("    --param %s=...  %s %s\n", param.Name, param.Description, mutedStyle.Render("["+def+"]"))
			}
		}
		return nil
	},
}

var presetRunCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Render a preset and ask the providers",
	Example: `  gamedev-ai preset run weapon-variations --param count=5
  gamedev-ai preset run save-load --param engine=Godot --providers claude`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := preset.ParseParams(presetParams)
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		run, err := a.RunPreset(cmd.Context(), args[0], input, presetProviders)
		if err != nil {
			return err
		}
		printPrompt(run.Prompt)
		printReport(run.Report, rawOutput)

		if !presetValidate {
			return nil
		}
		fmt.Println()
		fmt.Println(mutedStyle.Render("→ Validating answers as " + run.Preset.ContentType + "..."))
		res, err := a.ValidateReport(cmd.Context(), run.Report.ID, run.Preset.ContentType)
		if err != nil {
			return err
		}
		printReportValidation(res)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(presetCmd)
	presetCmd.AddCommand(presetListCmd, presetRunCmd)
	presetRunCmd.Flags().StringArrayVar(&presetParams, "param", nil, "Template parameter as key=value (repeatable)")
	presetRunCmd.Flags().StringSliceVarP(&presetProviders, "providers", "p", nil, "Providers to ask (default all)")
	presetRunCmd.Flags().BoolVar(&presetValidate, "validate", false, "Run perceptual validation on the answers")
	presetRunCmd.Flags().BoolVar(&rawOutput, "raw", false, "Print answers without markdown rendering")
}
