package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"gamedev-ai/internal/perceptual"
)

var (
	validateType   string
	validateReport string
	validateFile   string
)

var validateCmd = &cobra.Command{
	Use:   "validate [content]",
	Short: "Score content with the perceptual validation service",
	Long: `Send content to the configured perceptual validation endpoint. Content is
taken from the arguments, from --file, or from every successful answer of a
stored report with --report.

Content types: ` + strings.Join(perceptual.ContentTypes(), ", "),
	RunE: func(cmd *cobra.Command, args []string) error {
		if validateType == "" {
			return errors.New("--type is required")
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if validateReport != "" {
			res, err := a.ValidateReport(cmd.Context(), validateReport, validateType)
			if err != nil {
				return err
			}
			printReportValidation(res)
			return nil
		}

		content := strings.Join(args, " ")
		if validateFile != "" {
			data, err := os.ReadFile(validateFile)
			if err != nil {
				return err
			}
			content = string(data)
		}
		if strings.TrimSpace(content) == "" {
			return errors.New("nothing to validate: pass content, --file or --report")
		}
		res, err := a.ValidateContent(cmd.Context(), validateType, content)
		if err != nil {
			return err
		}
		printVerdict("content", res)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVarP(&validateType, "type", "t", "", "Content type")
	validateCmd.Flags().StringVar(&validateReport, "report", "", "Validate the answers of a stored report")
	validateCmd.Flags().StringVarP(&validateFile, "file", "f", "", "Read content from a file")
}

func printReportValidation(v *perceptual.ReportValidation) {
	if len(v.Entries) == 0 {
		fmt.Println(warnStyle.Render("No successful answers to validate."))
		return
	}
	for _, e := range v.Entries {
		if e.Error != "" {
			fmt.Printf("%s %s %s\n", errorStyle.Render("✗"), headerStyle.Render(string(e.Provider)), e.Error)
			continue
		}
		printVerdict(string(e.Provider), e.Result)
	}
}

func printVerdict(label string, r *perceptual.Result) {
	mark := successStyle.Render("✓ valid")
	if !r.Valid {
		mark = errorStyle.Render("✗ invalid")
	}
	fmt.Printf("%s %s %s\n", headerStyle.Render(label), mark, mutedStyle.Render(fmt.Sprintf("confidence %.2f", r.Confidence)))
	for _, v := range r.Violations {
		fmt.Printf("  %s %s\n", errorStyle.Render("-"), v)
	}
	for _, s := range r.Suggestions {
		fmt.Printf("  %s %s\n", promptStyle.Render("+"), s)
	}
}
