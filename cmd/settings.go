package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var (
	telegramToken   string
	telegramAllowed []string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show and change provider API keys",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show which providers have an API key (keys are masked)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Println(headerStyle.Render("API keys"))
		for _, info := range a.CredentialStatus() {
			if info.Set {
				fmt.Printf("  %s %-8s %s %s\n", successStyle.Render("✓"), info.Provider, info.Masked, mutedStyle.Render("("+info.Source+")"))
			} else {
				fmt.Printf("  %s %-8s %s\n", errorStyle.Render("✗"), info.Provider, mutedStyle.Render("not set, export "+info.EnvVar+" or run 'settings set'"))
			}
		}

		st := a.Status()
		fmt.Println()
		fmt.Println(headerStyle.Render("Options"))
		fmt.Printf("  pacing         %s\n", st.Pacing)
		fmt.Printf("  pii filtering  %t\n", st.PIIFiltering)
		fmt.Printf("  history        %t\n", st.HistoryEnabled)
		fmt.Printf("  perceptual     %t\n", st.PerceptualConfigured)
		fmt.Printf("  telegram       %t\n", st.HasTelegram)
		fmt.Printf("  secure store   %t\n", st.SecureStore)
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <provider> [api-key]",
	Short: "Store a provider API key",
	Long: `Store a provider API key in the OS keychain, or in the encrypted vault
when GAMEDEV_AI_MASTER_PASSWORD is set and no keychain is available.
Without an api-key argument the key is read from a masked prompt.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var key string
		if len(args) == 2 {
			key = args[1]
		} else {
			if err := huh.NewForm(huh.NewGroup(
				huh.NewInput().
					Title(fmt.Sprintf("API key for %s", args[0])).
					EchoMode(huh.EchoModePassword).
					Value(&key).
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return errors.New("key cannot be empty")
						}
						return nil
					}),
			)).Run(); err != nil {
				return err
			}
		}

		persisted, err := a.SaveCredential(args[0], key)
		if err != nil {
			return err
		}
		if !persisted {
			fmt.Println(warnStyle.Render("Key stored for this session only; no secure store is available."))
			return nil
		}
		fmt.Println(successStyle.Render("✓ Key saved"))
		return nil
	},
}

var settingsDeleteCmd = &cobra.Command{
	Use:   "delete <provider>",
	Short: "Remove a stored provider API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.DeleteCredential(args[0]); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("✓ Key removed"))
		return nil
	},
}

var settingsTelegramCmd = &cobra.Command{
	Use:   "telegram",
	Short: "Configure the Telegram bot token and allowed user IDs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if telegramToken == "" {
			return errors.New("--token is required")
		}
		ids, err := parseIDs(telegramAllowed)
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.SaveTelegramConfig(telegramToken, ids); err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Println(warnStyle.Render("No allowed IDs set: the bot will answer anyone."))
		}
		fmt.Println(successStyle.Render("✓ Telegram settings saved"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd, settingsDeleteCmd, settingsTelegramCmd)
	settingsTelegramCmd.Flags().StringVar(&telegramToken, "token", "", "Bot token from @BotFather")
	settingsTelegramCmd.Flags().StringSliceVar(&telegramAllowed, "allow", nil, "Telegram user IDs allowed to use the bot")
}

func parseIDs(raw []string) ([]int64, error) {
	ids := make([]int64, 0, len(raw))
	for _, r := range raw {
		id, err := strconv.ParseInt(strings.TrimSpace(r), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user ID %q", r)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
