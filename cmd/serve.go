package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"gamedev-ai/internal/app"
	"gamedev-ai/internal/channel"
	"gamedev-ai/internal/web"
)

var (
	serveAddr     string
	allowMissing  bool
	serveTelegram bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and live progress feed",
	Long: `Run the JSON HTTP API on the configured address (default 127.0.0.1:5000).
Progress of every fan-out is streamed on the /api/events websocket.

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

		addr := serveAddr
		if addr == "" {
			addr = a.Config().Server.Addr
		}

		ctx := cmd.Context()
		var mgr *channel.Manager
		if serveTelegram {
			if mgr, err = startTelegram(ctx, a); err != nil {
				return err
			}
		}

		srv := web.New(a)
		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start(addr) }()
		fmt.Println(successStyle.Render("✓ Serving on http://" + addr))

		select {
		case err = <-errCh:
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if mgr != nil {
			mgr.StopAll(shutdownCtx)
		}
		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Printf("[serve] shutdown: %v", shutdownErr)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
	serveCmd.Flags().BoolVar(&allowMissing, "allow-missing", false, "Start even if some providers have no API key")
	serveCmd.Flags().BoolVar(&serveTelegram, "telegram", false, "Also run the Telegram bot")
}

// checkCredentials refuses to start a long-running front end with a
// provider that can never answer.
func checkCredentials(a *app.App) error {
	err := a.RequireCredentials()
	if err == nil {
		return nil
	}
	if allowMissing {
		fmt.Println(warnStyle.Render(err.Error()))
		return nil
	}
	return fmt.Errorf("%w (pass --allow-missing to start anyway)", err)
}

func startTelegram(ctx context.Context, a *app.App) (*channel.Manager, error) {
	tg := a.TelegramConfig()
	if tg == nil {
		return nil, errors.New("telegram is not configured: run 'gamedev-ai settings telegram --token ...'")
	}
	mgr := channel.NewManager()
	mgr.Register(channel.NewTelegramChannel(*tg))
	a.ServeChannels(ctx, mgr)
	if err := mgr.StartAll(ctx); err != nil {
		return nil, err
	}
	return mgr, nil
}
