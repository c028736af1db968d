package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/deckhand/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "deckhand: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "deckhand",
		Short:         "Terminal dashboard and remote control for the deckhand bot backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), optionsFrom(cmd))
		},
	}

	cmd.PersistentFlags().String("config", "", "config file (default ~/.config/deckhand/config.toml)")
	cmd.PersistentFlags().String("prefs", "", "prefs file (default ~/.config/deckhand/prefs.toml)")
	cmd.PersistentFlags().Int("poll", 0, "poll interval in seconds (default from config)")

	cmd.AddCommand(
		newBotCmd(),
		newDevicesCmd(),
		newLogsCmd(),
		newFakeBackendCmd(),
	)
	return cmd
}

func optionsFrom(cmd *cobra.Command) app.Options {
	configPath, _ := cmd.Flags().GetString("config")
	prefsPath, _ := cmd.Flags().GetString("prefs")
	poll, _ := cmd.Flags().GetInt("poll")
	return app.Options{ConfigPath: configPath, PrefsPath: prefsPath, PollEvery: poll}
}

// withRuntime builds a stream-less runtime for a one-shot command.
func withRuntime(cmd *cobra.Command, fn func(rt *app.Runtime) error) error {
	rt, err := app.NewRuntime(optionsFrom(cmd), false)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close() }()
	return fn(rt)
}
