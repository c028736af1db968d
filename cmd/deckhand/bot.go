package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/five82/deckhand/internal/app"
	"github.com/five82/deckhand/internal/dashboard"
	"github.com/five82/deckhand/internal/state"
)

func newBotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Control the bot session",
	}

	action := func(use, short string, fn func(*state.BotStore, context.Context) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withRuntime(cmd, func(rt *app.Runtime) error {
					ctx := cmd.Context()
					// Start sends the store's config, so load the backend's first.
					if err := rt.Bot.RefreshStatus(ctx); err != nil {
						return err
					}
					if err := fn(rt.Bot, ctx); err != nil {
						return err
					}
					printLatest(cmd.OutOrStdout(), rt.Bot.Snapshot().Logs)
					return nil
				})
			},
		}
	}

	cmd.AddCommand(
		action("start", "Start a bot session", (*state.BotStore).Start),
		action("stop", "Stop the bot session", (*state.BotStore).Stop),
		action("pause", "Pause the bot session", (*state.BotStore).Pause),
		action("resume", "Resume a paused session", (*state.BotStore).Resume),
		action("quick-start", "Start with the backend's quick-start profile", (*state.BotStore).QuickStart),
		newBotStatusCmd(),
	)
	return cmd
}

func newBotStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show bot status, config, and session stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, func(rt *app.Runtime) error {
				if err := rt.Bot.RefreshStatus(cmd.Context()); err != nil {
					return err
				}
				printBotStatus(cmd.OutOrStdout(), rt.Bot.Snapshot())
				return nil
			})
		},
	}
}

func printBotStatus(w io.Writer, b state.BotState) {
	fmt.Fprintf(w, "Status:   %s\n", b.Status)
	fmt.Fprintf(w, "Mode:     %s (floor %d)\n", b.Config.Mode, b.Config.Floor)
	if g := b.CurrentGame; g != nil {
		fmt.Fprintf(w, "Game:     %s wave %d\n", g.Mode, g.Wave)
	}
	fmt.Fprintf(w, "Games:    %d (%dW/%dL, %.1f%%)\n",
		b.Stats.GamesPlayed, b.Stats.Wins, b.Stats.Losses, dashboard.WinRate(b.Stats))
	if b.Error != "" {
		fmt.Fprintf(w, "Error:    %s\n", b.Error)
	}
}
