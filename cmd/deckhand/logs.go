package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/five82/deckhand/internal/config"
	"github.com/five82/deckhand/internal/logtail"
)

func newLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the tail of deckhand's log file",
		Long: `Reads deckhand's own log file and prints it in a readable form.

Examples:
  # Last 50 lines
  deckhand logs -n 50

  # Only warnings and errors, no color
  deckhand logs --level warning --no-color
`,
		Args: cobra.NoArgs,
		RunE: runLogsE,
	}
	cmd.Flags().IntP("lines", "n", 100, "number of lines from the end (0 for all)")
	cmd.Flags().String("level", "", "minimum level to show (debug, info, warning, error)")
	cmd.Flags().Bool("no-color", false, "disable color")
	return cmd
}

func runLogsE(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	lines, _ := cmd.Flags().GetInt("lines")
	level, _ := cmd.Flags().GetString("level")
	noColor, _ := cmd.Flags().GetBool("no-color")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	raw, err := logtail.Read(cfg.LogFile, lines)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "no log entries in %s\n", cfg.LogFile)
		return nil
	}

	color := !noColor && cmd.OutOrStdout() == os.Stdout && isatty.IsTerminal(os.Stdout.Fd())
	for _, line := range logtail.FormatLines(raw, level, color) {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}
