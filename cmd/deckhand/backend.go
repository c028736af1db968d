package main

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/five82/deckhand/internal/fakebackend"
	"github.com/five82/deckhand/internal/logging"
)

func newFakeBackendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fake-backend",
		Short: "Serve an in-memory backend for demos and manual testing",
		Long: `Serves the bot, device, and system REST routes under /api and the three
event streams under /ws. State lives in memory and resets on exit.

Point deckhand at it with api_url = "http://127.0.0.1:8000/api".
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			level, _ := cmd.Flags().GetString("log-level")
			if _, err := logging.Setup(level, ""); err != nil {
				return err
			}

			srv := fakebackend.New(logging.For("fakebackend"))
			go func() {
				<-cmd.Context().Done()
				_ = srv.Shutdown()
			}()
			if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().String("addr", "127.0.0.1:8000", "listen address")
	cmd.Flags().String("log-level", "info", "log level")
	return cmd
}
