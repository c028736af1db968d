package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/five82/deckhand/internal/app"
	"github.com/five82/deckhand/internal/logbuf"
	"github.com/five82/deckhand/internal/state"
)

func newDevicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List and control Android devices",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "scan",
			Short: "Scan for devices and list them",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withRuntime(cmd, func(rt *app.Runtime) error {
					if err := rt.Devices.Scan(cmd.Context()); err != nil {
						return err
					}
					printDevices(cmd.OutOrStdout(), rt.Devices.Snapshot())
					return nil
				})
			},
		},
		deviceAction("connect", "Connect to a device", func(rt *app.Runtime, cmd *cobra.Command, id string) error {
			return rt.Devices.Connect(cmd.Context(), id)
		}),
		deviceAction("disconnect", "Disconnect a device", func(rt *app.Runtime, cmd *cobra.Command, id string) error {
			return rt.Devices.Disconnect(cmd.Context(), id)
		}),
		deviceAction("screenshot", "Capture a screenshot and print its path", func(rt *app.Runtime, cmd *cobra.Command, id string) error {
			path, err := rt.Devices.Screenshot(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		}),
	)
	return cmd
}

// deviceAction scans first so the store knows id before acting on it.
func deviceAction(use, short string, fn func(rt *app.Runtime, cmd *cobra.Command, id string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <device-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, func(rt *app.Runtime) error {
				if err := rt.Devices.Scan(cmd.Context()); err != nil {
					return err
				}
				if err := fn(rt, cmd, args[0]); err != nil {
					return err
				}
				if use != "screenshot" {
					printLatest(cmd.OutOrStdout(), rt.Devices.Snapshot().Logs)
				}
				return nil
			})
		},
	}
}

func printDevices(w io.Writer, d state.DeviceState) {
	if len(d.Devices) == 0 {
		fmt.Fprintln(w, "No devices found")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tBATTERY")
	for _, dev := range d.Devices {
		battery := "-"
		if dev.BatteryLevel != nil {
			battery = fmt.Sprintf("%d%%", *dev.BatteryLevel)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", dev.ID, dev.Name, dev.Status, battery)
	}
	_ = tw.Flush()
}

// printLatest echoes the newest store log entry, which is the action's
// confirmation.
func printLatest(w io.Writer, logs []logbuf.Entry) {
	if len(logs) == 0 {
		return
	}
	fmt.Fprintln(w, logs[0].Message)
}
