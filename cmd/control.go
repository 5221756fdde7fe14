package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/smazurov/ledanim/internal/logging"
	"github.com/smazurov/ledanim/internal/nats"
	"github.com/spf13/cobra"
)

const defaultNATSURL = "nats://127.0.0.1:4222"

// CreateSetCmd creates the set command.
func CreateSetCmd() *cobra.Command {
	var natsURL string
	var reason string

	cmd := &cobra.Command{
		Use:   "set LED ANIMATION",
		Short: "Switch an LED on a running daemon",
		Long:  `Sends an animation request to a running ledanim daemon over its embedded NATS server.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			controller := nats.NewController(natsURL, logging.GetLogger("nats"))
			if err := controller.Connect(); err != nil {
				return fmt.Errorf("daemon not reachable at %s: %w", natsURL, err)
			}
			defer controller.Close()

			if err := controller.SetAnimation(args[0], args[1], reason); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "requested %s on %s\n", args[1], args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&natsURL, "nats", defaultNATSURL, "NATS URL of the daemon")
	cmd.Flags().StringVar(&reason, "reason", "cli", "Reason recorded with the request")

	return cmd
}

// CreateWatchCmd creates the watch command.
func CreateWatchCmd() *cobra.Command {
	var natsURL string

	cmd := &cobra.Command{
		Use:   "watch [LED]",
		Short: "Print LED state changes from a running daemon",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ledName := "*"
			if len(args) == 1 {
				ledName = args[0]
			}

			controller := nats.NewController(natsURL, logging.GetLogger("nats"))
			if err := controller.Connect(); err != nil {
				return fmt.Errorf("daemon not reachable at %s: %w", natsURL, err)
			}
			defer controller.Close()

			out := cmd.OutOrStdout()
			if err := controller.WatchStates(ledName, func(m nats.StateMessage) {
				level := "off"
				if m.Output {
					level = "on"
				}
				fmt.Fprintf(out, "%s %-12s pin=%-3d %-12s %-10s %s\n", m.Timestamp, m.LED, m.Pin, m.Animation, m.TaskState, level)
			}); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&natsURL, "nats", defaultNATSURL, "NATS URL of the daemon")

	return cmd
}
