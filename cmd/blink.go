package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smazurov/ledanim/internal/gpio"
	"github.com/smazurov/ledanim/internal/led"
	"github.com/smazurov/ledanim/internal/logging"
	"github.com/spf13/cobra"
)

// CreateBlinkCmd creates the blink command.
func CreateBlinkCmd() *cobra.Command {
	var boardFile string
	var animationName string
	var pin uint8
	var duration time.Duration
	var driver string
	var chip string
	var sysfsLEDs string
	var sysfsRoot string
	var logJSON bool

	cmd := &cobra.Command{
		Use:   "blink",
		Short: "Play an animation on one pin",
		Long: `Claims a single pin, plays an animation on it and turns it off on exit. ` +
			`Useful for checking wiring without a board file. Runs until interrupted unless --duration is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loggingConfig := logging.Config{
				Level:  "info",
				Format: "text",
			}
			if logJSON {
				loggingConfig.Format = "json"
			}
			logging.Initialize(loggingConfig)
			logger := logging.GetLogger("led").With("pin", pin)

			anim, err := lookupAnimation(boardFile, animationName)
			if err != nil {
				return err
			}

			leds, err := gpio.ParseSysfsLEDs(sysfsLEDs)
			if err != nil {
				return err
			}
			out, err := gpio.New(gpio.Config{
				Driver:    driver,
				Chip:      chip,
				SysfsLEDs: leds,
				SysfsRoot: sysfsRoot,
			}, logging.GetLogger("gpio"))
			if err != nil {
				return fmt.Errorf("open gpio: %w", err)
			}
			defer func() {
				if closeErr := out.Close(); closeErr != nil {
					logger.Warn("Failed to close GPIO backend", "error", closeErr)
				}
			}()

			s := led.NewScheduler(out, led.WithLogger(logger), led.WithName("blink"))
			if err := s.Setup(pin, anim); err != nil {
				return err
			}
			defer func() {
				if closeErr := s.Close(); closeErr != nil {
					logger.Warn("Failed to turn LED off", "error", closeErr)
				}
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			logger.Info("Playing animation", "animation", anim.String(), "backend", out.Name())
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&boardFile, "board", "leds.toml", "Board file with custom animations")
	cmd.Flags().StringVarP(&animationName, "animation", "a", "Blink", "Animation to play")
	cmd.Flags().Uint8Var(&pin, "pin", led.DefaultPin, "Pin to drive")
	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "Stop after this long (0 runs until interrupted)")
	cmd.Flags().StringVar(&driver, "driver", gpio.DriverAuto, "GPIO driver (auto, gpiocdev, rpio, sysfs, noop, memory)")
	cmd.Flags().StringVar(&chip, "chip", "gpiochip0", "gpiochip used by the gpiocdev driver")
	cmd.Flags().StringVar(&sysfsLEDs, "sysfs-leds", "", "Pin to /sys/class/leds mapping for the sysfs driver (0=usr_led,1=sys_led)")
	cmd.Flags().StringVar(&sysfsRoot, "sysfs-root", "/sys/class/leds", "LED class directory used by the sysfs driver")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Use JSON log format")

	return cmd
}
