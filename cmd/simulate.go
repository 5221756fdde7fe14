package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/smazurov/ledanim/internal/animation"
	"github.com/smazurov/ledanim/internal/gpio"
	"github.com/smazurov/ledanim/internal/led"
	"github.com/smazurov/ledanim/internal/logging"
	"github.com/smazurov/ledanim/internal/pins"
	"github.com/spf13/cobra"
)

const simulatedPin = 0

// CreateSimulateCmd creates the simulate command.
func CreateSimulateCmd() *cobra.Command {
	var boardFile string
	var animationName string
	var duration time.Duration
	var resolution time.Duration
	var logLevel string

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play an animation on a simulated pin",
		Long: `Runs an LED scheduler against an in-memory pin on a simulated clock and prints every ` +
			`pin transition with its offset, followed by a timeline. No hardware is touched and ` +
			`the command returns immediately regardless of --duration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if duration <= 0 {
				return fmt.Errorf("--duration must be positive")
			}
			if resolution <= 0 {
				return fmt.Errorf("--resolution must be positive")
			}

			logging.Initialize(logging.Config{Level: logLevel, Format: "text"})

			anim, err := lookupAnimation(boardFile, animationName)
			if err != nil {
				return err
			}

			history, err := simulate(cmd.Context(), anim, duration, logging.GetLogger("led"))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s for %s\n", anim, duration)
			writeTransitions(out, history)
			fmt.Fprintf(out, "timeline (%s per column):\n%s\n", resolution, renderTimeline(history, duration, resolution))
			return nil
		},
	}

	cmd.Flags().StringVar(&boardFile, "board", "leds.toml", "Board file with custom animations")
	cmd.Flags().StringVarP(&animationName, "animation", "a", "Blink", "Animation to play")
	cmd.Flags().DurationVarP(&duration, "duration", "d", 3*time.Second, "Simulated time to run")
	cmd.Flags().DurationVar(&resolution, "resolution", 50*time.Millisecond, "Timeline column width")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "Scheduler log level")

	return cmd
}

// transition is a pin change relative to the start of the simulation.
type transition struct {
	Offset time.Duration
	On     bool
}

// simulate plays anim on a fake clock for d and returns the pin transitions.
func simulate(ctx context.Context, anim animation.Animation, d time.Duration, logger *slog.Logger) ([]transition, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	clock := clockwork.NewFakeClock()
	start := clock.Now()
	mem := gpio.NewMemory(clock)
	// The run is bounded by d, so every transition is kept.
	mem.SetHistoryLimit(0)

	s := led.NewScheduler(mem,
		led.WithClock(clock),
		led.WithRegistry(pins.NewRegistry()),
		led.WithLogger(logger),
		led.WithName("simulated"),
	)
	if err := s.Setup(simulatedPin, anim); err != nil {
		return nil, err
	}

	for elapsed := time.Duration(0); elapsed < d; {
		sleeping, err := waitSleeping(ctx, clock, s)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		if !sleeping {
			// Parked on a held frame: nothing changes until a new animation.
			break
		}

		step := anim.FrameAt(s.FrameIndex()).Duration
		if remaining := d - elapsed; step > remaining {
			step = remaining
		}
		clock.Advance(step)
		elapsed += step
	}

	// Taken before Close drives the pin off.
	writes := mem.History(simulatedPin)
	_ = s.Close()

	out := make([]transition, 0, len(writes))
	for _, w := range writes {
		offset := w.At.Sub(start)
		if offset >= d {
			break
		}
		out = append(out, transition{Offset: offset, On: w.On})
	}
	return out, nil
}

// waitSleeping waits until the scheduler task is in a timed sleep. It returns
// false once the task parks instead.
func waitSleeping(ctx context.Context, clock *clockwork.FakeClock, s *led.Scheduler) (bool, error) {
	for {
		if s.TaskState() == led.TaskSuspended {
			return false, nil
		}
		waitCtx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
		err := clock.BlockUntilContext(waitCtx, 1)
		cancel()
		if err == nil {
			return true, nil
		}
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
	}
}

func writeTransitions(out io.Writer, history []transition) {
	for _, t := range history {
		fmt.Fprintf(out, "  +%-10s %s\n", t.Offset, animation.State(t.On))
	}
}

// renderTimeline draws one column per resolution step: '#' on, '_' off.
func renderTimeline(history []transition, total, resolution time.Duration) string {
	var b strings.Builder
	next := 0
	on := false
	for at := time.Duration(0); at < total; at += resolution {
		for next < len(history) && history[next].Offset <= at {
			on = history[next].On
			next++
		}
		if on {
			b.WriteByte('#')
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
