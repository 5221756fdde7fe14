package led

import (
	"log/slog"

	"github.com/jonboulle/clockwork"
	"github.com/smazurov/ledanim/internal/pins"
)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithRegistry sets the pin registry used to claim the scheduler's pin.
// Defaults to pins.Default().
func WithRegistry(r *pins.Registry) Option {
	return func(s *Scheduler) {
		s.registry = r
	}
}

// WithClock sets the clock used for frame timing and sleeps.
func WithClock(c clockwork.Clock) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

// WithName names the LED for logs, metrics and listeners.
func WithName(name string) Option {
	return func(s *Scheduler) {
		s.name = name
	}
}

// WithStateListener registers a listener for animation installs and park/unpark transitions.
func WithStateListener(fn StateListener) Option {
	return func(s *Scheduler) {
		s.listener = fn
	}
}
