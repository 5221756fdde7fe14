package led

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/smazurov/ledanim/internal/animation"
	"github.com/smazurov/ledanim/internal/config"
	"github.com/smazurov/ledanim/internal/events"
	"github.com/smazurov/ledanim/internal/gpio"
)

// Board owns the named LED schedulers of one board and routes animation requests to them.
type Board struct {
	out         gpio.Output
	library     *animation.Library
	eventBus    *events.Bus
	logger      *slog.Logger
	opts        []Option
	unsubscribe func()

	mu   sync.RWMutex
	leds map[string]*Scheduler
}

// NewBoard creates an empty board. opts are applied to every scheduler the board creates.
func NewBoard(out gpio.Output, library *animation.Library, eventBus *events.Bus, logger *slog.Logger, opts ...Option) *Board {
	return &Board{
		out:      out,
		library:  library,
		eventBus: eventBus,
		logger:   logger,
		opts:     opts,
		leds:     make(map[string]*Scheduler),
	}
}

// Start begins listening for animation requests
func (b *Board) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unsubscribe = b.eventBus.Subscribe(func(e events.AnimationRequestedEvent) {
		b.handleRequest(e)
	})
	b.logger.Info("LED board started")
}

func (b *Board) handleRequest(e events.AnimationRequestedEvent) {
	if err := b.SetAnimation(e.LED, e.Animation); err != nil {
		b.logger.Warn("Animation request rejected",
			"led", e.LED,
			"animation", e.Animation,
			"source", e.Source,
			"error", err)
		return
	}
	b.logger.Debug("Animation request applied", "led", e.LED, "animation", e.Animation, "source", e.Source)
}

// Apply reconciles the board with cfg. Custom animations replace the library's,
// existing LEDs pick up their configured animation, new LEDs are set up and
// LEDs missing from cfg are closed.
//
// Pins are released before any are claimed, so LEDs may swap pins or take over
// the pin of a removed LED in one reload. Setup failures do not stop the
// reconcile; the failing LED stays listed as pin-invalid and the errors are
// returned joined.
func (b *Board) Apply(cfg config.Board) error {
	custom, err := cfg.BuildAnimations()
	if err != nil {
		return err
	}
	if err := b.library.Replace(custom); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	wanted := make(map[string]bool, len(cfg.LEDs))
	plans := make(map[string]ledPlan, len(cfg.LEDs))
	order := make([]string, 0, len(cfg.LEDs))

	for _, lc := range cfg.LEDs {
		if wanted[lc.Name] {
			errs = append(errs, newError(ErrCodeDuplicateLED, fmt.Sprintf("led %q defined twice", lc.Name), nil))
			continue
		}
		wanted[lc.Name] = true

		anim := animation.Off
		if lc.Animation != "" {
			a, ok := b.library.Get(lc.Animation)
			if !ok {
				// An existing LED keeps playing what it has.
				errs = append(errs, newError(ErrCodeAnimationNotFound, fmt.Sprintf("animation %q not found", lc.Animation), nil))
				continue
			}
			anim = a
		}
		plans[lc.Name] = ledPlan{pin: lc.Pin, anim: anim}
		order = append(order, lc.Name)
	}

	for name, s := range b.leds {
		plan, planned := plans[name]
		switch {
		case !wanted[name]:
			b.closeLocked(name, s)
			b.logger.Info("LED removed", "led", name)
		case planned && (s.PinInvalid() || int(s.Pin()) != plan.pin):
			// Pin moved or never worked: start over on the new pin.
			b.closeLocked(name, s)
		}
	}

	for _, name := range order {
		plan := plans[name]
		if s, ok := b.leds[name]; ok {
			s.SetAnimation(plan.anim)
			continue
		}

		if plan.pin < 0 || plan.pin > 255 {
			errs = append(errs, newError(ErrCodeInvalidPin, fmt.Sprintf("led %q: pin %d", name, plan.pin), nil))
			continue
		}

		s := b.newScheduler(name)
		b.leds[name] = s
		if setupErr := s.Setup(uint8(plan.pin), plan.anim); setupErr != nil {
			errs = append(errs, newError(ErrCodeInvalidPin, fmt.Sprintf("led %q", name), setupErr))
		}
	}

	return errors.Join(errs...)
}

// ledPlan is the target of one LED in a reconcile.
type ledPlan struct {
	pin  int
	anim animation.Animation
}

// closeLocked turns the LED off, releases its pin and forgets it. Caller holds b.mu.
func (b *Board) closeLocked(name string, s *Scheduler) {
	if err := s.Close(); err != nil {
		b.logger.Warn("Failed to turn off LED", "led", name, "error", err)
	}
	delete(b.leds, name)
}

func (b *Board) newScheduler(name string) *Scheduler {
	opts := make([]Option, 0, len(b.opts)+3)
	opts = append(opts, WithLogger(b.logger))
	opts = append(opts, b.opts...)
	opts = append(opts, WithName(name), WithStateListener(b.publish))
	return NewScheduler(b.out, opts...)
}

// publish forwards scheduler changes onto the event bus.
func (b *Board) publish(c Change) {
	b.eventBus.Publish(events.LEDStateChangedEvent{
		LED:       c.LED,
		Pin:       c.Pin,
		Animation: c.Animation,
		TaskState: string(c.TaskState),
		Output:    c.Output,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// SetAnimation installs the named animation on the named LED.
func (b *Board) SetAnimation(ledName, animName string) error {
	b.mu.RLock()
	s, ok := b.leds[ledName]
	b.mu.RUnlock()
	if !ok {
		return newError(ErrCodeLEDNotFound, fmt.Sprintf("LED %q not found", ledName), nil)
	}

	anim, ok := b.library.Get(animName)
	if !ok {
		return newError(ErrCodeAnimationNotFound, fmt.Sprintf("animation %q not found", animName), nil)
	}

	s.SetAnimation(anim)
	return nil
}

// Status returns the snapshot of one LED.
func (b *Board) Status(name string) (Status, error) {
	b.mu.RLock()
	s, ok := b.leds[name]
	b.mu.RUnlock()
	if !ok {
		return Status{}, newError(ErrCodeLEDNotFound, fmt.Sprintf("LED %q not found", name), nil)
	}
	return s.Status(), nil
}

// Statuses returns every LED sorted by name.
func (b *Board) Statuses() []Status {
	b.mu.RLock()
	out := make([]Status, 0, len(b.leds))
	for _, s := range b.leds {
		out = append(out, s.Status())
	}
	b.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Animations returns the library contents.
func (b *Board) Animations() []animation.Animation {
	return b.library.List()
}

// Close stops listening for requests and closes every LED.
func (b *Board) Close() error {
	b.mu.Lock()
	unsubscribe := b.unsubscribe
	b.unsubscribe = nil
	b.mu.Unlock()

	// In-flight request handlers take b.mu; unsubscribe without it.
	if unsubscribe != nil {
		unsubscribe()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	for name, s := range b.leds {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("led %s: %w", name, err))
		}
		delete(b.leds, name)
	}
	b.logger.Info("LED board stopped")
	return errors.Join(errs...)
}
