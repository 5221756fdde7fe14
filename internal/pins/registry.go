// Package pins tracks which GPIO pins are owned by a live LED scheduler.
package pins

import (
	"errors"
	"fmt"
	"sync"
)

// MaxPin is the highest pin number the registry accepts.
const MaxPin = 127

var (
	// ErrPinOutOfRange is returned for pin numbers above MaxPin.
	ErrPinOutOfRange = errors.New("pin out of range")
	// ErrPinClaimed is returned when the pin is already owned.
	ErrPinClaimed = errors.New("pin already claimed")
)

// Registry records pin ownership. A pin can be claimed by at most one owner at a time.
type Registry struct {
	mu      sync.Mutex
	claimed [MaxPin + 1]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide registry shared by callers that do not inject their own.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Claim marks pin as owned. The check and the update are atomic.
func (r *Registry) Claim(pin uint8) error {
	if pin > MaxPin {
		return fmt.Errorf("pin %d: %w (max %d)", pin, ErrPinOutOfRange, MaxPin)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.claimed[pin] {
		return fmt.Errorf("pin %d: %w", pin, ErrPinClaimed)
	}
	r.claimed[pin] = true
	return nil
}

// Release frees pin. Releasing an unclaimed or out of range pin is a no-op.
func (r *Registry) Release(pin uint8) {
	if pin > MaxPin {
		return
	}

	r.mu.Lock()
	r.claimed[pin] = false
	r.mu.Unlock()
}

// Claimed reports whether pin is currently owned.
func (r *Registry) Claimed(pin uint8) bool {
	if pin > MaxPin {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.claimed[pin]
}

// ClaimedPins returns the owned pins in ascending order.
func (r *Registry) ClaimedPins() []uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]uint8, 0)
	for pin, held := range r.claimed {
		if held {
			out = append(out, uint8(pin))
		}
	}
	return out
}
