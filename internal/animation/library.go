package animation

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
)

// Library is a thread-safe catalogue of animations addressed by name.
// Names are matched case-insensitively. Built-in presets are always present.
type Library struct {
	mu     sync.RWMutex
	byName map[string]Animation
}

// NewLibrary creates a library seeded with the built-in presets.
func NewLibrary() *Library {
	l := &Library{byName: make(map[string]Animation)}
	for _, a := range Presets() {
		l.byName[key(a.Name())] = a
	}
	return l
}

func key(name string) string {
	return strings.ToLower(name)
}

// Register adds an animation. Presets cannot be overridden.
func (l *Library) Register(a Animation) error {
	if a.Name() == "" {
		return fmt.Errorf("animation name is required")
	}
	if _, ok := Preset(a.Name()); ok {
		return fmt.Errorf("animation %q shadows a built-in preset", a.Name())
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.byName[key(a.Name())]; exists {
		return fmt.Errorf("animation %q already registered", a.Name())
	}
	l.byName[key(a.Name())] = a
	return nil
}

// Get returns the animation registered under name.
func (l *Library) Get(name string) (Animation, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	a, ok := l.byName[key(name)]
	return a, ok
}

// List returns all animations sorted by name.
func (l *Library) List() []Animation {
	l.mu.RLock()
	out := make([]Animation, 0, len(l.byName))
	for _, a := range l.byName {
		out = append(out, a)
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return key(out[i].Name()) < key(out[j].Name())
	})
	return out
}

// Replace swaps the user-defined animations for a new set.
// An animation whose frames did not change keeps its previous instance, so LEDs
// already running it are not restarted.
func (l *Library) Replace(custom []Animation) error {
	next := make(map[string]Animation, len(custom)+4)
	for _, a := range Presets() {
		next[key(a.Name())] = a
	}
	for _, a := range custom {
		if a.Name() == "" {
			return fmt.Errorf("animation name is required")
		}
		if _, exists := next[key(a.Name())]; exists {
			return fmt.Errorf("duplicate animation %q", a.Name())
		}
		next[key(a.Name())] = a
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for k, a := range next {
		if prev, ok := l.byName[k]; ok && slices.Equal(prev.frames, a.frames) {
			next[k] = prev
		}
	}
	l.byName = next
	return nil
}
