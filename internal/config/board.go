package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/ledanim/internal/animation"
	"github.com/smazurov/ledanim/internal/pins"
)

// FrameConfig is one frame of a configured animation.
type FrameConfig struct {
	State string `toml:"state" json:"state"` // on|off
	Ms    int    `toml:"ms" json:"ms"`       // 0 holds the frame
}

// AnimationConfig is a named user animation.
type AnimationConfig struct {
	Name   string        `toml:"name" json:"name"`
	Frames []FrameConfig `toml:"frames" json:"frames"`
}

// LEDConfig binds an LED name to a pin and its initial animation.
type LEDConfig struct {
	Name      string `toml:"name" json:"name"`
	Pin       int    `toml:"pin" json:"pin"`
	Animation string `toml:"animation" json:"animation"`
}

// Board represents the complete board file
type Board struct {
	Animations []AnimationConfig `toml:"animations" json:"animations"`
	LEDs       []LEDConfig       `toml:"leds" json:"leds"`
}

// LoadBoard reads and validates a board file. A missing file yields an empty board.
func LoadBoard(path string) (Board, error) {
	var board Board

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return board, nil
	}
	if err != nil {
		return board, fmt.Errorf("failed to read board config: %w", err)
	}

	if err := toml.Unmarshal(data, &board); err != nil {
		return board, fmt.Errorf("failed to parse board config: %w", err)
	}

	if err := board.Validate(); err != nil {
		return board, err
	}
	return board, nil
}

// Validate checks names, pins and animation references.
func (b Board) Validate() error {
	var errs []error

	animations := make(map[string]bool)
	for _, p := range animation.Presets() {
		animations[strings.ToLower(p.Name())] = true
	}

	for i, a := range b.Animations {
		name := strings.ToLower(strings.TrimSpace(a.Name))
		switch {
		case name == "":
			errs = append(errs, fmt.Errorf("animations[%d]: name cannot be empty", i))
			continue
		case animations[name]:
			errs = append(errs, fmt.Errorf("animation %q: name already defined", a.Name))
			continue
		}
		animations[name] = true

		if _, err := a.Build(); err != nil {
			errs = append(errs, err)
		}
	}

	leds := make(map[string]bool)
	usedPins := make(map[int]string)
	for i, l := range b.LEDs {
		if l.Name == "" {
			errs = append(errs, fmt.Errorf("leds[%d]: name cannot be empty", i))
			continue
		}
		if leds[l.Name] {
			errs = append(errs, fmt.Errorf("led %q: defined twice", l.Name))
		}
		leds[l.Name] = true

		if l.Pin < 0 || l.Pin > pins.MaxPin {
			errs = append(errs, fmt.Errorf("led %q: pin %d: %w", l.Name, l.Pin, pins.ErrPinOutOfRange))
		} else if other, ok := usedPins[l.Pin]; ok {
			errs = append(errs, fmt.Errorf("led %q: pin %d already used by %q", l.Name, l.Pin, other))
		} else {
			usedPins[l.Pin] = l.Name
		}

		if l.Animation != "" && !animations[strings.ToLower(l.Animation)] {
			errs = append(errs, fmt.Errorf("led %q: unknown animation %q", l.Name, l.Animation))
		}
	}

	return errors.Join(errs...)
}

// Build converts the config into an Animation with a fresh identity.
func (a AnimationConfig) Build() (animation.Animation, error) {
	frames := make([]animation.Frame, 0, len(a.Frames))
	for i, f := range a.Frames {
		state, err := animation.ParseState(f.State)
		if err != nil {
			return animation.Animation{}, fmt.Errorf("animation %q frame %d: %w", a.Name, i, err)
		}
		frames = append(frames, animation.Frame{
			State:    state,
			Duration: time.Duration(f.Ms) * time.Millisecond,
		})
	}

	anim, err := animation.New(strings.TrimSpace(a.Name), frames...)
	if err != nil {
		return animation.Animation{}, fmt.Errorf("animation %q: %w", a.Name, err)
	}
	return anim, nil
}

// BuildAnimations builds every configured animation.
func (b Board) BuildAnimations() ([]animation.Animation, error) {
	out := make([]animation.Animation, 0, len(b.Animations))
	for _, a := range b.Animations {
		anim, err := a.Build()
		if err != nil {
			return nil, err
		}
		out = append(out, anim)
	}
	return out, nil
}
