// Package animation defines timed on/off frame sequences for status LEDs.
//
// An Animation is immutable once built. Its identity is a random token assigned at
// construction, so two animations built from the same frames are still different
// animations; copying an Animation value keeps the identity.
package animation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// MaxFrames is the longest frame sequence an Animation may hold.
const MaxFrames = 255

var (
	// ErrNoFrames is returned when an animation is built without frames.
	ErrNoFrames = errors.New("animation needs at least one frame")
	// ErrTooManyFrames is returned when more than MaxFrames frames are given.
	ErrTooManyFrames = fmt.Errorf("animation cannot have more than %d frames", MaxFrames)
	// ErrNegativeDuration is returned for frames with a negative duration.
	ErrNegativeDuration = errors.New("frame duration cannot be negative")
)

// Animation is a named, identified, repeating sequence of frames.
type Animation struct {
	id     uuid.UUID
	name   string
	frames []Frame
}

// New builds an animation from the given frames. The frames are copied.
func New(name string, frames ...Frame) (Animation, error) {
	if len(frames) == 0 {
		return Animation{}, ErrNoFrames
	}
	if len(frames) > MaxFrames {
		return Animation{}, ErrTooManyFrames
	}
	for i, f := range frames {
		if f.Duration < 0 {
			return Animation{}, fmt.Errorf("frame %d: %w", i, ErrNegativeDuration)
		}
	}

	owned := make([]Frame, len(frames))
	copy(owned, frames)

	return Animation{
		id:     uuid.New(),
		name:   name,
		frames: owned,
	}, nil
}

// MustNew is like New but panics on invalid input.
func MustNew(name string, frames ...Frame) Animation {
	a, err := New(name, frames...)
	if err != nil {
		panic(fmt.Sprintf("animation %q: %v", name, err))
	}
	return a
}

// ID returns the identity token.
func (a Animation) ID() uuid.UUID {
	return a.id
}

// Name returns the animation name.
func (a Animation) Name() string {
	return a.name
}

// FrameCount returns the number of frames.
func (a Animation) FrameCount() int {
	return len(a.frames)
}

// FrameAt returns frame i modulo the frame count, so any index is valid.
// The zero Animation returns the zero Frame (off, held).
func (a Animation) FrameAt(i int) Frame {
	n := len(a.frames)
	if n == 0 {
		return Frame{}
	}
	i %= n
	if i < 0 {
		i += n
	}
	return a.frames[i]
}

// Frames returns a copy of the frame sequence.
func (a Animation) Frames() []Frame {
	out := make([]Frame, len(a.frames))
	copy(out, a.frames)
	return out
}

// Equal reports whether both values are the same animation instance.
// Frame content is not compared.
func (a Animation) Equal(other Animation) bool {
	return a.id == other.id
}

// IsZero reports whether a was never built with New.
func (a Animation) IsZero() bool {
	return a.id == uuid.Nil && len(a.frames) == 0
}

// Static reports whether the animation never advances on its own.
func (a Animation) Static() bool {
	return len(a.frames) <= 1 || a.frames[0].Hold()
}

// String renders the animation for diagnostics.
func (a Animation) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%d frames)", a.name, len(a.frames))
	for i, f := range a.frames {
		fmt.Fprintf(&sb, "\n  %3d: %s", i, f)
	}
	return sb.String()
}
