package animation

import (
	"fmt"
	"strings"
	"time"
)

// State is the binary output level of a frame.
type State bool

// Output levels.
const (
	StateOff State = false
	StateOn  State = true
)

// String returns "on" or "off".
func (s State) String() string {
	if s {
		return "on"
	}
	return "off"
}

// ParseState converts "on"/"off" (and the usual boolean spellings) to a State.
func ParseState(s string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "high", "1", "true":
		return StateOn, nil
	case "off", "low", "0", "false":
		return StateOff, nil
	default:
		return StateOff, fmt.Errorf("invalid LED state %q", s)
	}
}

// Frame holds one output level for a duration.
// A zero Duration means the frame is held until the animation is replaced.
type Frame struct {
	State    State
	Duration time.Duration
}

// Hold reports whether the frame never expires.
func (f Frame) Hold() bool {
	return f.Duration == 0
}

// String formats the frame as "500ms on".
func (f Frame) String() string {
	return fmt.Sprintf("%dms %s", f.Duration.Milliseconds(), f.State)
}
