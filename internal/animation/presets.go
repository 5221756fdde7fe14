package animation

import (
	"strings"
	"time"
)

// Built-in animations. They are created once and shared read-only.
var (
	Off = MustNew("Off", Frame{State: StateOff})
	On  = MustNew("On", Frame{State: StateOn})

	Blink = MustNew("Blink",
		Frame{State: StateOff, Duration: 500 * time.Millisecond},
		Frame{State: StateOn, Duration: 500 * time.Millisecond},
	)

	DoubleBlink = MustNew("DoubleBlink",
		Frame{State: StateOff, Duration: 700 * time.Millisecond},
		Frame{State: StateOn, Duration: 100 * time.Millisecond},
		Frame{State: StateOff, Duration: 100 * time.Millisecond},
		Frame{State: StateOn, Duration: 100 * time.Millisecond},
	)
)

// Presets returns the built-in animations.
func Presets() []Animation {
	return []Animation{Off, On, Blink, DoubleBlink}
}

// Preset looks up a built-in animation by name, ignoring case.
func Preset(name string) (Animation, bool) {
	for _, a := range Presets() {
		if strings.EqualFold(a.Name(), name) {
			return a, true
		}
	}
	return Animation{}, false
}
