package events

// Event type constants for kelindar/event.
const (
	TypeAnimationRequested uint32 = iota + 1
	TypeLEDStateChanged
	TypeBoardReloaded
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// AnimationRequestedEvent asks the board to install a named animation on an LED.
// Published by the API, the NATS control subscription and the CLI.
type AnimationRequestedEvent struct {
	LED       string `json:"led" example:"status" doc:"LED name"`
	Animation string `json:"animation" example:"Blink" doc:"Animation name"`
	Source    string `json:"source" example:"api" doc:"Who asked: api, nats, config"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Request timestamp"`
}

// Type returns the event type identifier for AnimationRequestedEvent.
func (e AnimationRequestedEvent) Type() uint32 { return TypeAnimationRequested }

// LEDStateChangedEvent reports an animation install or a park/unpark of an LED task.
type LEDStateChangedEvent struct {
	LED       string `json:"led" example:"status" doc:"LED name"`
	Pin       uint8  `json:"pin" example:"17" doc:"Output pin"`
	Animation string `json:"animation" example:"Blink" doc:"Installed animation"`
	TaskState string `json:"task_state" example:"blocked" doc:"Task state: uninitialized, running, blocked, suspended"`
	Output    bool   `json:"output" example:"true" doc:"Current pin level"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for LEDStateChangedEvent.
func (e LEDStateChangedEvent) Type() uint32 { return TypeLEDStateChanged }

// BoardReloadedEvent is published after the board file was re-read and applied.
type BoardReloadedEvent struct {
	LEDs       int    `json:"leds" example:"2" doc:"Number of configured LEDs"`
	Animations int    `json:"animations" example:"3" doc:"Number of custom animations"`
	Error      string `json:"error,omitempty" doc:"Reload error, if the new file was rejected"`
	Timestamp  string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for BoardReloadedEvent.
func (e BoardReloadedEvent) Type() uint32 { return TypeBoardReloaded }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Seq        uint64         `json:"seq" example:"42" doc:"Monotonic sequence number for deduplication"`
	Timestamp  string         `json:"timestamp" example:"2025-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"led" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
