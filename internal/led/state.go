package led

// TaskState is the lifecycle phase of a scheduler's background task.
type TaskState string

// Task states.
const (
	TaskUninitialized TaskState = "uninitialized" // No task yet
	TaskRunning       TaskState = "running"       // Runnable, about to re-read the animation
	TaskBlocked       TaskState = "blocked"       // Timed sleep until the current frame expires
	TaskSuspended     TaskState = "suspended"     // Parked until a new animation is installed
)

// Status is a point-in-time snapshot of a scheduler.
type Status struct {
	Name        string
	Pin         uint8
	Animation   string
	AnimationID string
	FrameIndex  int
	Output      bool
	TaskState   TaskState
	SetUp       bool
	PinInvalid  bool
}

// Change is passed to a StateListener when a scheduler installs an animation or
// parks/unparks its task.
type Change struct {
	LED       string
	Pin       uint8
	Animation string
	TaskState TaskState
	Output    bool
}

// StateListener observes scheduler changes. It is called without scheduler locks held.
type StateListener func(Change)

// Metrics receives scheduler activity counters.
type Metrics interface {
	AnimationInstalled(led string)
	FrameAdvanced(led string)
	PinWritten(led string, err error)
	TaskStateChanged(led string, state TaskState)
	SchedulerClosed(led string)
}

type nopMetrics struct{}

func (nopMetrics) AnimationInstalled(string)          {}
func (nopMetrics) FrameAdvanced(string)               {}
func (nopMetrics) PinWritten(string, error)           {}
func (nopMetrics) TaskStateChanged(string, TaskState) {}
func (nopMetrics) SchedulerClosed(string)             {}
