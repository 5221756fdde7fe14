package led

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/smazurov/ledanim/internal/animation"
	"github.com/smazurov/ledanim/internal/gpio"
	"github.com/smazurov/ledanim/internal/pins"
)

// Scheduler owns one output pin and plays an animation on it from a background goroutine.
//
// Two locks guard disjoint state. animMu guards the animation, frame position, frame
// start time, the logical pin level and the setup flags. taskMu guards the task state.
// When both are needed animMu is always taken first.
type Scheduler struct {
	name     string
	out      gpio.Output
	registry *pins.Registry
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  Metrics
	listener StateListener

	animMu       sync.Mutex
	anim         animation.Animation
	frameIndex   int
	currentFrame animation.Frame
	frameStart   time.Time
	output       bool
	pin          uint8
	claimed      bool
	setupCalled  bool
	setUp        bool
	pinInvalid   bool
	closed       bool

	taskMu    sync.Mutex
	taskState TaskState
	started   bool

	// wake carries a single pending resume/abort request to the task.
	wake      chan struct{}
	done      chan struct{}
	exited    chan struct{}
	closeOnce sync.Once
}

// NewScheduler creates an idle scheduler that will drive pins through out.
// Nothing is claimed or started until Setup.
func NewScheduler(out gpio.Output, opts ...Option) *Scheduler {
	s := &Scheduler{
		out:       out,
		registry:  pins.Default(),
		clock:     clockwork.NewRealClock(),
		logger:    slog.Default(),
		metrics:   nopMetrics{},
		taskState: TaskUninitialized,
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
		exited:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.name == "" {
		s.name = "led"
	}
	s.logger = s.logger.With("led", s.name)
	return s
}

// DefaultPin is the pin used by tools that are not told which pin to drive.
const DefaultPin uint8 = 2

// Setup claims pin, configures it for output, installs initial and starts the
// background task. A zero initial installs animation.Off. It may be called once;
// a second call panics.
//
// If the pin is out of range, already claimed, or cannot be configured, Setup
// returns an error and the scheduler stays inert for good: SetAnimation and
// Animation keep working but never touch hardware.
func (s *Scheduler) Setup(pin uint8, initial animation.Animation) error {
	s.animMu.Lock()

	if s.setupCalled {
		s.animMu.Unlock()
		panic(fmt.Sprintf("led %s: Setup called twice", s.name))
	}
	if s.closed {
		s.animMu.Unlock()
		panic(fmt.Sprintf("led %s: Setup called after Close", s.name))
	}
	s.setupCalled = true
	s.pin = pin
	if initial.IsZero() {
		initial = animation.Off
	}

	if err := s.registry.Claim(pin); err != nil {
		s.pinInvalid = true
		s.animMu.Unlock()
		s.logger.Warn("LED pin unavailable", "pin", pin, "error", err)
		return fmt.Errorf("led %s: %w", s.name, err)
	}

	if err := s.out.Configure(pin); err != nil {
		s.registry.Release(pin)
		s.pinInvalid = true
		s.animMu.Unlock()
		s.logger.Warn("Failed to configure LED pin", "pin", pin, "driver", s.out.Name(), "error", err)
		return fmt.Errorf("led %s: configure pin %d: %w", s.name, pin, err)
	}

	s.claimed = true
	s.setUp = true
	s.installLocked(initial)
	s.startLocked()
	change := s.changeLocked(TaskRunning)
	s.animMu.Unlock()

	s.logger.Info("LED scheduler started", "pin", pin, "driver", s.out.Name(), "animation", initial.Name())
	s.notify(change)
	return nil
}

// startLocked launches the background task. Caller holds animMu and the scheduler
// must be set up with a valid pin.
func (s *Scheduler) startLocked() {
	if !s.setUp || s.pinInvalid {
		panic(fmt.Sprintf("led %s: task started before a successful Setup", s.name))
	}

	s.taskMu.Lock()
	s.started = true
	s.setTaskStateLocked(TaskRunning)
	s.taskMu.Unlock()

	go s.run()
}

// SetAnimation replaces the running animation. Installing the animation that is
// already running (same identity) does nothing.
//
// The pin shows the new first frame before SetAnimation returns, and a sleeping or
// parked task is woken so the new timing starts immediately.
func (s *Scheduler) SetAnimation(a animation.Animation) {
	change, changed := s.setAnimation(a)
	if changed {
		s.notify(change)
	}
}

func (s *Scheduler) setAnimation(a animation.Animation) (Change, bool) {
	s.animMu.Lock()
	defer s.animMu.Unlock()

	if a.Equal(s.anim) {
		s.logger.Debug("Animation already installed", "animation", a.Name())
		return Change{}, false
	}

	if !s.installLocked(a) {
		return Change{}, false
	}

	s.taskMu.Lock()
	defer s.taskMu.Unlock()

	if !s.started {
		return s.changeLocked(s.taskState), true
	}

	switch s.taskState {
	case TaskSuspended:
		s.setTaskStateLocked(TaskRunning)
		s.wakeTask()
	case TaskBlocked:
		s.setTaskStateLocked(TaskRunning)
		s.wakeTask()
	default:
		// Running: the loop re-reads the animation on its next lock.
	}
	return s.changeLocked(s.taskState), true
}

// installLocked stores a and resets playback to its first frame. It reports whether
// the pin was driven, which is only the case once the scheduler is set up.
func (s *Scheduler) installLocked(a animation.Animation) bool {
	s.anim = a
	s.frameIndex = 0
	s.frameStart = s.clock.Now()
	s.currentFrame = a.FrameAt(0)

	if !s.setUp || s.pinInvalid {
		return false
	}

	s.metrics.AnimationInstalled(s.name)
	s.logger.Debug("Animation installed", "animation", a.Name(), "frames", a.FrameCount())
	s.driveLocked(bool(s.currentFrame.State))
	return true
}

// driveLocked writes the pin. Errors are logged and counted; there is no caller to return them to.
func (s *Scheduler) driveLocked(on bool) {
	s.output = on
	err := s.out.Write(s.pin, on)
	if err != nil {
		s.logger.Warn("Failed to drive LED pin", "pin", s.pin, "on", on, "error", err)
	}
	s.metrics.PinWritten(s.name, err)
}

// advanceLocked moves to the next frame and restarts frame timing from now.
func (s *Scheduler) advanceLocked() {
	s.frameIndex = (s.frameIndex + 1) % s.anim.FrameCount()
	s.currentFrame = s.anim.FrameAt(s.frameIndex)
	s.driveLocked(bool(s.currentFrame.State))
	s.frameStart = s.clock.Now()
	s.metrics.FrameAdvanced(s.name)
}

// run is the background task loop. It exits when the scheduler is closed.
func (s *Scheduler) run() {
	defer close(s.exited)

	for {
		s.animMu.Lock()

		if s.currentFrame.Hold() || s.anim.FrameCount() <= 1 {
			// Nothing will ever expire. Mark the park while the animation is still
			// locked so a concurrent SetAnimation is guaranteed to see it and wake us.
			change := s.parkLocked()
			s.animMu.Unlock()
			s.notify(change)

			if !s.park() {
				return
			}
		} else {
			if s.clock.Since(s.frameStart) >= s.currentFrame.Duration {
				s.advanceLocked()
			}
			remaining := s.currentFrame.Duration - s.clock.Since(s.frameStart)

			if remaining > 0 {
				s.taskMu.Lock()
				s.setTaskStateLocked(TaskBlocked)
				s.taskMu.Unlock()
			}
			s.animMu.Unlock()

			if remaining > 0 && !s.sleep(remaining) {
				return
			}
		}

		s.resumed()
	}
}

func (s *Scheduler) parkLocked() Change {
	s.taskMu.Lock()
	defer s.taskMu.Unlock()
	s.setTaskStateLocked(TaskSuspended)
	return s.changeLocked(TaskSuspended)
}

// resumed marks the task runnable after a sleep or park ends.
func (s *Scheduler) resumed() {
	s.taskMu.Lock()
	prev := s.taskState
	s.setTaskStateLocked(TaskRunning)
	s.taskMu.Unlock()

	if prev == TaskSuspended {
		s.animMu.Lock()
		change := s.changeLocked(TaskRunning)
		s.animMu.Unlock()
		s.notify(change)
	}
}

// sleep blocks for d, or until woken or closed. It returns false when closed.
func (s *Scheduler) sleep(d time.Duration) bool {
	timer := s.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.Chan():
		return true
	case <-s.wake:
		return true
	case <-s.done:
		return false
	}
}

// park blocks until woken or closed. It returns false when closed.
func (s *Scheduler) park() bool {
	select {
	case <-s.wake:
		return true
	case <-s.done:
		return false
	}
}

// wakeTask aborts a pending sleep or resumes a park. A request that arrives when the
// task is not waiting stays pending and only costs one extra loop iteration.
func (s *Scheduler) wakeTask() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) setTaskStateLocked(state TaskState) {
	if s.taskState == state {
		return
	}
	s.taskState = state
	s.metrics.TaskStateChanged(s.name, state)
}

// changeLocked builds a listener payload. Caller holds animMu.
func (s *Scheduler) changeLocked(state TaskState) Change {
	return Change{
		LED:       s.name,
		Pin:       s.pin,
		Animation: s.anim.Name(),
		TaskState: state,
		Output:    s.output,
	}
}

func (s *Scheduler) notify(c Change) {
	if s.listener != nil {
		s.listener(c)
	}
}

// Animation returns the installed animation.
func (s *Scheduler) Animation() animation.Animation {
	s.animMu.Lock()
	defer s.animMu.Unlock()
	return s.anim
}

// Name returns the LED name.
func (s *Scheduler) Name() string {
	return s.name
}

// Pin returns the pin passed to Setup.
func (s *Scheduler) Pin() uint8 {
	s.animMu.Lock()
	defer s.animMu.Unlock()
	return s.pin
}

// Output returns the level last written to the pin.
func (s *Scheduler) Output() bool {
	s.animMu.Lock()
	defer s.animMu.Unlock()
	return s.output
}

// FrameIndex returns the position within the installed animation.
func (s *Scheduler) FrameIndex() int {
	s.animMu.Lock()
	defer s.animMu.Unlock()
	return s.frameIndex
}

// TaskState returns the background task state.
func (s *Scheduler) TaskState() TaskState {
	s.taskMu.Lock()
	defer s.taskMu.Unlock()
	return s.taskState
}

// SetUp reports whether Setup succeeded and Close has not been called.
func (s *Scheduler) SetUp() bool {
	s.animMu.Lock()
	defer s.animMu.Unlock()
	return s.setUp
}

// PinInvalid reports whether Setup rejected the pin.
func (s *Scheduler) PinInvalid() bool {
	s.animMu.Lock()
	defer s.animMu.Unlock()
	return s.pinInvalid
}

// Status returns a consistent snapshot of the scheduler.
func (s *Scheduler) Status() Status {
	s.animMu.Lock()
	defer s.animMu.Unlock()
	s.taskMu.Lock()
	defer s.taskMu.Unlock()

	st := Status{
		Name:       s.name,
		Pin:        s.pin,
		Animation:  s.anim.Name(),
		FrameIndex: s.frameIndex,
		Output:     s.output,
		TaskState:  s.taskState,
		SetUp:      s.setUp,
		PinInvalid: s.pinInvalid,
	}
	if !s.anim.IsZero() {
		st.AnimationID = s.anim.ID().String()
	}
	return st
}

// Close stops the background task, drives the pin off and releases the pin claim.
// It is safe on schedulers that were never set up and may be called more than once.
func (s *Scheduler) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)

		s.taskMu.Lock()
		started := s.started
		s.taskMu.Unlock()
		if started {
			<-s.exited
		}

		s.animMu.Lock()
		s.closed = true
		if s.claimed {
			s.output = false
			err = s.out.Write(s.pin, false)
			s.metrics.PinWritten(s.name, err)
			s.registry.Release(s.pin)
			s.claimed = false
		}
		s.setUp = false
		s.animMu.Unlock()

		s.taskMu.Lock()
		s.setTaskStateLocked(TaskUninitialized)
		s.taskMu.Unlock()
		s.metrics.SchedulerClosed(s.name)

		if started {
			s.logger.Info("LED scheduler stopped")
		}
	})
	return err
}
