package gpio

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Write records one pin change made through a Memory backend.
type Write struct {
	Pin uint8
	On  bool
	At  time.Time
}

// DefaultHistoryLimit is the number of writes a Memory backend remembers.
const DefaultHistoryLimit = 4096

// Memory keeps pin levels in process. It backs the simulator and tests.
// Only the most recent writes are kept in history; see SetHistoryLimit.
type Memory struct {
	clock      clockwork.Clock
	mu         sync.Mutex
	configured map[uint8]bool
	levels     map[uint8]bool
	failPins   map[uint8]error
	onWrite    func(Write)

	// history is a ring once full: oldest entry at head.
	history      []Write
	head         int
	historyLimit int
}

// NewMemory creates an in-memory backend. A nil clock uses the wall clock.
func NewMemory(clock clockwork.Clock) *Memory {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Memory{
		clock:        clock,
		configured:   make(map[uint8]bool),
		levels:       make(map[uint8]bool),
		failPins:     make(map[uint8]error),
		historyLimit: DefaultHistoryLimit,
	}
}

// SetHistoryLimit changes how many writes are remembered. n <= 0 keeps every write.
func (m *Memory) SetHistoryLimit(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ordered := m.orderedLocked()
	if n > 0 && len(ordered) > n {
		ordered = ordered[len(ordered)-n:]
	}
	m.history = ordered
	m.head = 0
	m.historyLimit = n
}

func (m *Memory) recordLocked(w Write) {
	if m.historyLimit <= 0 || len(m.history) < m.historyLimit {
		m.history = append(m.history, w)
		return
	}
	m.history[m.head] = w
	m.head = (m.head + 1) % len(m.history)
}

// orderedLocked returns the history oldest first.
func (m *Memory) orderedLocked() []Write {
	out := make([]Write, 0, len(m.history))
	out = append(out, m.history[m.head:]...)
	return append(out, m.history[:m.head]...)
}

// Name implements Output.
func (m *Memory) Name() string {
	return DriverMemory
}

// FailConfigure makes Configure(pin) return err.
func (m *Memory) FailConfigure(pin uint8, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPins[pin] = err
}

// OnWrite registers fn to be called after every write. fn must not call back into m.
func (m *Memory) OnWrite(fn func(Write)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onWrite = fn
}

// Configure implements Output.
func (m *Memory) Configure(pin uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.failPins[pin]; err != nil {
		return err
	}
	m.configured[pin] = true
	m.levels[pin] = false
	return nil
}

// Write implements Output.
func (m *Memory) Write(pin uint8, on bool) error {
	m.mu.Lock()
	if !m.configured[pin] {
		m.mu.Unlock()
		return fmt.Errorf("pin %d: %w", pin, ErrNotConfigured)
	}
	w := Write{Pin: pin, On: on, At: m.clock.Now()}
	m.levels[pin] = on
	m.recordLocked(w)
	hook := m.onWrite
	m.mu.Unlock()

	if hook != nil {
		hook(w)
	}
	return nil
}

// Level returns the current level of pin.
func (m *Memory) Level(pin uint8) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.levels[pin]
}

// Configured reports whether pin was configured for output.
func (m *Memory) Configured(pin uint8) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.configured[pin]
}

// History returns the remembered writes made to pin, oldest first.
func (m *Memory) History(pin uint8) []Write {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Write
	for _, w := range m.orderedLocked() {
		if w.Pin == pin {
			out = append(out, w)
		}
	}
	return out
}

// Close implements Output.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configured = make(map[uint8]bool)
	return nil
}
