// Package metrics provides Prometheus metrics for LED schedulers.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smazurov/ledanim/internal/led"
	"github.com/smazurov/ledanim/internal/pins"
)

var taskStates = []led.TaskState{
	led.TaskUninitialized,
	led.TaskRunning,
	led.TaskBlocked,
	led.TaskSuspended,
}

var (
	animationInstalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledanim",
		Name:      "animation_installs_total",
		Help:      "Animations installed on an LED",
	}, []string{"led"})

	frameAdvances = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledanim",
		Name:      "frame_advances_total",
		Help:      "Frame advances performed by the LED task",
	}, []string{"led"})

	pinWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledanim",
		Name:      "pin_writes_total",
		Help:      "Pin writes by result",
	}, []string{"led", "result"})

	taskState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ledanim",
		Name:      "task_state",
		Help:      "1 for the current task state of an LED, 0 otherwise",
	}, []string{"led", "state"})

	_ = promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "ledanim",
		Name:      "pins_claimed",
		Help:      "Pins currently claimed in the watched registry",
	}, func() float64 {
		registryMu.RLock()
		defer registryMu.RUnlock()
		if registry == nil {
			return 0
		}
		return float64(len(registry.ClaimedPins()))
	})

	registry   *pins.Registry
	registryMu sync.RWMutex

	// Local cache for API access.
	ledCache   = make(map[string]*LEDMetrics)
	ledCacheMu sync.RWMutex
)

// LEDMetrics holds current metric values for an LED.
type LEDMetrics struct {
	Installs    float64
	Advances    float64
	Writes      float64
	WriteErrors float64
	State       led.TaskState
}

// Recorder implements led.Metrics on top of the package collectors.
type Recorder struct{}

var _ led.Metrics = Recorder{}

// AnimationInstalled counts an install.
func (Recorder) AnimationInstalled(name string) {
	animationInstalls.WithLabelValues(name).Inc()
	updateCache(name, func(m *LEDMetrics) { m.Installs++ })
}

// FrameAdvanced counts a frame advance.
func (Recorder) FrameAdvanced(name string) {
	frameAdvances.WithLabelValues(name).Inc()
	updateCache(name, func(m *LEDMetrics) { m.Advances++ })
}

// PinWritten counts a pin write, split by ok/error.
func (Recorder) PinWritten(name string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	pinWrites.WithLabelValues(name, result).Inc()
	updateCache(name, func(m *LEDMetrics) {
		m.Writes++
		if err != nil {
			m.WriteErrors++
		}
	})
}

// TaskStateChanged moves the state gauge of an LED to state.
func (Recorder) TaskStateChanged(name string, state led.TaskState) {
	for _, s := range taskStates {
		v := 0.0
		if s == state {
			v = 1
		}
		taskState.WithLabelValues(name, string(s)).Set(v)
	}
	updateCache(name, func(m *LEDMetrics) { m.State = state })
}

// SchedulerClosed drops the series of a closed LED.
func (Recorder) SchedulerClosed(name string) {
	DeleteLEDMetrics(name)
}

// WatchRegistry makes the pins_claimed gauge report r.
func WatchRegistry(r *pins.Registry) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = r
}

// DeleteLEDMetrics removes all metrics for an LED.
func DeleteLEDMetrics(name string) {
	animationInstalls.DeleteLabelValues(name)
	frameAdvances.DeleteLabelValues(name)
	pinWrites.DeleteLabelValues(name, "ok")
	pinWrites.DeleteLabelValues(name, "error")
	for _, s := range taskStates {
		taskState.DeleteLabelValues(name, string(s))
	}

	ledCacheMu.Lock()
	delete(ledCache, name)
	ledCacheMu.Unlock()
}

// GetLEDMetrics returns current metric values for an LED.
func GetLEDMetrics(name string) *LEDMetrics {
	ledCacheMu.RLock()
	defer ledCacheMu.RUnlock()
	if m, ok := ledCache[name]; ok {
		dup := *m
		return &dup
	}
	return nil
}

func updateCache(name string, update func(*LEDMetrics)) {
	ledCacheMu.Lock()
	defer ledCacheMu.Unlock()
	m, ok := ledCache[name]
	if !ok {
		m = &LEDMetrics{}
		ledCache[name] = m
	}
	update(m)
}

// Handler returns the Prometheus metrics HTTP handler.
// This collects all promauto-registered metrics automatically.
func Handler() http.Handler {
	return promhttp.Handler()
}
