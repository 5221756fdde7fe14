package nats

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/smazurov/ledanim/internal/events"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func startServer(t *testing.T) *Server {
	t.Helper()
	server := NewServer(ServerOptions{
		Port:   RandomPort,
		Name:   "test-server",
		Logger: testLogger(),
	})
	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(server.Stop)
	return server
}

func TestServerStartStop(t *testing.T) {
	server := NewServer(ServerOptions{
		Port:   14222, // Use non-default port for testing
		Name:   "test-server",
		Logger: testLogger(),
	})

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	if !server.IsRunning() {
		t.Error("Server should be running after Start()")
	}

	if url := server.ClientURL(); url == "" {
		t.Error("ClientURL should not be empty")
	}

	server.Stop()

	if server.IsRunning() {
		t.Error("Server should not be running after Stop()")
	}
	// Second stop is a no-op
	server.Stop()
}

func TestNewServerDefaults(t *testing.T) {
	server := NewServer(ServerOptions{})
	if server.opts.Port != 4222 || server.opts.Host != "127.0.0.1" || server.opts.Name != "ledanim" {
		t.Errorf("Unexpected defaults: %+v", server.opts)
	}
	if server.ClientURL() != "nats://127.0.0.1:4222" {
		t.Errorf("Unexpected URL before start: %s", server.ClientURL())
	}
}

func TestControllerGracefulDegradation(t *testing.T) {
	controller := NewController("nats://127.0.0.1:14223", testLogger())

	if err := controller.Connect(); err == nil {
		t.Error("Expected connection error with no server running")
	}
	defer controller.Close()

	if controller.IsConnected() {
		t.Error("Controller should not be connected")
	}

	if err := controller.SetAnimation("status", "Blink", "test"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}
	if err := controller.WatchStates("*", func(StateMessage) {}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}
}

func TestBridgeAnimationRequests(t *testing.T) {
	server := startServer(t)
	bus := events.New()

	bridge := NewBridge(server.ClientURL(), bus, testLogger())
	if err := bridge.Start(); err != nil {
		t.Fatalf("Failed to start bridge: %v", err)
	}
	defer bridge.Stop()

	if !bridge.IsConnected() {
		t.Fatal("Bridge should be connected")
	}

	received := make(chan events.AnimationRequestedEvent, 1)
	unsub := bus.Subscribe(func(e events.AnimationRequestedEvent) {
		received <- e
	})
	defer unsub()

	controller := NewController(server.ClientURL(), testLogger())
	if err := controller.Connect(); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer controller.Close()

	if err := controller.SetAnimation("status", "DoubleBlink", "test"); err != nil {
		t.Fatalf("SetAnimation failed: %v", err)
	}

	select {
	case e := <-received:
		if e.LED != "status" || e.Animation != "DoubleBlink" || e.Source != "nats" {
			t.Errorf("Unexpected event: %+v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Animation request was not bridged within timeout")
	}
}

func TestBridgeRawRequestUsesSubjectLED(t *testing.T) {
	server := startServer(t)
	bus := events.New()

	bridge := NewBridge(server.ClientURL(), bus, testLogger())
	if err := bridge.Start(); err != nil {
		t.Fatalf("Failed to start bridge: %v", err)
	}
	defer bridge.Stop()

	received := make(chan events.AnimationRequestedEvent, 1)
	unsub := bus.Subscribe(func(e events.AnimationRequestedEvent) {
		received <- e
	})
	defer unsub()

	controller := NewController(server.ClientURL(), testLogger())
	if err := controller.Connect(); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer controller.Close()

	// Same shape as `nats pub ledanim.control.power.animation '{"animation":"On"}'`
	if err := controller.conn.Publish(SubjectLEDAnimation("power"), []byte(`{"animation":"On"}`)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case e := <-received:
		if e.LED != "power" || e.Animation != "On" {
			t.Errorf("Unexpected event: %+v", e)
		}
		if e.Timestamp == "" {
			t.Error("Expected timestamp to be filled in")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Animation request was not bridged within timeout")
	}
}

func TestBridgeForwardsState(t *testing.T) {
	server := startServer(t)
	bus := events.New()

	bridge := NewBridge(server.ClientURL(), bus, testLogger())
	if err := bridge.Start(); err != nil {
		t.Fatalf("Failed to start bridge: %v", err)
	}
	defer bridge.Stop()

	controller := NewController(server.ClientURL(), testLogger())
	if err := controller.Connect(); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer controller.Close()

	states := make(chan StateMessage, 1)
	if err := controller.WatchStates("*", func(m StateMessage) {
		states <- m
	}); err != nil {
		t.Fatalf("WatchStates failed: %v", err)
	}
	if err := controller.conn.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	bus.Publish(events.LEDStateChangedEvent{
		LED:       "status",
		Pin:       17,
		Animation: "Blink",
		TaskState: "blocked",
		Output:    true,
		Timestamp: "2024-01-01T00:00:00Z",
	})

	select {
	case m := <-states:
		if m.LED != "status" || m.Pin != 17 || m.Animation != "Blink" || m.TaskState != "blocked" || !m.Output {
			t.Errorf("Unexpected state: %+v", m)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("State was not forwarded within timeout")
	}
}

func TestMessageUnmarshal(t *testing.T) {
	t.Run("AnimationMessage", func(t *testing.T) {
		m, err := UnmarshalAnimation([]byte(`{"animation":"Blink","reason":"manual"}`))
		if err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if m.Animation != "Blink" || m.Reason != "manual" || m.LED != "" {
			t.Errorf("Unexpected message: %+v", m)
		}
	})

	t.Run("StateMessage", func(t *testing.T) {
		data, err := StateMessage{LED: "power", Pin: 4, TaskState: "suspended", Output: true}.Marshal()
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		m, err := UnmarshalState(data)
		if err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if m.LED != "power" || m.Pin != 4 || !m.Output {
			t.Errorf("Unexpected message: %+v", m)
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		if _, err := UnmarshalAnimation([]byte("not json")); err == nil {
			t.Error("Expected error for invalid JSON")
		}
	})
}

func TestSubjectFunctions(t *testing.T) {
	tests := []struct {
		fn       func(string) string
		led      string
		expected string
	}{
		{SubjectLEDState, "status", "ledanim.leds.status.state"},
		{SubjectLEDAnimation, "status", "ledanim.control.status.animation"},
	}

	for _, tt := range tests {
		result := tt.fn(tt.led)
		if result != tt.expected {
			t.Errorf("Got %s, want %s", result, tt.expected)
		}
	}
}

func TestLEDFromSubject(t *testing.T) {
	tests := []struct {
		subject string
		want    string
	}{
		{"ledanim.control.status.animation", "status"},
		{"ledanim.leds.power.state", "power"},
		{"ledanim.control", ""},
		{"ledanim.control.a.b.animation", ""},
	}

	for _, tt := range tests {
		if got := LEDFromSubject(tt.subject); got != tt.want {
			t.Errorf("LEDFromSubject(%q) = %q, want %q", tt.subject, got, tt.want)
		}
	}
}
