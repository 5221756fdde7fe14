package api

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/smazurov/ledanim/internal/animation"
	"github.com/smazurov/ledanim/internal/events"
	"github.com/smazurov/ledanim/internal/led"
)

// mockBoard is a test implementation of LEDService.
type mockBoard struct {
	mu       sync.Mutex
	statuses map[string]led.Status
	library  *animation.Library
	failPin  bool
	calls    []string
}

func newMockBoard() *mockBoard {
	return &mockBoard{
		statuses: map[string]led.Status{
			"power":  {Name: "power", Pin: 4, Animation: "On", Output: true, TaskState: led.TaskSuspended, SetUp: true},
			"status": {Name: "status", Pin: 17, Animation: "Blink", TaskState: led.TaskBlocked, SetUp: true},
		},
		library: animation.NewLibrary(),
	}
}

func (m *mockBoard) Statuses() []led.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []led.Status{m.statuses["power"], m.statuses["status"]}
	return out
}

func (m *mockBoard) Status(name string) (led.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.statuses[name]
	if !ok {
		return led.Status{}, &led.Error{Code: led.ErrCodeLEDNotFound, Message: "LED not found"}
	}
	return st, nil
}

func (m *mockBoard) SetAnimation(ledName, animName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.statuses[ledName]
	if !ok {
		return &led.Error{Code: led.ErrCodeLEDNotFound, Message: "LED not found"}
	}
	if m.failPin {
		return &led.Error{Code: led.ErrCodeInvalidPin, Message: "pin is invalid"}
	}
	anim, ok := m.library.Get(animName)
	if !ok {
		return &led.Error{Code: led.ErrCodeAnimationNotFound, Message: "animation not found"}
	}
	st.Animation = anim.Name()
	m.statuses[ledName] = st
	m.calls = append(m.calls, ledName+"="+anim.Name())
	return nil
}

func (m *mockBoard) Animations() []animation.Animation {
	return m.library.List()
}

func testAPI(t *testing.T, board LEDService) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t, huma.DefaultConfig("ledanim API", "test"))
	s := &Server{
		api:    api,
		board:  board,
		logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})),
	}
	s.registerLEDRoutes()
	s.registerLogRoutes()
	return api
}

func TestListLEDs(t *testing.T) {
	api := testAPI(t, newMockBoard())

	resp := api.Get("/api/leds")
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	body := resp.Body.String()
	for _, want := range []string{`"count":2`, `"name":"power"`, `"task_state":"blocked"`, `"pin":17`} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected %s in %s", want, body)
		}
	}
}

func TestGetLED(t *testing.T) {
	api := testAPI(t, newMockBoard())

	tests := []struct {
		path string
		code int
	}{
		{"/api/leds/status", http.StatusOK},
		{"/api/leds/missing", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp := api.Get(tt.path)
			if resp.Code != tt.code {
				t.Errorf("Expected %d, got %d: %s", tt.code, resp.Code, resp.Body.String())
			}
		})
	}
}

func TestSetLEDAnimation(t *testing.T) {
	board := newMockBoard()
	api := testAPI(t, board)

	resp := api.Put("/api/leds/status/animation", map[string]any{"animation": "doubleblink"})
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), `"animation":"DoubleBlink"`) {
		t.Errorf("Expected canonical animation name in response, got %s", resp.Body.String())
	}
	if len(board.calls) != 1 || board.calls[0] != "status=DoubleBlink" {
		t.Errorf("Unexpected board calls: %v", board.calls)
	}
}

func TestSetLEDAnimation_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		body    map[string]any
		failPin bool
		code    int
	}{
		{"unknown led", "/api/leds/missing/animation", map[string]any{"animation": "On"}, false, http.StatusNotFound},
		{"unknown animation", "/api/leds/status/animation", map[string]any{"animation": "Strobe"}, false, http.StatusNotFound},
		{"invalid pin", "/api/leds/status/animation", map[string]any{"animation": "On"}, true, http.StatusBadRequest},
		{"empty animation", "/api/leds/status/animation", map[string]any{"animation": ""}, false, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			board := newMockBoard()
			board.failPin = tt.failPin
			api := testAPI(t, board)

			resp := api.Put(tt.path, tt.body)
			if resp.Code != tt.code {
				t.Errorf("Expected %d, got %d: %s", tt.code, resp.Code, resp.Body.String())
			}
		})
	}
}

func TestListAnimations(t *testing.T) {
	api := testAPI(t, newMockBoard())

	resp := api.Get("/api/animations")
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.Code)
	}
	body := resp.Body.String()
	for _, want := range []string{`"name":"Blink"`, `"name":"DoubleBlink"`, `"static":true`, `"ms":500`} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected %s in %s", want, body)
		}
	}
}

func TestSetLogLevel(t *testing.T) {
	api := testAPI(t, newMockBoard())

	resp := api.Put("/api/logs/level/led", map[string]any{"level": "debug"})
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = api.Put("/api/logs/level/led", map[string]any{"level": "loud"})
	if resp.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 for unknown level, got %d", resp.Code)
	}
}

func TestMapLEDError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&led.Error{Code: led.ErrCodeLEDNotFound}, http.StatusNotFound},
		{&led.Error{Code: led.ErrCodeAnimationNotFound}, http.StatusNotFound},
		{&led.Error{Code: led.ErrCodeInvalidPin}, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", &led.Error{Code: led.ErrCodeInvalidPin}), http.StatusBadRequest},
		{&led.Error{Code: led.ErrCodeDuplicateLED}, http.StatusConflict},
		{io.EOF, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		se, ok := mapLEDError(tt.err).(huma.StatusError)
		if !ok {
			t.Fatalf("Expected huma.StatusError for %v", tt.err)
		}
		if se.GetStatus() != tt.want {
			t.Errorf("mapLEDError(%v) = %d, want %d", tt.err, se.GetStatus(), tt.want)
		}
	}
}

func TestBasicAuth(t *testing.T) {
	server := NewServer(&Options{
		AuthUsername: "admin",
		AuthPassword: "secret",
		Board:        newMockBoard(),
		EventBus:     events.New(),
	})
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	good := base64.StdEncoding.EncodeToString([]byte("admin:secret"))
	bad := base64.StdEncoding.EncodeToString([]byte("admin:nope"))

	tests := []struct {
		name   string
		path   string
		header string
		code   int
	}{
		{"health needs no auth", "/api/health", "", http.StatusOK},
		{"version needs no auth", "/api/version", "", http.StatusOK},
		{"missing credentials", "/api/leds", "", http.StatusUnauthorized},
		{"wrong password", "/api/leds", "Basic " + bad, http.StatusUnauthorized},
		{"wrong scheme", "/api/leds", "Bearer " + good, http.StatusUnauthorized},
		{"header credentials", "/api/leds", "Basic " + good, http.StatusOK},
		{"query credentials", "/api/leds?auth=" + good, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, ts.URL+tt.path, nil)
			if err != nil {
				t.Fatal(err)
			}
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("Request failed: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.code {
				t.Errorf("Expected %d, got %d", tt.code, resp.StatusCode)
			}
		})
	}
}

func TestPrometheusHandlerMounted(t *testing.T) {
	server := NewServer(&Options{
		AuthUsername: "admin",
		AuthPassword: "secret",
		PrometheusHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "ledanim_pins_claimed 2\n")
		}),
	})
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "ledanim_pins_claimed") {
		t.Errorf("Expected metrics without auth, got %d: %s", resp.StatusCode, body)
	}
}

func TestLEDEventsSSE(t *testing.T) {
	bus := events.New()
	server := NewServer(&Options{
		AuthUsername: "test",
		AuthPassword: "test",
		Board:        newMockBoard(),
		EventBus:     bus,
	})
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	credentials := base64.StdEncoding.EncodeToString([]byte("test:test"))
	resp, err := http.Get(fmt.Sprintf("%s/api/leds/events?auth=%s", ts.URL, credentials))
	if err != nil {
		t.Fatalf("Failed to connect to SSE: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream") {
		t.Fatalf("Expected SSE content type, got %s", resp.Header.Get("Content-Type"))
	}

	messageChan := make(chan string, 10)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if line := scanner.Text(); strings.HasPrefix(line, "data:") {
				messageChan <- line
			}
		}
	}()

	next := func() string {
		select {
		case msg := <-messageChan:
			return msg
		case <-time.After(2 * time.Second):
			t.Fatal("Timeout waiting for SSE message")
			return ""
		}
	}

	// Snapshot of both LEDs first
	for _, name := range []string{"power", "status"} {
		if msg := next(); !strings.Contains(msg, `"led":"`+name+`"`) {
			t.Errorf("Expected snapshot for %s, got: %s", name, msg)
		}
	}

	bus.Publish(events.LEDStateChangedEvent{
		LED:       "status",
		Pin:       17,
		Animation: "DoubleBlink",
		TaskState: "running",
		Timestamp: time.Now().Format(time.RFC3339),
	})

	if msg := next(); !strings.Contains(msg, "DoubleBlink") {
		t.Errorf("Expected state change event, got: %s", msg)
	}

	bus.Publish(events.BoardReloadedEvent{LEDs: 2, Animations: 5})

	if msg := next(); !strings.Contains(msg, `"animations":5`) {
		t.Errorf("Expected board reloaded event, got: %s", msg)
	}
}
