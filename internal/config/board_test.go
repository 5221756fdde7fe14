package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smazurov/ledanim/internal/animation"
	"github.com/smazurov/ledanim/internal/pins"
)

func writeBoard(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leds.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadBoard(t *testing.T) {
	path := writeBoard(t, `
[[animations]]
name = "Heartbeat"
frames = [
  { state = "on", ms = 100 },
  { state = "off", ms = 100 },
  { state = "on", ms = 100 },
  { state = "off", ms = 700 },
]

[[leds]]
name = "status"
pin = 17
animation = "Heartbeat"

[[leds]]
name = "power"
pin = 27
animation = "on"
`)

	board, err := LoadBoard(path)
	if err != nil {
		t.Fatalf("LoadBoard failed: %v", err)
	}
	if len(board.Animations) != 1 || len(board.LEDs) != 2 {
		t.Fatalf("unexpected board: %+v", board)
	}

	anims, err := board.BuildAnimations()
	if err != nil {
		t.Fatalf("BuildAnimations failed: %v", err)
	}
	hb := anims[0]
	if hb.Name() != "Heartbeat" || hb.FrameCount() != 4 {
		t.Errorf("unexpected animation %s", hb)
	}
	if f := hb.FrameAt(3); f.State != animation.StateOff || f.Duration != 700*time.Millisecond {
		t.Errorf("frame 3 = %s, want 700ms off", f)
	}
}

func TestLoadBoardMissingFile(t *testing.T) {
	board, err := LoadBoard(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadBoard should not fail for missing file: %v", err)
	}
	if len(board.LEDs) != 0 {
		t.Errorf("expected empty board, got %+v", board)
	}
}

func TestLoadBoardInvalidTOML(t *testing.T) {
	if _, err := LoadBoard(writeBoard(t, "[[leds]\nname =")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestBoardValidate(t *testing.T) {
	tests := []struct {
		name    string
		board   Board
		wantErr string
	}{
		{
			"valid",
			Board{LEDs: []LEDConfig{{Name: "status", Pin: 1, Animation: "Blink"}}},
			"",
		},
		{
			"empty led name",
			Board{LEDs: []LEDConfig{{Pin: 1}}},
			"name cannot be empty",
		},
		{
			"duplicate led",
			Board{LEDs: []LEDConfig{{Name: "a", Pin: 1}, {Name: "a", Pin: 2}}},
			"defined twice",
		},
		{
			"shared pin",
			Board{LEDs: []LEDConfig{{Name: "a", Pin: 1}, {Name: "b", Pin: 1}}},
			"already used",
		},
		{
			"unknown animation",
			Board{LEDs: []LEDConfig{{Name: "a", Pin: 1, Animation: "Strobe"}}},
			"unknown animation",
		},
		{
			"shadowed preset",
			Board{Animations: []AnimationConfig{{Name: "blink", Frames: []FrameConfig{{State: "on"}}}}},
			"already defined",
		},
		{
			"bad state",
			Board{Animations: []AnimationConfig{{Name: "x", Frames: []FrameConfig{{State: "dim"}}}}},
			"invalid LED state",
		},
		{
			"no frames",
			Board{Animations: []AnimationConfig{{Name: "x"}}},
			animation.ErrNoFrames.Error(),
		},
		{
			"negative duration",
			Board{Animations: []AnimationConfig{{Name: "x", Frames: []FrameConfig{{State: "on", Ms: -1}}}}},
			animation.ErrNegativeDuration.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.board.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBoardValidatePinRange(t *testing.T) {
	err := Board{LEDs: []LEDConfig{{Name: "a", Pin: pins.MaxPin + 1}}}.Validate()
	if !errors.Is(err, pins.ErrPinOutOfRange) {
		t.Fatalf("expected ErrPinOutOfRange, got %v", err)
	}
}

func TestBuildAnimationsFreshIdentity(t *testing.T) {
	board := Board{Animations: []AnimationConfig{{Name: "x", Frames: []FrameConfig{{State: "on", Ms: 10}}}}}

	first, err := board.BuildAnimations()
	if err != nil {
		t.Fatal(err)
	}
	second, err := board.BuildAnimations()
	if err != nil {
		t.Fatal(err)
	}
	if first[0].Equal(second[0]) {
		t.Error("each build must produce a distinct identity")
	}
}
