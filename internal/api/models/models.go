package models

import (
	"github.com/smazurov/ledanim/internal/version"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

type VersionResponse struct {
	Body version.Info
}

// LED models
type LEDData struct {
	Name        string `json:"name" example:"status" doc:"LED name from the board file"`
	Pin         uint8  `json:"pin" example:"17" doc:"GPIO line driving the LED"`
	Animation   string `json:"animation" example:"Blink" doc:"Installed animation"`
	AnimationID string `json:"animation_id" doc:"Identity token of the installed animation"`
	FrameIndex  int    `json:"frame_index" example:"0" doc:"Current frame"`
	Output      bool   `json:"output" example:"true" doc:"Logical pin level"`
	TaskState   string `json:"task_state" enum:"uninitialized,running,blocked,suspended" doc:"Background task state"`
	SetUp       bool   `json:"set_up" doc:"Whether setup completed"`
	PinInvalid  bool   `json:"pin_invalid" doc:"Setup failed; the LED is inert"`

	FrameAdvances float64 `json:"frame_advances" doc:"Frames advanced since the LED was set up"`
	WriteErrors   float64 `json:"write_errors" doc:"Failed pin writes"`
}

type LEDListData struct {
	LEDs  []LEDData `json:"leds" doc:"Configured LEDs"`
	Count int       `json:"count" example:"2" doc:"Number of LEDs"`
}

type LEDListResponse struct {
	Body LEDListData
}

type LEDResponse struct {
	Body LEDData
}

type LEDPathInput struct {
	Name string `path:"name" example:"status" doc:"LED name"`
}

type SetAnimationRequest struct {
	Name string `path:"name" example:"status" doc:"LED name"`
	Body struct {
		Animation string `json:"animation" minLength:"1" example:"DoubleBlink" doc:"Animation name (case-insensitive)"`
	}
}

// Animation models
type FrameData struct {
	State string `json:"state" enum:"on,off" doc:"Pin level for the frame"`
	Ms    int64  `json:"ms" example:"500" doc:"Frame duration in milliseconds; 0 holds the frame"`
}

type AnimationData struct {
	Name    string      `json:"name" example:"Blink" doc:"Animation name"`
	ID      string      `json:"id" doc:"Identity token"`
	Static  bool        `json:"static" doc:"Single frame or held frame; the task parks"`
	Summary string      `json:"summary" example:"Blink[500ms on, 500ms off]" doc:"Human-readable frame list"`
	Frames  []FrameData `json:"frames" doc:"Frame sequence"`
}

type AnimationListData struct {
	Animations []AnimationData `json:"animations" doc:"Presets and configured animations"`
	Count      int             `json:"count" example:"4" doc:"Number of animations"`
}

type AnimationListResponse struct {
	Body AnimationListData
}

// Logging models
type LogLevelRequest struct {
	Module string `path:"module" example:"led" doc:"Logger module"`
	Body   struct {
		Level string `json:"level" enum:"debug,info,warn,error" example:"debug" doc:"New level"`
	}
}

type LogLevelData struct {
	Module string `json:"module" example:"led" doc:"Logger module"`
	Level  string `json:"level" example:"debug" doc:"Active level"`
}

type LogLevelResponse struct {
	Body LogLevelData
}

type LogStreamInput struct {
	Since uint64 `query:"since" doc:"Only replay buffered entries after this sequence number"`
}
