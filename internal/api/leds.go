package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/ledanim/internal/animation"
	"github.com/smazurov/ledanim/internal/api/models"
	"github.com/smazurov/ledanim/internal/led"
	"github.com/smazurov/ledanim/internal/metrics"
)

// registerLEDRoutes registers LED and animation endpoints.
func (s *Server) registerLEDRoutes() {
	if s.board == nil {
		s.logger.Debug("No LED board configured, skipping LED routes")
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "list-leds",
		Method:      http.MethodGet,
		Path:        "/api/leds",
		Summary:     "List LEDs",
		Description: "List every configured LED with its animation and task state",
		Tags:        []string{"leds"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(_ context.Context, _ *struct{}) (*models.LEDListResponse, error) {
		statuses := s.board.Statuses()
		leds := make([]models.LEDData, 0, len(statuses))
		for _, st := range statuses {
			leds = append(leds, toLEDData(st))
		}
		return &models.LEDListResponse{
			Body: models.LEDListData{LEDs: leds, Count: len(leds)},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-led",
		Method:      http.MethodGet,
		Path:        "/api/leds/{name}",
		Summary:     "Get LED",
		Description: "Get one LED's animation and task state",
		Tags:        []string{"leds"},
		Errors:      []int{401, 404},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.LEDPathInput) (*models.LEDResponse, error) {
		st, err := s.board.Status(input.Name)
		if err != nil {
			return nil, mapLEDError(err)
		}
		return &models.LEDResponse{Body: toLEDData(st)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "set-led-animation",
		Method:      http.MethodPut,
		Path:        "/api/leds/{name}/animation",
		Summary:     "Set LED Animation",
		Description: "Install an animation on an LED. Installing the animation already playing is a no-op.",
		Tags:        []string{"leds"},
		Errors:      []int{400, 401, 404},
		Security:    withAuth(),
	}, func(_ context.Context, input *models.SetAnimationRequest) (*models.LEDResponse, error) {
		if err := s.board.SetAnimation(input.Name, strings.TrimSpace(input.Body.Animation)); err != nil {
			return nil, mapLEDError(err)
		}
		st, err := s.board.Status(input.Name)
		if err != nil {
			return nil, mapLEDError(err)
		}
		s.logger.Info("Animation set via API", "led", input.Name, "animation", st.Animation)
		return &models.LEDResponse{Body: toLEDData(st)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-animations",
		Method:      http.MethodGet,
		Path:        "/api/animations",
		Summary:     "List Animations",
		Description: "List the preset and configured animations",
		Tags:        []string{"animations"},
		Errors:      []int{401},
		Security:    withAuth(),
	}, func(_ context.Context, _ *struct{}) (*models.AnimationListResponse, error) {
		anims := s.board.Animations()
		out := make([]models.AnimationData, 0, len(anims))
		for _, a := range anims {
			out = append(out, toAnimationData(a))
		}
		return &models.AnimationListResponse{
			Body: models.AnimationListData{Animations: out, Count: len(out)},
		}, nil
	})
}

func toLEDData(st led.Status) models.LEDData {
	data := models.LEDData{
		Name:        st.Name,
		Pin:         st.Pin,
		Animation:   st.Animation,
		AnimationID: st.AnimationID,
		FrameIndex:  st.FrameIndex,
		Output:      st.Output,
		TaskState:   string(st.TaskState),
		SetUp:       st.SetUp,
		PinInvalid:  st.PinInvalid,
	}
	if m := metrics.GetLEDMetrics(st.Name); m != nil {
		data.FrameAdvances = m.Advances
		data.WriteErrors = m.WriteErrors
	}
	return data
}

func toAnimationData(a animation.Animation) models.AnimationData {
	frames := make([]models.FrameData, 0, a.FrameCount())
	for _, f := range a.Frames() {
		frames = append(frames, models.FrameData{
			State: f.State.String(),
			Ms:    f.Duration.Milliseconds(),
		})
	}
	return models.AnimationData{
		Name:    a.Name(),
		ID:      a.ID().String(),
		Static:  a.Static(),
		Summary: a.String(),
		Frames:  frames,
	}
}

// mapLEDError converts board errors to HTTP errors.
func mapLEDError(err error) error {
	var ledErr *led.Error
	if errors.As(err, &ledErr) {
		switch ledErr.Code {
		case led.ErrCodeLEDNotFound, led.ErrCodeAnimationNotFound:
			return huma.Error404NotFound(ledErr.Message, err)
		case led.ErrCodeInvalidPin:
			return huma.Error400BadRequest(ledErr.Message, err)
		case led.ErrCodeDuplicateLED:
			return huma.Error409Conflict(ledErr.Message, err)
		}
	}
	return huma.Error500InternalServerError("internal server error", err)
}
