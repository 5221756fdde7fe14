package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/ledanim/internal/events"
)

// registerSSERoutes registers the LED event stream.
func (s *Server) registerSSERoutes() {
	if s.eventBus == nil {
		return
	}

	sse.Register(s.api, huma.Operation{
		OperationID: "led-events",
		Method:      http.MethodGet,
		Path:        "/api/leds/events",
		Summary:     "LED Event Stream",
		Description: "Server-Sent Events for LED state changes and board reloads. The current state of every LED is sent on connect.",
		Tags:        []string{"leds"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"led-state-changed": events.LEDStateChangedEvent{},
		"board-reloaded":    events.BoardReloadedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 32)

		unsubscribers := []func(){
			events.SubscribeToChannel[events.LEDStateChangedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.BoardReloadedEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		// Snapshot after subscribing so no change falls between the two.
		if s.board != nil {
			now := time.Now().Format(time.RFC3339)
			for _, st := range s.board.Statuses() {
				if err := send.Data(events.LEDStateChangedEvent{
					LED:       st.Name,
					Pin:       st.Pin,
					Animation: st.Animation,
					TaskState: string(st.TaskState),
					Output:    st.Output,
					Timestamp: now,
				}); err != nil {
					return
				}
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
