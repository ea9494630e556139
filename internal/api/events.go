package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/joeblew999/plat-solar/internal/service"
)

// EventHandler streams bus events to Datastar clients via SSE. Every event
// patches the lastEvent signal and is dispatched as a DOM custom event named
// after its resource, e.g. "renders-changed".
type EventHandler struct {
	bus *service.EventBus
}

// NewEventHandler creates a new event handler.
func NewEventHandler(bus *service.EventBus) *EventHandler {
	return &EventHandler{bus: bus}
}

func (h *EventHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/events", h.Events,
		huma.OperationTags("events"),
	)
}

func (h *EventHandler) Events(ctx context.Context, input *struct{}) (*huma.StreamResponse, error) {
	if h.bus == nil {
		return nil, huma.Error503ServiceUnavailable("event bus not available")
	}
	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			r, w := humachi.Unwrap(humaCtx)
			sse := datastar.NewSSE(w, r)
			ch := h.bus.Subscribe()
			defer h.bus.Unsubscribe(ch)

			for {
				select {
				case <-ctx.Done():
					return
				case <-r.Context().Done():
					return
				case ev := <-ch:
					if err := sse.MarshalAndPatchSignals(map[string]any{"lastEvent": ev}); err != nil {
						return
					}
					sse.DispatchCustomEvent(ev.Resource+"-changed", ev)
				}
			}
		},
	}, nil
}
