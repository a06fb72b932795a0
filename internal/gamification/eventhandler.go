// AngelaMos | 2026
// eventhandler.go

package gamification

import (
	"context"
	"errors"
	"fmt"

	"github.com/coachforge/platform/internal/events"
)

// EventHandler routes consumed domain events to the engine.
type EventHandler struct {
	engine *Engine
}

func NewEventHandler(engine *Engine) *EventHandler {
	return &EventHandler{engine: engine}
}

func (h *EventHandler) Handle(ctx context.Context, env events.Envelope) error {
	switch env.Type {
	case events.TypeWorkoutLogged:
		var ev events.WorkoutLogged
		if err := env.Decode(&ev); err != nil {
			return fmt.Errorf("%w: %w", events.ErrSkip, err)
		}
		_, err := h.engine.AwardWorkout(ctx, ev)
		return skipInvalid(err)

	case events.TypeSessionCompleted:
		var ev events.SessionCompleted
		if err := env.Decode(&ev); err != nil {
			return fmt.Errorf("%w: %w", events.ErrSkip, err)
		}
		_, err := h.engine.AwardSession(ctx, ev)
		return skipInvalid(err)

	case events.TypeOrderCompleted:
		var ev events.OrderCompleted
		if err := env.Decode(&ev); err != nil {
			return fmt.Errorf("%w: %w", events.ErrSkip, err)
		}
		if ev.SessionsGranted <= 0 {
			return nil
		}
		_, err := h.engine.AwardOrder(ctx, ev)
		return skipInvalid(err)
	}

	return fmt.Errorf("%w: unknown event type %q", events.ErrSkip, env.Type)
}

func skipInvalid(err error) error {
	if errors.Is(err, ErrInvalidEvent) {
		return fmt.Errorf("%w: %w", events.ErrSkip, err)
	}
	return err
}
