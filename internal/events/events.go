// AngelaMos | 2026
// events.go

// Package events defines the domain events exchanged between the core API
// and the gamification service.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/coachforge/platform/internal/config"
)

const (
	TypeWorkoutLogged    = "workout.logged"
	TypeSessionCompleted = "session.completed"
	TypeOrderCompleted   = "order.completed"
)

// Envelope wraps every payload published to Kafka.
type Envelope struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Version     int             `json:"version"`
	AggregateID string          `json:"aggregate_id"`
	UserID      string          `json:"user_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

func New(eventType, aggregateID, userID string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}

	return Envelope{
		ID:          uuid.New().String(),
		Type:        eventType,
		Version:     1,
		AggregateID: aggregateID,
		UserID:      userID,
		OccurredAt:  time.Now().UTC(),
		Payload:     raw,
	}, nil
}

func (e Envelope) Decode(dst any) error {
	if err := json.Unmarshal(e.Payload, dst); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

type WorkoutLogged struct {
	LogID             string    `json:"log_id"`
	UserID            string    `json:"user_id"`
	PlanID            *string   `json:"plan_id,omitempty"`
	PerformedAt       time.Time `json:"performed_at"`
	DurationMinutes   int       `json:"duration_minutes"`
	Intensity         int       `json:"intensity"`
	DistinctExercises int       `json:"distinct_exercises"`
	TotalSets         int       `json:"total_sets"`
}

type SessionCompleted struct {
	SessionID       string    `json:"session_id"`
	ClientID        string    `json:"client_id"`
	TrainerID       string    `json:"trainer_id"`
	StartsAt        time.Time `json:"starts_at"`
	DurationMinutes int       `json:"duration_minutes"`
}

type OrderCompleted struct {
	OrderID         string `json:"order_id"`
	UserID          string `json:"user_id"`
	TotalCents      int64  `json:"total_cents"`
	Currency        string `json:"currency"`
	SessionsGranted int    `json:"sessions_granted"`
}

// TopicFor maps an event type to its Kafka topic.
func TopicFor(cfg config.KafkaConfig, eventType string) (string, error) {
	switch eventType {
	case TypeWorkoutLogged:
		return cfg.WorkoutTopic, nil
	case TypeSessionCompleted:
		return cfg.SessionTopic, nil
	case TypeOrderCompleted:
		return cfg.OrderTopic, nil
	}
	return "", fmt.Errorf("no topic for event type %q", eventType)
}
