// AngelaMos | 2026
// store.go

// Package outbox persists domain events next to the rows they describe and
// delivers them to Kafka.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/coachforge/platform/internal/config"
	"github.com/coachforge/platform/internal/core"
	"github.com/coachforge/platform/internal/events"
)

// Message is one outbox row.
type Message struct {
	EventID       int64     `db:"event_id"`
	AggregateType string    `db:"aggregate_type"`
	AggregateID   string    `db:"aggregate_id"`
	EventType     string    `db:"event_type"`
	Topic         string    `db:"topic"`
	PartitionKey  string    `db:"partition_key"`
	Payload       string    `db:"payload"`
	CreatedAt     time.Time `db:"created_at"`
	Attempts      int       `db:"attempts"`
}

type Store struct {
	kafka config.KafkaConfig
}

func NewStore(kafka config.KafkaConfig) *Store {
	return &Store{kafka: kafka}
}

// Enqueue writes env using db, which should be the caller's transaction so
// the event commits or rolls back with the data change. Events are keyed by
// user so one user's events stay ordered on a partition.
func (s *Store) Enqueue(
	ctx context.Context,
	db core.DBTX,
	aggregateType string,
	env events.Envelope,
) error {
	topic, err := events.TopicFor(s.kafka, env.Type)
	if err != nil {
		return fmt.Errorf("enqueue event: %w", err)
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	query := `
		INSERT INTO outbox (
			aggregate_type, aggregate_id, event_type, topic,
			partition_key, payload
		) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = db.ExecContext(ctx, query,
		aggregateType,
		env.AggregateID,
		env.Type,
		topic,
		env.UserID,
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("enqueue event: %w", err)
	}

	return nil
}

// Claim locks up to limit pending rows for the surrounding transaction.
// Concurrent dispatchers skip rows already locked by another.
func Claim(
	ctx context.Context,
	tx core.DBTX,
	limit, maxAttempts int,
) ([]Message, error) {
	query := `
		SELECT event_id, aggregate_type, aggregate_id, event_type, topic,
		       partition_key, payload::text AS payload, created_at, attempts
		FROM outbox
		WHERE published_at IS NULL AND attempts < $2
		ORDER BY event_id
		LIMIT $1
		FOR UPDATE SKIP LOCKED`

	var msgs []Message
	if err := tx.SelectContext(ctx, &msgs, query, limit, maxAttempts); err != nil {
		return nil, fmt.Errorf("claim outbox batch: %w", err)
	}
	return msgs, nil
}

func MarkPublished(ctx context.Context, tx core.DBTX, ids []int64) error {
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`UPDATE outbox SET published_at = NOW() WHERE event_id = $1`, id); err != nil {
			return fmt.Errorf("mark event %d published: %w", id, err)
		}
	}
	return nil
}

func MarkFailed(ctx context.Context, tx core.DBTX, ids []int64, reason string) error {
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`UPDATE outbox SET attempts = attempts + 1, last_error = $2 WHERE event_id = $1`,
			id, reason); err != nil {
			return fmt.Errorf("mark event %d failed: %w", id, err)
		}
	}
	return nil
}

// PendingCount reports undelivered events, including ones that exhausted
// their attempts.
func PendingCount(ctx context.Context, db core.DBTX) (int, error) {
	var n int
	if err := db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM outbox WHERE published_at IS NULL`); err != nil {
		return 0, fmt.Errorf("count pending events: %w", err)
	}
	return n, nil
}

// Vacuum deletes published events older than the retention window.
func Vacuum(ctx context.Context, db core.DBTX, retain time.Duration) (int64, error) {
	result, err := db.ExecContext(ctx,
		`DELETE FROM outbox WHERE published_at IS NOT NULL AND published_at < $1`,
		time.Now().Add(-retain))
	if err != nil {
		return 0, fmt.Errorf("vacuum outbox: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("vacuum outbox: %w", err)
	}
	return rows, nil
}
