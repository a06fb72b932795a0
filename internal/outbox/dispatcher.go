// AngelaMos | 2026
// dispatcher.go

package outbox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/segmentio/kafka-go"

	"github.com/coachforge/platform/internal/config"
	"github.com/coachforge/platform/internal/core"
	"github.com/coachforge/platform/internal/observability"
)

// Dispatcher drains the outbox table into Kafka. Each batch is claimed,
// published and marked inside one transaction, so a crash before commit
// leaves the rows pending for the next run.
type Dispatcher struct {
	db        core.DB
	publisher Publisher
	cfg       config.OutboxConfig
	logger    *slog.Logger
	done      chan struct{}
}

func NewDispatcher(
	db core.DB,
	publisher Publisher,
	cfg config.OutboxConfig,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		db:        db,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start polls until ctx is cancelled. Run it in its own goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer func() {
		ticker.Stop()
		close(d.done)
	}()

	for {
		for {
			n, err := d.ProcessBatch(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				d.logger.Error("outbox dispatch failed", "error", err)
			}
			if err != nil || n < d.cfg.BatchSize {
				break
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Wait blocks until Start has returned.
func (d *Dispatcher) Wait() {
	<-d.done
}

// ProcessBatch delivers one batch and returns how many rows it claimed.
func (d *Dispatcher) ProcessBatch(ctx context.Context) (int, error) {
	start := time.Now()
	claimed := 0

	err := core.InTx(ctx, d.db, func(tx *sqlx.Tx) error {
		msgs, err := Claim(ctx, tx, d.cfg.BatchSize, d.cfg.MaxAttempts)
		if err != nil {
			return err
		}
		claimed = len(msgs)
		if claimed == 0 {
			return nil
		}

		for topic, batch := range groupByTopic(msgs) {
			ids := eventIDs(batch)

			if pubErr := d.publisher.WriteMessages(ctx, topic, toRecords(batch)...); pubErr != nil {
				observability.OutboxFailed.WithLabelValues(topic).Add(float64(len(batch)))
				d.logger.Warn("outbox publish failed",
					"topic", topic,
					"events", len(batch),
					"error", pubErr,
				)
				if err := MarkFailed(ctx, tx, ids, pubErr.Error()); err != nil {
					return err
				}
				continue
			}

			if err := MarkPublished(ctx, tx, ids); err != nil {
				return err
			}
			observability.OutboxDelivered.WithLabelValues(topic).Add(float64(len(batch)))
		}
		return nil
	})

	if claimed > 0 {
		observability.OutboxBatchDuration.Observe(time.Since(start).Seconds())
	}
	return claimed, err
}

func groupByTopic(msgs []Message) map[string][]Message {
	out := make(map[string][]Message)
	for _, m := range msgs {
		out[m.Topic] = append(out[m.Topic], m)
	}
	return out
}

func eventIDs(msgs []Message) []int64 {
	ids := make([]int64, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.EventID)
	}
	return ids
}

func toRecords(msgs []Message) []kafka.Message {
	records := make([]kafka.Message, 0, len(msgs))
	for _, m := range msgs {
		records = append(records, kafka.Message{
			Key:   []byte(m.PartitionKey),
			Value: []byte(m.Payload),
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(m.EventType)},
				{Key: "aggregate_type", Value: []byte(m.AggregateType)},
			},
			Time: time.Now().UTC(),
		})
	}
	return records
}
