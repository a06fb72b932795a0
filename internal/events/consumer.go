// AngelaMos | 2026
// consumer.go

package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"

	"github.com/coachforge/platform/internal/config"
	"github.com/coachforge/platform/internal/core"
	"github.com/coachforge/platform/internal/observability"
)

// ErrSkip marks an event the handler will never be able to process. The
// processor commits it instead of retrying.
var ErrSkip = errors.New("skip event")

// Reader is the subset of kafka.Reader the processor drives.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Handler interface {
	Handle(ctx context.Context, env Envelope) error
}

type HandlerFunc func(ctx context.Context, env Envelope) error

func (f HandlerFunc) Handle(ctx context.Context, env Envelope) error {
	return f(ctx, env)
}

type Processor struct {
	reader   Reader
	handler  Handler
	logger   *slog.Logger
	attempts int
	backoff  time.Duration
}

type Option func(*Processor)

func WithBackoff(d time.Duration) Option {
	return func(p *Processor) { p.backoff = d }
}

func WithAttempts(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.attempts = n
		}
	}
}

func NewProcessor(
	reader Reader,
	handler Handler,
	logger *slog.Logger,
	opts ...Option,
) *Processor {
	p := &Processor{
		reader:   reader,
		handler:  handler,
		logger:   logger,
		attempts: 5,
		backoff:  500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewKafkaReader builds a consumer group reader over every domain topic.
func NewKafkaReader(cfg config.KafkaConfig) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.ConsumerGroup,
		GroupTopics:    cfg.Topics(),
		MinBytes:       cfg.MinBytes,
		MaxBytes:       cfg.MaxBytes,
		CommitInterval: 0,
		StartOffset:    kafka.FirstOffset,
	})
}

// Run consumes until ctx is cancelled. An offset is committed only after
// its handler succeeds or reports ErrSkip. When a handler keeps failing Run
// returns so the uncommitted event is redelivered after restart.
func (p *Processor) Run(ctx context.Context) error {
	for {
		msg, err := p.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Warn("fetch event", "error", err)
			if !sleep(ctx, p.backoff) {
				return nil
			}
			continue
		}

		if err := p.process(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if err := p.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("commit offset %d on %s: %w", msg.Offset, msg.Topic, err)
		}
	}
}

func (p *Processor) process(ctx context.Context, msg kafka.Message) error {
	var env Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil || env.Type == "" {
		p.logger.Error("undecodable event skipped",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		observability.EventsConsumed.WithLabelValues("unknown", "skipped").Inc()
		return nil
	}

	ctx, span := core.StartSpan(ctx, "consume "+env.Type,
		attribute.String("event.id", env.ID),
		attribute.String("messaging.destination", msg.Topic),
		attribute.Int64("messaging.offset", msg.Offset),
	)
	defer span.End()

	log := p.logger.With(
		"event_id", env.ID,
		"type", env.Type,
		"topic", msg.Topic,
		"offset", msg.Offset,
	)

	var lastErr error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		err := p.handler.Handle(ctx, env)
		if err == nil {
			observability.EventsConsumed.WithLabelValues(env.Type, "ok").Inc()
			log.Debug("event handled", "attempt", attempt)
			return nil
		}

		if errors.Is(err, ErrSkip) {
			observability.EventsConsumed.WithLabelValues(env.Type, "skipped").Inc()
			log.Warn("event skipped", "error", err)
			return nil
		}

		lastErr = err
		log.Warn("event handler failed", "attempt", attempt, "error", err)

		if !sleep(ctx, p.backoff*time.Duration(attempt)) {
			return ctx.Err()
		}
	}

	observability.EventsConsumed.WithLabelValues(env.Type, "failed").Inc()
	err := fmt.Errorf("handle %s after %d attempts: %w", env.ID, p.attempts, lastErr)
	core.SetSpanError(ctx, err)
	return err
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
