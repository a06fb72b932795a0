// AngelaMos | 2026
// consumer_test.go

package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachforge/platform/internal/config"
)

type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
	drained   chan struct{}
	once      sync.Once
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	return &fakeReader{queue: msgs, drained: make(chan struct{})}
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if len(f.queue) > 0 {
		msg := f.queue[0]
		f.queue = f.queue[1:]
		f.mu.Unlock()
		return msg, nil
	}
	f.mu.Unlock()

	f.once.Do(func() { close(f.drained) })
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error { return nil }

func (f *fakeReader) commits() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.committed...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func encoded(t *testing.T, offset int64, eventType string) kafka.Message {
	t.Helper()
	env, err := New(eventType, "agg-1", "user-1", map[string]int{"n": 1})
	require.NoError(t, err)
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	return kafka.Message{Topic: "coach.workout-logs", Offset: offset, Value: raw}
}

func runUntilDrained(t *testing.T, p *Processor, r *fakeReader) error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	select {
	case <-r.drained:
		cancel()
		return <-done
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("processor did not drain")
		return nil
	}
}

func TestProcessorCommitsAfterRetrySucceeds(t *testing.T) {
	r := newFakeReader(encoded(t, 1, TypeWorkoutLogged), encoded(t, 2, TypeOrderCompleted))

	calls := 0
	h := HandlerFunc(func(_ context.Context, env Envelope) error {
		calls++
		if env.Type == TypeWorkoutLogged && calls < 3 {
			return errors.New("database unavailable")
		}
		return nil
	})

	p := NewProcessor(r, h, quietLogger(), WithBackoff(0), WithAttempts(3))
	require.NoError(t, runUntilDrained(t, p, r))

	assert.Equal(t, []int64{1, 2}, r.commits())
	assert.Equal(t, 4, calls)
}

func TestProcessorStopsWithoutCommittingOnPersistentFailure(t *testing.T) {
	r := newFakeReader(encoded(t, 7, TypeSessionCompleted))

	h := HandlerFunc(func(context.Context, Envelope) error {
		return errors.New("still broken")
	})

	p := NewProcessor(r, h, quietLogger(), WithBackoff(0), WithAttempts(2))
	err := runUntilDrained(t, p, r)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Empty(t, r.commits())
}

func TestProcessorCommitsSkippedAndUndecodableEvents(t *testing.T) {
	r := newFakeReader(
		kafka.Message{Offset: 3, Value: []byte("not json")},
		encoded(t, 4, "unknown.type"),
	)

	h := HandlerFunc(func(_ context.Context, env Envelope) error {
		return ErrSkip
	})

	p := NewProcessor(r, h, quietLogger(), WithBackoff(0))
	require.NoError(t, runUntilDrained(t, p, r))
	assert.Equal(t, []int64{3, 4}, r.commits())
}

func TestEnvelopeRoundTrip(t *testing.T) {
	env, err := New(TypeOrderCompleted, "order-1", "user-1", OrderCompleted{
		OrderID: "order-1", UserID: "user-1", SessionsGranted: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, env.Version)
	assert.NotEmpty(t, env.ID)

	var got OrderCompleted
	require.NoError(t, env.Decode(&got))
	assert.Equal(t, 4, got.SessionsGranted)
}

func TestTopicFor(t *testing.T) {
	cfg := config.KafkaConfig{WorkoutTopic: "w", SessionTopic: "s", OrderTopic: "o"}

	topic, err := TopicFor(cfg, TypeSessionCompleted)
	require.NoError(t, err)
	assert.Equal(t, "s", topic)

	_, err = TopicFor(cfg, "nope")
	assert.Error(t, err)
}
