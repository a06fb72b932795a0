// AngelaMos | 2026
// hub_test.go

package realtime

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachforge/platform/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(hub *Hub, userID string, buffer int) *Client {
	c := NewClient(hub, nil, userID, config.RealtimeConfig{SendBuffer: buffer}, discardLogger())
	hub.Register(c)
	return c
}

func mustMessage(t *testing.T, channel, kind string) Message {
	t.Helper()
	msg, err := NewMessage(channel, kind, map[string]int{"points": 10})
	require.NoError(t, err)
	return msg
}

func TestBroadcastReachesOnlySubscribers(t *testing.T) {
	hub := NewHub(discardLogger())
	alice := newTestClient(hub, "alice", 4)
	bob := newTestClient(hub, "bob", 4)

	require.True(t, hub.Subscribe(alice, UserChannel("alice")))
	require.True(t, hub.Subscribe(bob, UserChannel("bob")))
	require.True(t, hub.Subscribe(bob, ChannelLeaderboard))

	assert.Equal(t, 1, hub.Broadcast(mustMessage(t, UserChannel("alice"), "points_awarded")))
	assert.Equal(t, 1, hub.Broadcast(mustMessage(t, ChannelLeaderboard, "leaderboard_updated")))
	assert.Zero(t, hub.Broadcast(mustMessage(t, UserChannel("carol"), "points_awarded")))
	assert.Zero(t, hub.Broadcast(Message{Type: "no_channel"}))

	require.Len(t, alice.send, 1)
	assert.Equal(t, "points_awarded", (<-alice.send).Type)
	require.Len(t, bob.send, 1)
	assert.Equal(t, "leaderboard_updated", (<-bob.send).Type)
}

func TestSubscribeRejectsForeignChannels(t *testing.T) {
	hub := NewHub(discardLogger())
	alice := newTestClient(hub, "alice", 1)

	assert.False(t, hub.Subscribe(alice, UserChannel("bob")))
	assert.False(t, hub.Subscribe(alice, "admin"))
	assert.True(t, hub.Subscribe(alice, " leaderboard "))
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(discardLogger())
	slow := newTestClient(hub, "slow", 1)
	require.True(t, hub.Subscribe(slow, UserChannel("slow")))

	msg := mustMessage(t, UserChannel("slow"), "points_awarded")
	assert.Equal(t, 1, hub.Broadcast(msg))
	assert.Zero(t, hub.Broadcast(msg), "second message is dropped, not blocked")
	assert.Len(t, slow.send, 1)
}

func TestRemoveUnsubscribesEverywhere(t *testing.T) {
	hub := NewHub(discardLogger())
	alice := newTestClient(hub, "alice", 2)
	require.True(t, hub.Subscribe(alice, UserChannel("alice")))
	require.True(t, hub.Subscribe(alice, ChannelLeaderboard))
	assert.Equal(t, 1, hub.Clients())

	hub.Remove(alice)
	hub.Remove(alice)

	assert.Zero(t, hub.Clients())
	assert.Zero(t, hub.Broadcast(mustMessage(t, ChannelLeaderboard, "leaderboard_updated")))
	assert.Empty(t, hub.subscriptions)

	select {
	case <-alice.Done():
	default:
		t.Fatal("removed client should be closed")
	}
	assert.False(t, alice.enqueue(mustMessage(t, UserChannel("alice"), "late")))
}

func TestUnsubscribe(t *testing.T) {
	hub := NewHub(discardLogger())
	alice := newTestClient(hub, "alice", 2)
	require.True(t, hub.Subscribe(alice, ChannelLeaderboard))

	hub.Unsubscribe(alice, ChannelLeaderboard)
	assert.Zero(t, hub.Broadcast(mustMessage(t, ChannelLeaderboard, "leaderboard_updated")))
}
