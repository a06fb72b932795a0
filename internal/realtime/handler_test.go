// AngelaMos | 2026
// handler_test.go

package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachforge/platform/internal/config"
	"github.com/coachforge/platform/internal/core"
	"github.com/coachforge/platform/internal/middleware"
	"github.com/coachforge/platform/internal/testutil"
)

type staticVerifier map[string]string

func (v staticVerifier) VerifyAccessToken(
	_ context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	userID, ok := v[token]
	if !ok {
		return nil, core.ErrTokenInvalid
	}
	return &middleware.AccessTokenClaims{UserID: userID, Role: middleware.RoleClient}, nil
}

var testRealtimeConfig = config.RealtimeConfig{
	WriteTimeout:   time.Second,
	PongTimeout:    5 * time.Second,
	PingInterval:   time.Second,
	MaxMessageSize: 4096,
	SendBuffer:     8,
}

func newWSServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(discardLogger())
	r := chi.NewRouter()
	NewHandler(hub, staticVerifier{"tok-alice": "alice"}, testRealtimeConfig, discardLogger()).
		RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 10*time.Millisecond)
}

func TestServeRejectsMissingOrBadToken(t *testing.T) {
	_, srv := newWSServer(t)

	resp, err := http.Get(srv.URL + "/ws")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/ws?token=forged")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServeDeliversUserMessages(t *testing.T) {
	hub, srv := newWSServer(t)
	conn := dial(t, srv, "token=tok-alice")

	waitFor(t, func() bool { return hub.Clients() == 1 })

	msg, err := NewMessage(UserChannel("alice"), "points_awarded", map[string]int{"points": 31})
	require.NoError(t, err)
	waitFor(t, func() bool { return hub.Broadcast(msg) == 1 })

	got := readMessage(t, conn)
	assert.Equal(t, "points_awarded", got.Type)
	assert.JSONEq(t, `{"points":31}`, string(got.Data))
}

func TestServeClientProtocol(t *testing.T) {
	hub, srv := newWSServer(t)
	conn := dial(t, srv, "token=tok-alice")
	waitFor(t, func() bool { return hub.Clients() == 1 })

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: ClientPing}))
	assert.Equal(t, ReplyPong, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: ClientSubscribe, Channel: UserChannel("bob")}))
	assert.Equal(t, ReplyError, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: ClientSubscribe, Channel: ChannelLeaderboard}))
	reply := readMessage(t, conn)
	assert.Equal(t, ReplySubscribed, reply.Type)
	assert.Equal(t, ChannelLeaderboard, reply.Channel)

	board, err := NewMessage(ChannelLeaderboard, "leaderboard_updated", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, hub.Broadcast(board))
	assert.Equal(t, "leaderboard_updated", readMessage(t, conn).Type)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: ClientUnsubscribe, Channel: ChannelLeaderboard}))
	assert.Equal(t, ReplyUnsubscribed, readMessage(t, conn).Type)
	assert.Zero(t, hub.Broadcast(board))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, ReplyError, readMessage(t, conn).Type)
}

func TestDisconnectUnregisters(t *testing.T) {
	hub, srv := newWSServer(t)
	conn := dial(t, srv, "token=tok-alice&leaderboard=true")
	waitFor(t, func() bool { return hub.Clients() == 1 })

	board, err := NewMessage(ChannelLeaderboard, "leaderboard_updated", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, hub.Broadcast(board))

	require.NoError(t, conn.Close())
	waitFor(t, func() bool { return hub.Clients() == 0 })
}

func TestRedisBusForwardsToHub(t *testing.T) {
	rdb := testutil.Redis(t)
	channel := "test:realtime:" + uuid.NewString()
	bus := NewRedisBus(rdb, channel, discardLogger())

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	received := make(chan Message, 1)
	go func() {
		_ = bus.Run(ctx, func(m Message) { received <- m })
	}()

	msg, err := NewMessage(UserChannel("alice"), "level_up", map[string]int{"level": 3})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		n, err := rdb.PubSubNumSub(ctx, channel).Result()
		return err == nil && n[channel] == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, bus.Publish(ctx, msg))

	select {
	case got := <-received:
		assert.Equal(t, "level_up", got.Type)
		assert.Equal(t, UserChannel("alice"), got.Channel)
	case <-time.After(2 * time.Second):
		t.Fatal("bus message not forwarded")
	}
}
