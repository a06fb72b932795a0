// AngelaMos | 2026
// client.go

package realtime

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/coachforge/platform/internal/config"
)

const (
	ClientSubscribe   = "subscribe"
	ClientUnsubscribe = "unsubscribe"
	ClientPing        = "ping"

	ReplySubscribed   = "subscribed"
	ReplyUnsubscribed = "unsubscribed"
	ReplyPong         = "pong"
	ReplyError        = "error"
)

// ClientMessage is a frame sent by the browser.
type ClientMessage struct {
	Type    string `json:"type"`
	Channel string `json:"channel,omitempty"`
}

type errorData struct {
	Message string `json:"message"`
}

// Client is one WebSocket connection. channels is guarded by the hub lock.
type Client struct {
	ID     string
	UserID string

	conn     *websocket.Conn
	hub      *Hub
	cfg      config.RealtimeConfig
	logger   *slog.Logger
	send     chan Message
	done     chan struct{}
	once     sync.Once
	channels map[string]struct{}
}

func NewClient(
	hub *Hub,
	conn *websocket.Conn,
	userID string,
	cfg config.RealtimeConfig,
	logger *slog.Logger,
) *Client {
	id := uuid.New().String()
	return &Client{
		ID:       id,
		UserID:   userID,
		conn:     conn,
		hub:      hub,
		cfg:      cfg,
		logger:   logger.With("client_id", id, "user_id", userID),
		send:     make(chan Message, max(cfg.SendBuffer, 1)),
		done:     make(chan struct{}),
		channels: make(map[string]struct{}),
	}
}

// enqueue never blocks. The send channel is never closed, so a racing
// broadcast after close is harmless.
func (c *Client) enqueue(msg Message) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.once.Do(func() { close(c.done) })
}

// Done is closed once the client is removed from the hub.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Run pumps the connection until either side stops, then unregisters.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Remove(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseNoStatusReceived,
			) {
				c.logger.Debug("websocket read failed", "error", err)
			}
			return
		}

		_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongTimeout))
		c.handle(raw)
	}
}

func (c *Client) handle(raw []byte) {
	var in ClientMessage
	if err := json.Unmarshal(raw, &in); err != nil {
		c.reply(ReplyError, "", errorData{Message: "invalid message"})
		return
	}

	switch in.Type {
	case ClientPing:
		c.reply(ReplyPong, "", nil)
	case ClientSubscribe:
		if !c.hub.Subscribe(c, in.Channel) {
			c.reply(ReplyError, in.Channel, errorData{Message: "channel not allowed"})
			return
		}
		c.reply(ReplySubscribed, in.Channel, nil)
	case ClientUnsubscribe:
		c.hub.Unsubscribe(c, in.Channel)
		c.reply(ReplyUnsubscribed, in.Channel, nil)
	default:
		c.reply(ReplyError, "", errorData{Message: "unknown message type"})
	}
}

func (c *Client) reply(msgType, channel string, data any) {
	msg, err := NewMessage(channel, msgType, data)
	if err != nil {
		return
	}
	if !c.enqueue(msg) {
		c.logger.Debug("reply dropped", "type", msgType)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.cfg.WriteTimeout),
			)
			return

		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.conn.WriteJSON(msg); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					c.logger.Debug("websocket write failed", "error", err)
				}
				c.hub.Remove(c)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.Remove(c)
				return
			}
		}
	}
}
