// AngelaMos | 2026
// message.go

// Package realtime pushes notifications to connected WebSocket clients and
// fans them out across instances over Redis pub/sub.
package realtime

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	ChannelLeaderboard = "leaderboard"
	userChannelPrefix  = "user:"
)

func UserChannel(userID string) string {
	return userChannelPrefix + userID
}

// Message is the frame sent to clients and carried on the bus.
type Message struct {
	Type    string          `json:"type"`
	Channel string          `json:"channel,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	At      time.Time       `json:"at"`
}

func NewMessage(channel, msgType string, data any) (Message, error) {
	msg := Message{Type: msgType, Channel: channel, At: time.Now().UTC()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Message{}, fmt.Errorf("encode %s message: %w", msgType, err)
		}
		msg.Data = raw
	}
	return msg, nil
}
