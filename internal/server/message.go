package server

import (
	"encoding/json"
	"time"

	"github.com/lox/carrombot/internal/events"
	"github.com/lox/carrombot/internal/game"
)

// MessageType names the payload carried by a Message
type MessageType string

// Server → Spectator messages
const (
	MessageTypeFrame         MessageType = "frame"
	MessageTypeEvent         MessageType = "event"
	MessageTypeMatchComplete MessageType = "match_complete"
)

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// FrameData is the payload of a frame message
type FrameData = game.Frame

// EventData is the payload of an event message
type EventData struct {
	Time     time.Time       `json:"time"`
	Severity events.Severity `json:"severity"`
	Message  string          `json:"message"`
}

// MatchCompleteData is the payload of a match_complete message
type MatchCompleteData = game.Result
