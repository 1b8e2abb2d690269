// Package ws is the live-connection gateway: it upgrades client sessions,
// tracks their room membership, feeds typed client messages into the
// ingestion pipeline, and delivers broadcasts back over the socket.
package ws

import (
	"encoding/json"
	"fmt"

	"github.com/connectohq/connecto/internal/channel/live"
	"github.com/connectohq/connecto/internal/chat"
)

// Client-to-server and server-to-client event names.
const (
	EventJoin    = "join"
	EventJoined  = "joined"
	EventLeave   = "leave"
	EventMessage = "message"
	EventError   = "error"
)

// Frame is the wire envelope for both directions: a named event plus its
// JSON payload.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinPayload subscribes the connection to a thread.
type JoinPayload struct {
	ID int64 `json:"id"`
}

// ErrorPayload reports a failed client action.
type ErrorPayload struct {
	Message string `json:"message"`
}

// DecodeJoin parses a join or leave frame payload.
func DecodeJoin(frame Frame) (JoinPayload, error) {
	var p JoinPayload
	if err := json.Unmarshal(frame.Data, &p); err != nil {
		return JoinPayload{}, fmt.Errorf("decode %s payload: %w", frame.Event, err)
	}
	if p.ID <= 0 {
		return JoinPayload{}, fmt.Errorf("%s payload requires a thread id", frame.Event)
	}
	return p, nil
}

// DecodeMessage parses a client message frame payload.
func DecodeMessage(frame Frame) (live.Payload, error) {
	var p live.Payload
	if err := json.Unmarshal(frame.Data, &p); err != nil {
		return live.Payload{}, fmt.Errorf("decode message payload: %w", err)
	}
	return p, nil
}

// EncodeFrame marshals a server event.
func EncodeFrame(event string, payload any) (Frame, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return Frame{Event: event, Data: data}, nil
}

// MessageFrame builds the broadcast frame for a persisted message.
func MessageFrame(msg chat.Message) (Frame, error) {
	return EncodeFrame(EventMessage, msg)
}
