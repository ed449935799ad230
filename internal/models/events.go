package models

import (
	"encoding/json"
	"time"
)

// Event names on the websocket wire.
const (
	EventSendMessage    = "send_message"
	EventJoinRoom       = "join_room"
	EventTyping         = "typing"
	EventStopTyping     = "stop_typing"
	EventRoomUsers      = "room_users"
	EventReceiveMessage = "receive_message"
)

// Event is the envelope for every inbound and outbound websocket frame.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type SendMessagePayload struct {
	Text string `json:"text"`
}

type JoinRoomPayload struct {
	Room string `json:"room"`
}

type TypingPayload struct {
	Room     string `json:"room"`
	Username string `json:"username,omitempty"`
}

// ReceiveMessagePayload is the canonical record broadcast to a room after a
// message has been persisted.
type ReceiveMessagePayload struct {
	ID        int64  `json:"id"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// NewEvent marshals payload into an envelope ready for the wire.
func NewEvent(name string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Event{Event: name, Data: data})
}

// MessageEvent builds the receive_message broadcast for a persisted message.
func MessageEvent(msg *Message) ([]byte, error) {
	return NewEvent(EventReceiveMessage, ReceiveMessagePayload{
		ID:        msg.ID,
		Sender:    msg.Username,
		Text:      msg.Content,
		Timestamp: msg.Timestamp.Format(time.RFC3339),
	})
}

// RoomUsersEvent builds the full-membership presence snapshot broadcast.
func RoomUsersEvent(usernames []string) ([]byte, error) {
	return NewEvent(EventRoomUsers, usernames)
}
