package models

import "time"

// Message is the canonical persisted record: id and timestamp are assigned
// by the store, never by the client.
type Message struct {
	ID        int64     `json:"id"`
	Room      string    `json:"room"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}
