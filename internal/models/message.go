package models

import "time"

// Message is a single chat message within a room. Messages are
// append-only; ids and timestamps are assigned by the server and the
// server's ordering is authoritative (the client never reorders).
type Message struct {
	ID        int64     `json:"id"`
	RoomID    int64     `json:"room_id"`
	SenderID  string    `json:"sender_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}
