// Package chat implements the real-time delivery path: one supervised
// WebSocket connection, room membership multiplexed over it, a frame
// dispatcher that drives cache invalidation, and an acknowledged
// outbound send path.
package chat

import "encoding/json"

// Kind discriminates every frame crossing the socket. One tagged union
// for both directions; there is deliberately no separate outbound alias
// for a message frame.
type Kind string

const (
	// Outbound kinds.
	KindJoin  Kind = "join"
	KindLeave Kind = "leave"
	KindSend  Kind = "send"

	// Inbound kinds.
	KindNewMessage Kind = "new_message"
	KindDelivered  Kind = "delivered"
)

// Frame is one discrete message on the connection. Fields beyond Kind
// are populated per kind; unused fields are omitted on the wire.
type Frame struct {
	Kind      Kind   `json:"kind"`
	RoomID    int64  `json:"room_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	SenderID  string `json:"sender_id,omitempty"`
	TempID    string `json:"temp_id,omitempty"`
	MessageID int64  `json:"message_id,omitempty"`
	Body      string `json:"body,omitempty"`
}

// Known reports whether the kind is one this client understands.
// Unrecognized kinds are dropped by the dispatcher, not treated as
// errors, so newer servers can add frame types freely.
func (k Kind) Known() bool {
	switch k {
	case KindJoin, KindLeave, KindSend, KindNewMessage, KindDelivered:
		return true
	}
	return false
}

// DecodeFrame parses a raw frame. A decode error means the payload was
// not valid JSON for a frame at all; an unknown kind is not an error.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// JoinFrame builds the membership frame for a room.
func JoinFrame(roomID int64, userID string) Frame {
	return Frame{Kind: KindJoin, RoomID: roomID, UserID: userID}
}

// LeaveFrame builds the membership teardown frame for a room.
func LeaveFrame(roomID int64) Frame {
	return Frame{Kind: KindLeave, RoomID: roomID}
}
