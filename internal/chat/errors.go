package chat

import "errors"

var (
	// ErrEmptyBody is returned when a message is empty after trimming
	// whitespace. Rejected before any frame is written.
	ErrEmptyBody = errors.New("message body is empty")

	// ErrSendTimeout is returned when no delivery acknowledgment arrived
	// in time. The message may or may not have been persisted; the
	// caller should offer a retry.
	ErrSendTimeout = errors.New("no delivery acknowledgment before timeout")

	// ErrClosed is returned for operations on a connection after Close.
	ErrClosed = errors.New("connection closed")
)
