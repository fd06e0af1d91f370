package chat

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nwerner/talentline/internal/metrics"
)

// Send transmits a message to a room and waits for the correlated
// delivery acknowledgment. Returns the server-assigned message id.
//
// An empty or whitespace-only body is rejected before anything touches
// the network. If no ack arrives within the configured timeout the send
// is reported failed (ErrSendTimeout) so the caller can retry; the
// composer must not be cleared on that path.
func (c *Conn) Send(ctx context.Context, roomID int64, body string) (int64, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return 0, ErrEmptyBody
	}

	tempID := uuid.NewString()
	ack := c.registerAck(tempID)
	defer c.releaseAck(tempID)

	start := time.Now()
	if err := c.writeFrame(Frame{
		Kind:     KindSend,
		RoomID:   roomID,
		SenderID: c.cfg.UserID,
		TempID:   tempID,
		Body:     body,
	}); err != nil {
		return 0, err
	}

	timer := time.NewTimer(c.cfg.AckTimeout)
	defer timer.Stop()

	select {
	case f := <-ack:
		c.metrics.RecordTiming(metrics.OpSendAck, time.Since(start))
		return f.MessageID, nil
	case <-timer.C:
		c.logger.Warn("send not acknowledged", "room_id", roomID, "temp_id", tempID)
		return 0, ErrSendTimeout
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-c.closed:
		return 0, ErrClosed
	}
}
