package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/nwerner/talentline/internal/cache"
	"github.com/nwerner/talentline/internal/chat"
	"github.com/nwerner/talentline/internal/models"
	"github.com/nwerner/talentline/internal/notify"
)

var chatCmd = &cobra.Command{
	Use:   "chat <room-id>",
	Short: "Open an interactive chat session",
	Long: `Open a room in an interactive terminal session. Messages from
the other participant appear as they arrive, Enter sends, Esc leaves.

The connection survives network drops: it reconnects with backoff,
rejoins the room and flushes anything typed while offline.`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	roomID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid room id %q", args[0])
	}

	ctx := context.Background()

	sess, err := sessions.Current(ctx)
	if err != nil {
		return fmt.Errorf("resolve session: %w", err)
	}
	if !sess.Authenticated {
		return errors.New("not authenticated; set TALENTLINE_TOKEN")
	}

	rooms, err := apiClient.Rooms(ctx)
	if err != nil {
		return fmt.Errorf("list rooms: %w", err)
	}
	var room *models.ChatRoom
	for i := range rooms {
		if rooms[i].ID == roomID {
			room = &rooms[i]
			break
		}
	}
	if room == nil {
		return fmt.Errorf("room #%d not found; run 'talentline rooms'", roomID)
	}

	store, err := cache.New(cache.DefaultSize)
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}
	dispatcher := chat.NewDispatcher(store, logger)

	conn := chat.New(chat.Config{
		Endpoint:   cfg.WSURL,
		UserID:     sess.UserID,
		AckTimeout: cfg.AckTimeout,
		Logger:     logger,
		Metrics:    collector,
		Dispatcher: dispatcher,
	})
	defer conn.Close()

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	conn.Start(connCtx)

	if err := conn.Join(roomID); err != nil {
		return fmt.Errorf("join room %d: %w", roomID, err)
	}

	poller := notify.NewPoller(apiClient, cfg.PollInterval, logger)
	poller.Start()
	defer poller.Stop()

	model := newChatModel(apiClient, store, conn, poller, dispatcher, *room, sess.UserID)
	p := tea.NewProgram(model)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat UI error: %w", err)
	}

	_ = conn.Leave(roomID)
	if err := conn.Close(); err != nil {
		logger.Warn("closing connection", "error", err)
	}

	logSessionStats(roomID)
	return nil
}

// logSessionStats writes a summary of the finished session to the log.
func logSessionStats(roomID int64) {
	snap := collector.Snapshot()

	attrs := []any{
		"room_id", roomID,
		"uptime_s", snap.UptimeSeconds,
		"frames_in", snap.FramesIn,
		"frames_out", snap.FramesOut,
		"reconnects", snap.Reconnects,
		"dropped", snap.Dropped,
	}
	if snap.SendAck != nil {
		attrs = append(attrs, "sends", snap.SendAck.Count, "avg_ack_ms", snap.SendAck.AvgTimeMs)
	}
	if snap.APIRequest != nil {
		attrs = append(attrs, "api_requests", snap.APIRequest.Count)
	}

	logger.Info("chat session finished", attrs...)
}
