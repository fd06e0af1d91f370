package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nwerner/talentline/internal/chat"
)

var sendRest bool

var sendCmd = &cobra.Command{
	Use:   "send <room-id> <message>",
	Short: "Send a single chat message",
	Long: `Send one message to a room and wait for the delivery
acknowledgment. Intended for scripting; use 'talentline chat' for an
interactive session.

Examples:
  talentline send 42 "Thanks, talk tomorrow!"
  talentline send 42 --rest "Sent over plain HTTP"`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().BoolVar(&sendRest, "rest", false, "send via the HTTP API instead of the socket")
}

func runSend(cmd *cobra.Command, args []string) error {
	roomID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid room id %q", args[0])
	}
	body := strings.Join(args[1:], " ")

	ctx := context.Background()

	if sendRest {
		msg, err := apiClient.PostMessage(ctx, roomID, body)
		if err != nil {
			return fmt.Errorf("send message: %w", err)
		}
		fmt.Printf("Delivered as message #%d\n", msg.ID)
		return nil
	}

	sess, err := sessions.Current(ctx)
	if err != nil {
		return fmt.Errorf("resolve session: %w", err)
	}
	if !sess.Authenticated {
		return errors.New("not authenticated; set TALENTLINE_TOKEN")
	}

	conn := chat.New(chat.Config{
		Endpoint:   cfg.WSURL,
		UserID:     sess.UserID,
		AckTimeout: cfg.AckTimeout,
		Logger:     logger,
		Metrics:    collector,
	})
	defer conn.Close()

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	conn.Start(connCtx)

	if err := conn.Join(roomID); err != nil {
		return fmt.Errorf("join room %d: %w", roomID, err)
	}

	msgID, err := conn.Send(ctx, roomID, body)
	if errors.Is(err, chat.ErrSendTimeout) {
		return fmt.Errorf("message not acknowledged; it may not have been delivered. Retry, or use --rest")
	}
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	_ = conn.Leave(roomID)
	fmt.Printf("Delivered as message #%d\n", msgID)
	return nil
}
