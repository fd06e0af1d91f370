package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "List your chat rooms",
	Long: `List the chat rooms you participate in. A room is created when a
match becomes chat-eligible; use its id with 'talentline chat'.`,
	RunE: runRooms,
}

func runRooms(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	sess, err := sessions.Current(ctx)
	if err != nil {
		return fmt.Errorf("resolve session: %w", err)
	}

	rooms, err := apiClient.Rooms(ctx)
	if err != nil {
		return fmt.Errorf("list rooms: %w", err)
	}

	if len(rooms) == 0 {
		fmt.Println("No chat rooms yet.")
		return nil
	}

	fmt.Printf("Rooms (%d):\n\n", len(rooms))
	for _, room := range rooms {
		title := room.JobTitle
		if title == "" {
			title = fmt.Sprintf("match #%d", room.MatchID)
		}
		fmt.Printf("- #%d  %s  (with %s)\n", room.ID, title, room.Other(sess.UserID))
		if verbose {
			fmt.Printf("  match %d, created %s\n", room.MatchID, room.CreatedAt.Format("2006-01-02"))
		}
	}

	return nil
}
