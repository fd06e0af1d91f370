package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	RunE:  runWhoami,
}

func runWhoami(cmd *cobra.Command, args []string) error {
	sess, err := sessions.Current(context.Background())
	if err != nil {
		return fmt.Errorf("resolve session: %w", err)
	}

	if !sess.Authenticated {
		fmt.Println("Not authenticated. Set TALENTLINE_TOKEN or add a token to your config file.")
		return nil
	}

	fmt.Printf("User: %s\nRole: %s\n", sess.UserID, sess.Role)
	return nil
}
