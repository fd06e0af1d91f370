package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var tasksApplicationID int64

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Show agent task status for an application",
	Long: `Show the server-side agent tasks tracking an application
submission. Tasks are read-only; cancel or retry from the web app.

Example:
  talentline tasks --application 31`,
	RunE: runTasks,
}

func init() {
	tasksCmd.Flags().Int64VarP(&tasksApplicationID, "application", "a", 0, "application id (required)")
	_ = tasksCmd.MarkFlagRequired("application")
}

func runTasks(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	tasks, err := apiClient.AgentTasks(ctx, tasksApplicationID)
	if err != nil {
		return fmt.Errorf("list agent tasks: %w", err)
	}

	if len(tasks) == 0 {
		fmt.Printf("No agent tasks for application #%d.\n", tasksApplicationID)
		return nil
	}

	fmt.Printf("Agent tasks for application #%d:\n\n", tasksApplicationID)
	for _, task := range tasks {
		fmt.Printf("- #%d  %s", task.ID, task.Status)
		if task.Status.Terminal() {
			fmt.Printf("  (final)")
		}
		fmt.Println()
		if task.LastError != nil && *task.LastError != "" {
			fmt.Printf("  last error: %s\n", *task.LastError)
		}
	}

	return nil
}
