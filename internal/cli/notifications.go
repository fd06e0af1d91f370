package cli

import (
	"context"
	"fmt"
	"os/signal"
	"sort"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nwerner/talentline/internal/cache"
	"github.com/nwerner/talentline/internal/models"
	"github.com/nwerner/talentline/internal/notify"
)

var (
	notifUnread bool
	notifWatch  bool
)

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "List notifications and manage read state",
	Long: `List in-app notifications.

Subcommands:
  read <id>   Mark one notification read
  read-all    Mark every notification read

Examples:
  talentline notifications
  talentline notifications --unread
  talentline notifications --watch
  talentline notifications read 17
  talentline notifications read-all`,
	RunE: runNotifications,
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read <id>",
	Short: "Mark one notification read",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotificationsRead,
}

var notificationsReadAllCmd = &cobra.Command{
	Use:   "read-all",
	Short: "Mark every notification read",
	RunE:  runNotificationsReadAll,
}

func init() {
	notificationsCmd.Flags().BoolVarP(&notifUnread, "unread", "u", false, "unread only")
	notificationsCmd.Flags().BoolVarP(&notifWatch, "watch", "w", false, "poll the unread count and print changes")

	notificationsCmd.AddCommand(notificationsReadCmd)
	notificationsCmd.AddCommand(notificationsReadAllCmd)
}

func runNotifications(cmd *cobra.Command, args []string) error {
	if notifWatch {
		return watchNotifications()
	}

	ctx := context.Background()
	list, err := apiClient.Notifications(ctx, notifUnread)
	if err != nil {
		return fmt.Errorf("list notifications: %w", err)
	}

	if len(list) == 0 {
		fmt.Println("No notifications.")
		return nil
	}

	// Urgent first; the server already orders by recency within a
	// priority.
	sort.SliceStable(list, func(i, j int) bool {
		return priorityRank(list[i].Priority) < priorityRank(list[j].Priority)
	})

	fmt.Printf("Notifications (%d):\n\n", len(list))
	for _, n := range list {
		marker := " "
		if !n.Read {
			marker = "*"
		}
		fmt.Printf("%s #%-4d [%s] %s\n", marker, n.ID, n.Priority, n.Title)
		if verbose {
			fmt.Printf("    %s (%s, %s)\n", n.Message, n.RelatedLabel(), n.CreatedAt.Format("2006-01-02 15:04"))
		}
	}

	return nil
}

// watchNotifications runs the poller in the foreground until interrupted,
// printing the badge whenever the unread count changes.
func watchNotifications() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	poller := notify.NewPoller(apiClient, cfg.PollInterval, logger)
	poller.Start()
	defer poller.Stop()

	fmt.Println("Watching unread notifications (Ctrl+C to stop)...")
	last := -1
	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		case count := <-poller.Updates():
			if count == last {
				continue
			}
			last = count
			badge := notify.FormatBadge(count)
			if badge == "" {
				badge = "none"
			}
			fmt.Printf("unread: %s\n", badge)
		}
	}
}

func newReconciler() *notify.Reconciler {
	// One-shot commands still route through the reconciler so the
	// invalidation order matches the interactive surfaces.
	var inv notify.Invalidator = noopInvalidator{}
	if qc, err := cache.New(cache.DefaultSize); err == nil {
		inv = qc
	}
	return notify.NewReconciler(apiClient, inv)
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(string) {}

func runNotificationsRead(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid notification id %q", args[0])
	}

	if err := newReconciler().MarkRead(context.Background(), id); err != nil {
		return err
	}
	fmt.Printf("Notification #%d marked read.\n", id)
	return nil
}

func runNotificationsReadAll(cmd *cobra.Command, args []string) error {
	if err := newReconciler().MarkAllRead(context.Background()); err != nil {
		return err
	}
	fmt.Println("All notifications marked read.")
	return nil
}

// priorityRank orders priorities for display sorting, urgent first.
func priorityRank(p models.Priority) int {
	switch p {
	case models.PriorityUrgent:
		return 0
	case models.PriorityHigh:
		return 1
	case models.PriorityMedium:
		return 2
	case models.PriorityLow:
		return 3
	}
	return 4
}
