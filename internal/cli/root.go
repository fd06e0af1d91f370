// Package cli provides the command-line interface for talentline.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nwerner/talentline/internal/api"
	"github.com/nwerner/talentline/internal/config"
	"github.com/nwerner/talentline/internal/metrics"
	"github.com/nwerner/talentline/internal/session"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config and clients
	cfg        config.Config
	logger     *slog.Logger
	logCleanup func() error
	collector  *metrics.Collector
	apiClient  *api.Client
	sessions   *session.Provider
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "talentline",
	Short: "Terminal client for the Talentline recruiting marketplace",
	Long: `Talentline is the terminal client for the Talentline recruiting
marketplace: chat with your matches in real time, keep an eye on
notifications, and track agent-submitted applications.

All persistence and matching lives on the server; this client talks to
the Talentline HTTP API and WebSocket endpoint.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip setup for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()

		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}
		logger, logCleanup = config.SetupLogger(cfg.LogFile, level)

		collector = metrics.NewCollector()
		apiClient = api.New(api.Config{
			BaseURL: cfg.APIURL,
			Token:   cfg.Token,
			Timeout: cfg.RequestTimeout,
			Metrics: collector,
		})
		sessions = session.NewProvider(apiClient)

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			if err := logCleanup(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(roomsCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(notificationsCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(whoamiCmd)
}
