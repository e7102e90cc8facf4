// Package cli provides the command-line interface for drivedeck.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/drivedeck/drivedeck/internal/logging"
)

var (
	// Global flags
	cfgFile  string
	apiURL   string
	apiToken string
	verbose  bool

	// Global logger
	logger *logging.Logger
)

// Version information - set by main package at startup.
var (
	Version   = "v1.0.0-dev"
	BuildTime = "unknown"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "drivedeck",
		Short: "DriveDeck - admin console for the file platform",
		Long: `DriveDeck ` + Version + ` - Built: ` + BuildTime + `
Admin console for the file platform: browse folders, upload files,
manage trash, users, groups, and permissions.

When the platform is unreachable, uploads land in a local fallback
store (see 'drivedeck config').`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewDefaultLogger()
			if verbose {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Platform base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", "", "Bearer token (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")

	rootCmd.Version = Version + " (" + BuildTime + ")"

	rootCmd.AddCommand(
		newLoginCmd(),
		newLsCmd(),
		newTreeCmd(),
		newUploadCmd(),
		newTrashCmd(),
		newUsersCmd(),
		newGroupsCmd(),
		newPermsCmd(),
		newConfigCmd(),
	)

	return rootCmd
}

// Execute runs the CLI with signal-aware cancellation.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
