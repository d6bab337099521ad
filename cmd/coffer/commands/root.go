package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath   string
	databaseName string
	verbose      bool
	jsonOutput   bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "coffer",
		Short: "CofferDB - Resilient document store host",
		Long: `Coffer drives a CofferDB storage engine through a connection lifecycle
manager that survives environment resets: when the engine silently drops
its handles, operations revalidate and recreate connections transparently
instead of failing.

Features:
  - Document CRUD over logical database names
  - Automatic liveness probing and connection recreation
  - Hot-swappable engine binary with rebinding
  - SQLite catalog of databases and lifecycle events
  - Structured logging, metrics, and tracing`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVarP(&databaseName, "database", "d", "", "logical database name (defaults to the most recently used)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newPutCommand())
	rootCmd.AddCommand(newGetCommand())
	rootCmd.AddCommand(newDeleteCommand())
	rootCmd.AddCommand(newClearCommand())
	rootCmd.AddCommand(newDumpCommand())
	rootCmd.AddCommand(newStatusCommand())
	rootCmd.AddCommand(newCatalogCommand())

	return rootCmd
}
