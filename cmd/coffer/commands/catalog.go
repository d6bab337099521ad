package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCatalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the database catalog",
		Long: `Inspect the SQLite catalog that records known databases and their
lifecycle events. The catalog must be enabled in configuration.`,
	}

	cmd.AddCommand(newCatalogListCommand())
	cmd.AddCommand(newCatalogEventsCommand())

	return cmd
}

func newCatalogListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List known databases",
		Long: `List every database the catalog has seen, with its status, connection
generation, and timestamps. Unlike the in-process connection pool, the
catalog survives restarts.`,
		Example: `  # List databases
  coffer catalog list

  # Machine-readable listing
  coffer catalog list --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			r, err := openRuntime(ctx)
			if err != nil {
				return err
			}
			defer r.Close(ctx)

			if r.catalog == nil {
				return fmt.Errorf("catalog is disabled; enable it in configuration first")
			}

			databases, err := r.catalog.ListDatabases(ctx)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(databases)
			}
			if len(databases) == 0 {
				fmt.Println("No databases recorded")
				return nil
			}
			fmt.Printf("%-20s %-8s %-11s %-20s %s\n", "NAME", "STATUS", "GENERATION", "OPENED", "PATH")
			for _, db := range databases {
				fmt.Printf("%-20s %-8s %-11d %-20s %s\n",
					db.Name, db.Status, db.Generation, db.OpenedAt.Format("2006-01-02 15:04:05"), db.Path)
			}
			return nil
		},
	}

	return cmd
}

func newCatalogEventsCommand() *cobra.Command {
	var (
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List lifecycle events",
		Long: `List recorded lifecycle events, newest first: created, recreated,
suspect, invalidated, evicted, closed. The --database flag narrows the
listing to one database.`,
		Example: `  # Last 20 events across all databases
  coffer catalog events

  # Events for one database
  coffer catalog events -d users --limit 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			r, err := openRuntime(ctx)
			if err != nil {
				return err
			}
			defer r.Close(ctx)

			if r.catalog == nil {
				return fmt.Errorf("catalog is disabled; enable it in configuration first")
			}

			var filter *string
			if databaseName != "" {
				filter = &databaseName
			}
			events, err := r.catalog.ListEvents(ctx, filter, limit, offset)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(events)
			}
			if len(events) == 0 {
				fmt.Println("No events recorded")
				return nil
			}
			fmt.Printf("%-20s %-20s %-13s %s\n", "TIME", "DATABASE", "EVENT", "DETAIL")
			for _, ev := range events {
				detail := ""
				if ev.Detail != nil {
					detail = *ev.Detail
				}
				fmt.Printf("%-20s %-20s %-13s %s\n",
					ev.Timestamp.Format("2006-01-02 15:04:05"), ev.Database, ev.Event, detail)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of events")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of events to skip")

	return cmd
}
