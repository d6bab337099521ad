package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newClearCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every document in a database",
		Long: `Delete every document in the database. This cannot be undone, so the
command refuses to run without --force.`,
		Example: `  # Clear a database
  coffer clear -d users --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if !force {
				return fmt.Errorf("refusing to clear without --force")
			}

			r, err := openRuntime(ctx)
			if err != nil {
				return err
			}
			defer r.Close(ctx)

			st, err := r.openStore()
			if err != nil {
				return err
			}

			if err := st.Clear(ctx); err != nil {
				return err
			}
			fmt.Printf("Cleared database %q\n", st.Name())
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "confirm deleting every document")

	return cmd
}
