package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a document by id",
		Long: `Delete the document with the given id.

Deleting an id that is already absent is a success: the goal state is
"document gone" either way.`,
		Example: `  # Delete a document
  coffer delete -d users u-1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			r, err := openRuntime(ctx)
			if err != nil {
				return err
			}
			defer r.Close(ctx)

			st, err := r.openStore()
			if err != nil {
				return err
			}

			if err := st.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted %q from %q\n", args[0], st.Name())
			return nil
		},
	}

	return cmd
}
