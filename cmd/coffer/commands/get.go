package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Fetch a document by id",
		Long: `Fetch a single document by id and print it.

Human output pretty-prints the document; --json prints the stored bytes
untouched. A missing id exits with an error so scripts can branch on the
exit code.`,
		Example: `  # Fetch a document
  coffer get -d users u-1

  # Fetch the raw stored bytes
  coffer get -d users --json u-1`,
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

			doc, found, err := st.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("document %q not found in database %q", args[0], st.Name())
			}
			return printDocument(doc)
		},
	}

	return cmd
}
