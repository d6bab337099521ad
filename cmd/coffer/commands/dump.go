package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newDumpCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print every document in a database",
		Long: `Print every document in the database as a JSON array, ordered by id.

--json emits a compact single-line array for piping into other tools.`,
		Example: `  # Dump a database
  coffer dump -d users

  # Pipe the compact form into jq
  coffer dump -d users --json | jq -r '.[].id'`,
		Args: cobra.NoArgs,
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

			docs, err := st.GetAll(ctx)
			if err != nil {
				return err
			}

			if jsonOutput {
				data, err := json.Marshal(docs)
				if err != nil {
					return fmt.Errorf("failed to encode documents: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}
			return printJSON(docs)
		},
	}

	return cmd
}
