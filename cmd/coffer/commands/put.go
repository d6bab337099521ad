package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newPutCommand() *cobra.Command {
	var fromFile string

	cmd := &cobra.Command{
		Use:   "put [document]",
		Short: "Store a JSON document",
		Long: `Store a JSON document, creating it or replacing the document that
shares its id.

The document must be a JSON object with a non-empty string "id" field of
at most 255 bytes. Pass it inline as the single argument, or use --file
to read it from disk (use - for stdin). A file holding a JSON array is
stored as a batch: every document is validated before any of them is
written.`,
		Example: `  # Store a document inline
  coffer put -d users '{"id": "u-1", "name": "Ada"}'

  # Store a document from a file
  coffer put -d users --file user.json

  # Store a batch from stdin
  cat users.json | coffer put -d users --file -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			doc, err := readDocumentArg(args, fromFile)
			if err != nil {
				return err
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

			if batch, ok := splitBatch(doc); ok {
				if err := st.PutAll(ctx, batch); err != nil {
					return err
				}
				fmt.Printf("Stored %d documents in %q\n", len(batch), st.Name())
				return nil
			}

			if err := st.Put(ctx, doc); err != nil {
				return err
			}
			fmt.Printf("Stored document in %q\n", st.Name())
			return nil
		},
	}

	cmd.Flags().StringVarP(&fromFile, "file", "f", "", "read the document from a file (- for stdin)")

	return cmd
}

// readDocumentArg resolves the document bytes from the positional argument
// or the --file flag; exactly one of the two must be given.
func readDocumentArg(args []string, fromFile string) ([]byte, error) {
	switch {
	case fromFile != "" && len(args) > 0:
		return nil, fmt.Errorf("pass the document inline or via --file, not both")
	case fromFile == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read document from stdin: %w", err)
		}
		return data, nil
	case fromFile != "":
		data, err := os.ReadFile(fromFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read document file: %w", err)
		}
		return data, nil
	case len(args) == 1:
		return []byte(args[0]), nil
	default:
		return nil, fmt.Errorf("no document given")
	}
}

// splitBatch reports whether raw holds a JSON array and splits it into
// its elements when it does. Anything else falls through to single-put,
// whose validation produces the better error message.
func splitBatch(raw []byte) ([][]byte, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	var docs []json.RawMessage
	if err := json.Unmarshal(trimmed, &docs); err != nil {
		return nil, false
	}
	batch := make([][]byte, len(docs))
	for i, d := range docs {
		batch[i] = []byte(d)
	}
	return batch, true
}
