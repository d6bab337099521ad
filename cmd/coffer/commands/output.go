package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// printJSON renders v as indented JSON on stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printDocument prints stored document bytes: untouched under --json,
// re-indented for human output.
func printDocument(doc []byte) error {
	if jsonOutput {
		fmt.Println(string(doc))
		return nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, doc, "", "  "); err != nil {
		fmt.Println(string(doc))
		return nil
	}
	fmt.Println(buf.String())
	return nil
}
