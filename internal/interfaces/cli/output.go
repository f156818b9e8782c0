package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// emit prints v as indented JSON when --json is set, otherwise the text from render.
func emit(cmd *cobra.Command, opts *rootOptions, v any, render func() string) error {
	out := cmd.OutOrStdout()
	if opts.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(out, render())
	return err
}
