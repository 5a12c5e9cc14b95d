package options

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// OutputOptions
type OutputOptions struct {
	Format string
}

// Output formats understood by Print.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

func AddOutputArg(cmd *cobra.Command, o *OutputOptions, def string) {
	cmd.Flags().StringVarP(&o.Format, "output", "o", def,
		"Output format. One of 'text', 'json' or 'yaml'.")
}

// Validate rejects unknown formats before any work is done.
func (o *OutputOptions) Validate() error {
	switch o.Format {
	case OutputText, OutputJSON, OutputYAML:
		return nil
	}
	return fmt.Errorf("unknown output format %q", o.Format)
}

// Structured reports whether Print should be used instead of text output.
func (o *OutputOptions) Structured() bool {
	return o.Format == OutputJSON || o.Format == OutputYAML
}

// Print writes v as JSON or YAML.
func (o *OutputOptions) Print(w io.Writer, v interface{}) error {
	switch o.Format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("format %q is not structured", o.Format)
}
