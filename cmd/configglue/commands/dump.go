package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newDumpCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "dump [-- overrides...]",
		Short: "Print the resolved configuration",
		Long: `Print the resolved configuration.

The ini format writes the merged files with missing options filled in
from their defaults. The json and yaml formats print the typed value of
every schema option, keyed by section.`,
		Example: `  configglue dump --schema app.yaml -c app.cfg
  configglue dump --schema app.yaml -c app.cfg --format yaml`,
		Args: positionalArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if jsonOutput {
				format = "json"
			}
			sess, err := newSession(cmd, args)
			if err != nil {
				return err
			}
			defer sess.close()

			out := cmd.OutOrStdout()
			switch format {
			case "ini":
				return sess.parser.Write(out)
			case "json", "yaml":
				values, err := sess.parser.Values()
				if err != nil {
					return err
				}
				if format == "json" {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(values)
				}
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(values); err != nil {
					return err
				}
				return enc.Close()
			default:
				return fmt.Errorf("unsupported format %q (must be ini, json or yaml)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "ini", "output format (ini, json, yaml)")

	return cmd
}
