package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/openfroyo/configglue/pkg/contrib"
	"github.com/openfroyo/configglue/pkg/schema"
)

func newSchemaCommand() *cobra.Command {
	var listContrib bool

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the merged schema as a YAML descriptor",
		Example: `  configglue schema --schema app.yaml --contrib statsd
  configglue schema --list-contrib`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if listContrib {
				for _, name := range contrib.Names() {
					fmt.Fprintln(out, name)
				}
				return nil
			}

			s, err := loadSchema()
			if err != nil {
				return fmt.Errorf("failed to load schema: %w", err)
			}
			d := schema.Describe(s)
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(d)
			}
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(d); err != nil {
				return err
			}
			return enc.Close()
		},
	}

	cmd.Flags().BoolVar(&listContrib, "list-contrib", false, "list the available contrib schemas")

	return cmd
}
