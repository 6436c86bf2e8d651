package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

type validationOutput struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

func newValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [-- overrides...]",
		Short: "Validate configuration files against the schema",
		Long: `Validate configuration files against the schema.

This command checks:
  - Every option value parses with its declared type
  - Sections referenced by dict options exist
  - No section or option is missing from the schema
  - Fatal options are present`,
		Example: `  # Validate a file against a schema
  configglue validate --schema app.yaml -c app.cfg

  # Validate with a command line override
  configglue validate --schema app.yaml -c app.cfg -- --db_port 5433`,
		Args: positionalArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(cmd, args)
			if err != nil {
				return err
			}
			defer sess.close()

			valid, reasons := sess.parser.ValidationReport()
			zl := sess.logger().Zerolog()
			zl.Info().
				Strs("files", configPaths).
				Bool("valid", valid).
				Int("errors", len(reasons)).
				Msg("Validated configuration")

			out := cmd.OutOrStdout()
			if jsonOutput {
				if reasons == nil {
					reasons = []string{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(validationOutput{Valid: valid, Errors: reasons}); err != nil {
					return err
				}
			} else if valid {
				fmt.Fprintln(out, "configuration is valid")
			} else {
				for _, reason := range reasons {
					fmt.Fprintln(out, reason)
				}
			}

			if !valid {
				return fmt.Errorf("configuration is invalid: %d error(s)", len(reasons))
			}
			return nil
		},
	}
	return cmd
}
