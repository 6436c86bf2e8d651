package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newGetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <section.option> [-- overrides...]",
		Short: "Print the resolved value of an option",
		Example: `  configglue get --schema app.yaml -c app.cfg db.port
  configglue get --schema app.yaml -c app.cfg --json db.hosts`,
		Args: positionalArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(cmd, args)
			if err != nil {
				return err
			}
			defer sess.close()

			section, option := splitKey(sess.args[0])
			out := cmd.OutOrStdout()
			if jsonOutput {
				v, err := sess.parser.Get(section, option)
				if err != nil {
					return err
				}
				return json.NewEncoder(out).Encode(v)
			}

			v, err := sess.parser.Value(section, option)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, v)
			return nil
		},
	}
	return cmd
}
