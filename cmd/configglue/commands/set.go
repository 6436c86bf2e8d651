package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSetCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "set <section.option> <value>",
		Short: "Change an option and save it back to its file",
		Long: `Change an option and save it back to the file it was read from.

Options that no file defines are saved to the last file read. With
--output the whole configuration is written to a new file instead.`,
		Example: `  configglue set --schema app.yaml -c app.cfg db.port 5433
  configglue set --schema app.yaml -c app.cfg --output merged.cfg db.port 5433`,
		Args: positionalArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(cmd, args)
			if err != nil {
				return err
			}
			defer sess.close()

			section, option := splitKey(sess.args[0])
			value, err := sess.parser.Parse(section, option, sess.args[1])
			if err != nil {
				return err
			}
			if err := sess.parser.Set(section, option, value); err != nil {
				return err
			}

			if output != "" {
				if err := sess.parser.SaveFile(output); err != nil {
					return fmt.Errorf("failed to write %s: %w", output, err)
				}
				sess.logger().WithFile(output).Info("Configuration written")
				return nil
			}
			return sess.parser.Save()
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the whole configuration to this file")

	return cmd
}
