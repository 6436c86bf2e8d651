package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLocateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locate <option>",
		Short: "Print the file an option was last read from",
		Args:  positionalArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := newSession(cmd, args)
			if err != nil {
				return err
			}
			defer sess.close()

			_, option := splitKey(sess.args[0])
			location := sess.parser.Locate(option)
			if location == "" {
				return fmt.Errorf("option %s was not read from any file", option)
			}
			fmt.Fprintln(cmd.OutOrStdout(), location)
			return nil
		},
	}
	return cmd
}
