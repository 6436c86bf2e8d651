package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	schemaPaths  []string
	contribNames []string
	configPaths  []string
	verbose      bool
	jsonOutput   bool
	metricsFile  string
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

// LogLevel maps a LOG_LEVEL value to a zerolog level, defaulting to info.
func LogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "configglue",
		Short: "configglue - schema-driven INI configuration",
		Long: `configglue resolves layered INI configuration files against a schema.

Features:
  - Typed options (bool, int, string, tuple, list, dict)
  - Included files and %(name)s interpolation
  - $NAME and ${NAME:-default} environment interpolation
  - Command line and CONFIGGLUE_* environment overrides
  - Validation and provenance-aware saving`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringArrayVar(&schemaPaths, "schema", nil, "YAML schema descriptor (repeatable)")
	rootCmd.PersistentFlags().StringArrayVar(&contribNames, "contrib", nil, "contrib schema to merge in (repeatable)")
	rootCmd.PersistentFlags().StringArrayVarP(&configPaths, "config", "c", nil, "INI configuration file (repeatable)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file")

	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newGetCommand())
	rootCmd.AddCommand(newDumpCommand())
	rootCmd.AddCommand(newSetCommand())
	rootCmd.AddCommand(newLocateCommand())
	rootCmd.AddCommand(newSchemaCommand())

	return rootCmd
}
