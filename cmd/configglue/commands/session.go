package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/openfroyo/configglue/pkg/contrib"
	"github.com/openfroyo/configglue/pkg/glue"
	"github.com/openfroyo/configglue/pkg/parser"
	"github.com/openfroyo/configglue/pkg/schema"
	"github.com/openfroyo/configglue/pkg/telemetry"
)

// session is a loaded schema with its configuration files read and the
// command line overrides applied.
type session struct {
	ctx    context.Context
	schema *schema.Schema
	parser *parser.SchemaConfigParser
	args   []string
}

// loadSchema builds the schema from the --schema files and merges the
// --contrib schemas into it.
func loadSchema() (*schema.Schema, error) {
	if len(schemaPaths) == 0 && len(contribNames) == 0 {
		return nil, fmt.Errorf("at least one --schema or --contrib is required")
	}

	schemas := make([]*schema.Schema, 0, len(schemaPaths))
	for _, path := range schemaPaths {
		s, err := schema.LoadFile(path)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, s)
	}

	var (
		base *schema.Schema
		err  error
	)
	switch len(schemas) {
	case 0:
		base, err = schema.NewBuilder("configglue").Build()
	case 1:
		base = schemas[0]
	default:
		base, err = schema.Merge(schemas...)
	}
	if err != nil {
		return nil, err
	}

	if len(contribNames) > 0 {
		return contrib.Merge(base, contribNames...)
	}
	return base, nil
}

// newSession loads the schema and configuration for cmd. Arguments after
// "--" are parsed as option overrides such as --section_option value. The
// session telemetry is stored in the command context.
func newSession(cmd *cobra.Command, args []string) (*session, error) {
	s, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}

	cfg := telemetry.DefaultConfig()
	if verbose {
		cfg.Logging.Level = "debug"
	}
	cfg.Metrics.Enabled = metricsFile != ""
	cfg.Metrics.TextfilePath = metricsFile
	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	tel.Logger = tel.Logger.WithFields(map[string]interface{}{
		"command": cmd.Name(),
		"schema":  s.Name(),
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = tel.WithContext(ctx)
	cmd.SetContext(ctx)

	p, err := parser.New(s, parser.WithLogger(tel.Logger), parser.WithMetrics(tel.Metrics))
	if err != nil {
		return nil, err
	}
	read, err := p.Read(configPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	zl := tel.Logger.Zerolog()
	zl.Debug().Strs("files", read).Msg("Configuration read")

	positional, overrides := splitArgs(cmd, args)
	fs := pflag.NewFlagSet("overrides", pflag.ContinueOnError)
	fs.SetOutput(cmd.ErrOrStderr())
	if _, err := glue.SchemaConfigGlue(p, overrides,
		glue.WithFlagSet(fs), glue.WithLogger(tel.Logger)); err != nil {
		return nil, err
	}

	return &session{ctx: ctx, schema: s, parser: p, args: positional}, nil
}

func (s *session) logger() *telemetry.Logger {
	return telemetry.FromContext(s.ctx)
}

// close writes the collected metrics.
func (s *session) close() {
	tel := telemetry.FromTelemetryContext(s.ctx)
	if err := tel.Flush(); err != nil {
		tel.Logger.WithError(err).WithFile(metricsFile).Warn("Failed to write metrics")
	}
}

func splitArgs(cmd *cobra.Command, args []string) ([]string, []string) {
	dash := cmd.ArgsLenAtDash()
	if dash < 0 {
		return args, nil
	}
	return args[:dash], args[dash:]
}

// splitKey turns "section.option" into its parts. A key without a dot
// names an option of __main__.
func splitKey(key string) (string, string) {
	if i := strings.LastIndex(key, "."); i >= 0 {
		return key[:i], key[i+1:]
	}
	return schema.MainSection, key
}

// positionalArgs validates the arguments before "--".
func positionalArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		positional, _ := splitArgs(cmd, args)
		if len(positional) != n {
			return fmt.Errorf("accepts %d arg(s), received %d", n, len(positional))
		}
		return nil
	}
}
