package glue

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/pflag"

	"github.com/openfroyo/configglue/pkg/parser"
	"github.com/openfroyo/configglue/pkg/schema"
	"github.com/openfroyo/configglue/pkg/telemetry"
)

// EnvPrefix prefixes the environment variables that override options.
const EnvPrefix = "CONFIGGLUE_"

// LongName returns the flag name of an option: the bare option name for
// __main__ options, section_option otherwise.
func LongName(opt schema.Option) string {
	if opt.Section() == schema.MainSection {
		return opt.Name()
	}
	return opt.Section() + "_" + opt.Name()
}

// EnvName returns the environment variable that overrides an option.
func EnvName(opt schema.Option) string {
	return EnvPrefix + strings.ToUpper(LongName(opt))
}

// Result is the outcome of gluing a parser to the command line.
type Result struct {
	Parser *parser.SchemaConfigParser
	Flags  *pflag.FlagSet
	// Args holds the positional arguments left after flag parsing.
	Args []string
}

type config struct {
	env        func(string) (string, bool)
	validate   bool
	flags      *pflag.FlagSet
	logger     *telemetry.Logger
	parserOpts []parser.Option
}

// Option configures the glue.
type Option func(*config)

// WithEnv sets the environment lookup used for CONFIGGLUE_ overrides. The
// default is os.LookupEnv.
func WithEnv(lookup func(string) (string, bool)) Option {
	return func(c *config) { c.env = lookup }
}

// WithValidation validates the configuration once overrides are applied.
func WithValidation() Option {
	return func(c *config) { c.validate = true }
}

// WithFlagSet registers the option flags on fs instead of a new flag set.
func WithFlagSet(fs *pflag.FlagSet) Option {
	return func(c *config) { c.flags = fs }
}

// WithLogger sets the logger used to report applied overrides.
func WithLogger(l *telemetry.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithParserOptions passes options to the parser created by Configglue.
func WithParserOptions(opts ...parser.Option) Option {
	return func(c *config) { c.parserOpts = append(c.parserOpts, opts...) }
}

func newConfig(opts []Option) *config {
	c := &config{env: os.LookupEnv, logger: telemetry.NewNopLogger()}
	for _, opt := range opts {
		opt(c)
	}
	if c.flags == nil {
		c.flags = pflag.NewFlagSet("configglue", pflag.ContinueOnError)
	}
	return c
}

// SchemaConfigGlue registers a flag for every schema option of p, parses
// argv and applies the overrides. A flag given on the command line wins
// over the CONFIGGLUE_ environment variable, which wins over the files
// already read into p.
func SchemaConfigGlue(p *parser.SchemaConfigParser, argv []string, opts ...Option) (*Result, error) {
	c := newConfig(opts)
	if err := Register(c.flags, p); err != nil {
		return nil, err
	}
	if err := c.flags.Parse(argv); err != nil {
		return nil, err
	}
	if err := apply(c, p); err != nil {
		return nil, err
	}

	result := &Result{Parser: p, Flags: c.flags, Args: c.flags.Args()}
	if c.validate || validateRequested(c.flags) {
		if err := p.Validate(); err != nil {
			return result, err
		}
	}
	return result, nil
}

// Configglue builds a parser for s, reads configs and glues it to argv.
func Configglue(s *schema.Schema, configs []string, argv []string, opts ...Option) (*Result, error) {
	c := newConfig(opts)
	p, err := parser.New(s, c.parserOpts...)
	if err != nil {
		return nil, err
	}
	if _, err := p.Read(configs...); err != nil {
		return nil, err
	}
	return SchemaConfigGlue(p, argv, opts...)
}

// validateRequested reports whether the schema declares a validate option
// that was set on the command line.
func validateRequested(fs *pflag.FlagSet) bool {
	f := fs.Lookup("validate")
	if f == nil || !f.Changed {
		return false
	}
	v, err := strconv.ParseBool(f.Value.String())
	return err == nil && v
}

// Register adds a flag for every schema option of p. Flag defaults show the
// values currently configured.
func Register(fs *pflag.FlagSet, p *parser.SchemaConfigParser) error {
	opts, _ := p.Schema().Options("")

	var result *multierror.Error
	names := make(map[string]string)
	shorts := make(map[string]string)
	for _, opt := range opts {
		name := LongName(opt)
		if prev, ok := names[name]; ok || fs.Lookup(name) != nil {
			if prev == "" {
				prev = "an existing flag"
			}
			result = multierror.Append(result, fmt.Errorf("option %s.%s conflicts with %s on flag --%s",
				opt.Section(), opt.Name(), prev, name))
		}
		names[name] = opt.Section() + "." + opt.Name()

		if short := opt.ShortName(); short != "" {
			if prev, ok := shorts[short]; ok || fs.ShorthandLookup(short) != nil {
				if prev == "" {
					prev = "an existing flag"
				}
				result = multierror.Append(result, fmt.Errorf("option %s.%s conflicts with %s on flag -%s",
					opt.Section(), opt.Name(), prev, short))
			}
			shorts[short] = opt.Section() + "." + opt.Name()
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return err
	}

	for _, opt := range opts {
		v := &optionValue{opt: opt, def: currentText(p, opt)}
		f := fs.VarPF(v, LongName(opt), opt.ShortName(), opt.Help())
		switch opt.Action() {
		case schema.ActionStoreTrue:
			f.NoOptDefVal = "true"
		case schema.ActionStoreFalse:
			f.NoOptDefVal = "false"
		}
	}
	return nil
}

func currentText(p *parser.SchemaConfigParser, opt schema.Option) string {
	v, err := p.Get(opt.Section(), opt.Name())
	if err != nil {
		return ""
	}
	s, err := opt.ToString(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

// Apply copies command line and environment overrides into p.
func Apply(fs *pflag.FlagSet, p *parser.SchemaConfigParser, opts ...Option) error {
	return apply(newConfig(append(opts, WithFlagSet(fs))), p)
}

func apply(c *config, p *parser.SchemaConfigParser) error {
	opts, _ := p.Schema().Options("")
	for _, opt := range opts {
		section, name := opt.Section(), opt.Name()
		log := c.logger.WithOption(section, name)

		if f := c.flags.Lookup(LongName(opt)); f != nil && f.Changed {
			v, ok := f.Value.(*optionValue)
			if !ok {
				continue
			}
			value, err := v.resolve(p)
			if err != nil {
				return fmt.Errorf("invalid value for --%s: %w", f.Name, err)
			}
			if err := p.Set(section, name, value); err != nil {
				return err
			}
			log.Debug("Applied command line override")
			continue
		}

		text, ok := c.env(EnvName(opt))
		if !ok {
			continue
		}
		value, err := p.Parse(section, name, text)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", EnvName(opt), err)
		}
		if err := p.Set(section, name, value); err != nil {
			return err
		}
		log.Debug("Applied environment override")
	}
	return nil
}
