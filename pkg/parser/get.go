package parser

import (
	"fmt"
	"strings"

	"github.com/openfroyo/configglue/pkg/schema"
)

type getConfig struct {
	raw   bool
	vars  map[string]string
	parse bool
}

// GetOption adjusts a single value lookup.
type GetOption func(*getConfig)

// AsRaw disables %(name)s and environment interpolation.
func AsRaw() GetOption {
	return func(c *getConfig) { c.raw = true }
}

// WithVars supplies extra interpolation values that take precedence over
// the section's own values.
func WithVars(vars map[string]string) GetOption {
	return func(c *getConfig) {
		c.vars = make(map[string]string, len(vars))
		for k, v := range vars {
			c.vars[optionKey(k)] = v
		}
	}
}

// NoParse returns the interpolated text instead of the typed value.
func NoParse() GetOption {
	return func(c *getConfig) { c.parse = false }
}

func newGetConfig(opts []GetOption) getConfig {
	cfg := getConfig{parse: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func optionKey(option string) string {
	return strings.ToLower(option)
}

// Get returns the value of an option. Values missing from the
// configuration fall back to the schema default unless the option is
// fatal.
func (p *SchemaConfigParser) Get(section, option string, opts ...GetOption) (any, error) {
	return p.get(section, option, newGetConfig(opts), 0)
}

func (p *SchemaConfigParser) get(section, option string, cfg getConfig, depth int) (any, error) {
	key := optionKey(option)
	raw := cfg.raw
	if opt, err := p.schema.Lookup(section, option); err == nil && opt.Raw() {
		raw = true
	}

	var value any
	s, err := p.fetch(section, key, raw, cfg.vars)
	switch {
	case err == nil:
		value = s
	case schema.IsInterpolationMissing(err):
		v, ok := p.interpolateValue(section, key, depth)
		if !ok {
			return nil, err
		}
		value = v
	case schema.IsMissing(err):
		def, derr := p.getDefault(section, option)
		if derr != nil {
			return nil, derr
		}
		value = def
	default:
		return nil, err
	}

	str, ok := value.(string)
	if !ok {
		return value, nil
	}
	if !raw {
		expanded, err := p.InterpolateEnvironment(str, false)
		if err != nil {
			if !schema.IsEnvironmentMissing(err) {
				return nil, err
			}
			p.logger.WithOption(section, option).WithError(err).Debug("Environment interpolation failed, using default")
			return p.getDefault(section, option)
		}
		str = expanded
	}
	if !cfg.parse {
		return str, nil
	}
	return p.Parse(section, option, str)
}

// InterpolateEnvironment expands $NAME, ${NAME} and ${NAME:-default}
// references in value. It returns value unchanged when raw is set.
func (p *SchemaConfigParser) InterpolateEnvironment(value string, raw bool) (string, error) {
	if raw {
		return value, nil
	}
	return expandEnvironment(value, p.env)
}

// fetch returns the stored value of key in section, looking through vars,
// the section and DEFAULT in that order, and interpolates it unless raw.
func (p *SchemaConfigParser) fetch(section, key string, raw bool, vars map[string]string) (string, error) {
	sec, ok := p.store.get(section)
	if !ok {
		return "", schema.NewNoSectionError(section)
	}
	lookup := p.lookup(sec, vars)
	v, ok := lookup(key)
	if !ok {
		return "", schema.NewNoOptionError(section, key)
	}
	if raw {
		return v, nil
	}
	return interpolate(section, key, v, lookup, 1)
}

func (p *SchemaConfigParser) lookup(sec *section, vars map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		if v, ok := vars[key]; ok {
			return v, true
		}
		if v, ok := sec.get(key); ok {
			return v, true
		}
		return p.store.defaults.get(key)
	}
}

// interpolateValue resolves the references of a value whose keys are not
// all defined in its own section. Each key is resolved in section first,
// then in __main__ and __noschema__.
func (p *SchemaConfigParser) interpolateValue(section, key string, depth int) (string, bool) {
	if depth >= maxInterpolationDepth {
		return "", false
	}
	rawval, err := p.fetch(section, key, true, nil)
	if err != nil {
		return "", false
	}
	keys := interpolationKeys(rawval)
	if len(keys) == 0 {
		return "", false
	}

	values := make(map[string]string, len(keys))
	for _, ref := range keys {
		v, err := p.get(section, ref, getConfig{}, depth+1)
		if err == nil {
			values[ref] = p.stringify(section, ref, v)
			continue
		}
		if !schema.IsMissing(err) {
			return "", false
		}

		found := false
		for _, special := range []string{schema.MainSection, schema.NoSchemaSection} {
			s, err := p.fetch(special, ref, false, nil)
			if err != nil {
				continue
			}
			values[ref] = s
			found = true
			p.metrics.RecordInterpolationFallback(special)
			p.logger.WithOption(section, key).Debugf("Resolved %s from section %s", ref, special)
			break
		}
		if !found {
			return "", false
		}
	}

	result, err := substitute(rawval, values)
	if err != nil {
		return "", false
	}
	return result, true
}

// getDefault returns the schema default of an option, or the stored value
// for options of the __noschema__ section.
func (p *SchemaConfigParser) getDefault(section, option string) (any, error) {
	if section == schema.NoSchemaSection {
		return p.fetch(section, optionKey(option), false, nil)
	}
	opt, err := p.schema.Lookup(section, option)
	if err != nil {
		return nil, err
	}
	if opt.Fatal() {
		return nil, schema.NewNoOptionError(section, option)
	}
	return opt.Default(), nil
}

// stringify renders a value in its configuration file form.
func (p *SchemaConfigParser) stringify(section, option string, v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if opt, err := p.schema.Lookup(section, option); err == nil {
		if s, err := opt.ToString(v); err == nil {
			return s
		}
	}
	return fmt.Sprint(v)
}

// Parse converts value with the option's type. Values of options the
// schema does not declare are returned unchanged.
func (p *SchemaConfigParser) Parse(section, option, value string) (any, error) {
	if section == schema.NoSchemaSection {
		return value, nil
	}
	opt, err := p.schema.Lookup(section, option)
	if err != nil {
		if schema.IsNoSection(err) && section != schema.MainSection {
			return nil, err
		}
		return value, nil
	}

	v, err := opt.Parse(value, p, false)
	if err != nil {
		if schema.IsValueError(err) {
			return nil, schema.NewValueError(fmt.Sprintf(
				"Invalid value '%s' for %s '%s' in section '%s'", value, opt.Kind(), option, section), err).
				WithOption(section, option)
		}
		return nil, err
	}
	return v, nil
}

// Items returns the interpolated values of section, including DEFAULT
// values.
func (p *SchemaConfigParser) Items(section string) (map[string]string, error) {
	return p.items(section, false, nil)
}

// ItemsWith is like Items but honours AsRaw and WithVars.
func (p *SchemaConfigParser) ItemsWith(section string, opts ...GetOption) (map[string]string, error) {
	cfg := newGetConfig(opts)
	return p.items(section, cfg.raw, cfg.vars)
}

func (p *SchemaConfigParser) items(section string, raw bool, vars map[string]string) (map[string]string, error) {
	sec, ok := p.store.get(section)
	if !ok {
		return nil, schema.NewNoSectionError(section)
	}
	lookup := p.lookup(sec, vars)

	out := make(map[string]string)
	keys := append(append(append([]string{}, p.store.defaults.keys...), sec.keys...), mapKeys(vars)...)
	for _, key := range keys {
		if _, done := out[key]; done {
			continue
		}
		v, _ := lookup(key)
		if raw {
			out[key] = v
			continue
		}
		s, err := interpolate(section, key, v, lookup, 1)
		if err != nil {
			if !schema.IsInterpolationMissing(err) {
				return nil, err
			}
			fallback, ok := p.interpolateValue(section, key, 0)
			if !ok {
				return nil, err
			}
			s = fallback
		}
		out[key] = s
	}
	return out, nil
}

func mapKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// Options returns the option names stored in section, including DEFAULT
// values.
func (p *SchemaConfigParser) Options(section string) ([]string, error) {
	sec, ok := p.store.get(section)
	if !ok {
		return nil, schema.NewNoSectionError(section)
	}
	out := append([]string{}, sec.keys...)
	if sec != p.store.defaults {
		for _, key := range p.store.defaults.keys {
			if _, ok := sec.get(key); !ok {
				out = append(out, key)
			}
		}
	}
	return out, nil
}

// Value returns the interpolated, unparsed value of an option.
func (p *SchemaConfigParser) Value(section, option string) (string, error) {
	v, err := p.Get(section, option, NoParse())
	if err != nil {
		return "", err
	}
	return p.stringify(section, option, v), nil
}

// Values returns the values of every schema option, keyed by section and
// option name.
func (p *SchemaConfigParser) Values(opts ...GetOption) (map[string]map[string]any, error) {
	out := make(map[string]map[string]any)
	for _, sec := range p.schema.Sections() {
		values, err := p.SectionValues(sec.Name(), opts...)
		if err != nil {
			return nil, err
		}
		out[sec.Name()] = values
	}
	return out, nil
}

// SectionValues returns the values of every schema option in section.
func (p *SchemaConfigParser) SectionValues(section string, opts ...GetOption) (map[string]any, error) {
	sec, err := p.schema.Section(section)
	if err != nil {
		return nil, err
	}
	cfg := newGetConfig(opts)
	out := make(map[string]any)
	for _, opt := range sec.Options() {
		v, err := p.get(section, opt.Name(), cfg, 0)
		if err != nil {
			return nil, err
		}
		out[opt.Name()] = v
	}
	return out, nil
}

// ParseAll parses every schema option. Missing values are an error only for
// fatal options.
func (p *SchemaConfigParser) ParseAll() error {
	for _, sec := range p.schema.Sections() {
		for _, opt := range sec.Options() {
			cfg := getConfig{parse: true, raw: opt.Raw()}
			if _, err := p.get(sec.Name(), opt.Name(), cfg, 0); err != nil {
				if schema.IsMissing(err) && !opt.Fatal() {
					continue
				}
				return err
			}
		}
	}
	return nil
}
