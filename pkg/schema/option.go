package schema

import (
	"reflect"
)

// Kind identifies the variant of an Option.
type Kind string

const (
	KindBool   Kind = "bool"
	KindInt    Kind = "int"
	KindString Kind = "string"
	KindTuple  Kind = "tuple"
	KindList   Kind = "list"
	KindDict   Kind = "dict"
)

// String returns the display name of the kind, e.g. "IntOption".
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "BoolOption"
	case KindInt:
		return "IntOption"
	case KindString:
		return "StringOption"
	case KindTuple:
		return "TupleOption"
	case KindList:
		return "ListOption"
	case KindDict:
		return "DictOption"
	default:
		return string(k)
	}
}

// Action describes how a command-line flag combines with the configured value.
type Action string

const (
	ActionStore      Action = "store"
	ActionStoreTrue  Action = "store_true"
	ActionStoreFalse Action = "store_false"
	ActionAppend     Action = "append"
)

// Resolver is the part of a configuration parser that composite options
// need in order to resolve values stored in other sections.
type Resolver interface {
	// Items returns the interpolated key/value pairs stored in section.
	Items(section string) (map[string]string, error)

	// Options returns the option names stored in section.
	Options(section string) ([]string, error)

	// Value returns the interpolated, unparsed value of an option.
	Value(section, option string) (string, error)

	// AddExtraSections records sections that hold structural content of
	// composite options.
	AddExtraSections(names ...string)
}

// Option describes one configuration value: its type, default and the
// rules to parse, validate and serialize it.
type Option interface {
	Name() string
	// Section is the name of the owning section.
	Section() string
	ShortName() string
	Help() string
	Action() Action
	Fatal() bool
	Raw() bool
	Kind() Kind
	Default() any
	// RequireParser reports whether Parse needs a non-nil Resolver.
	RequireParser() bool

	Parse(value string, r Resolver, raw bool) (any, error)
	Validate(value any) bool
	ToString(value any) (string, error)
	Equal(other Option) bool

	common() *optionBase
	clone() Option
}

type optionBase struct {
	name         string
	section      string
	shortName    string
	help         string
	fatal        bool
	raw          bool
	action       Action
	defaultValue any
	hasDefault   bool
}

func (b *optionBase) Name() string        { return b.name }
func (b *optionBase) Section() string     { return b.section }
func (b *optionBase) ShortName() string   { return b.shortName }
func (b *optionBase) Help() string        { return b.help }
func (b *optionBase) Action() Action      { return b.action }
func (b *optionBase) Fatal() bool         { return b.fatal }
func (b *optionBase) Raw() bool           { return b.raw }
func (b *optionBase) common() *optionBase { return b }

func (b *optionBase) sameAttrs(o *optionBase) bool {
	return b.name == o.name &&
		b.section == o.section &&
		b.shortName == o.shortName &&
		b.help == o.help &&
		b.fatal == o.fatal &&
		b.raw == o.raw &&
		b.action == o.action
}

func (b *optionBase) copied() optionBase {
	c := *b
	c.defaultValue = copyValue(b.defaultValue)
	return c
}

// Setting configures an Option at construction time.
type Setting func(*optionConfig)

type optionConfig struct {
	optionBase
	null             bool
	length           int
	item             Option
	spec             map[string]Option
	strict           bool
	removeDuplicates bool
	parseJSON        bool
}

func newConfig(name string, settings []Setting) *optionConfig {
	cfg := &optionConfig{
		optionBase: optionBase{name: name, action: ActionStore},
		parseJSON:  true,
	}
	for _, s := range settings {
		s(cfg)
	}
	return cfg
}

// Default sets an explicit default value.
func Default(v any) Setting {
	return func(c *optionConfig) {
		c.defaultValue = v
		c.hasDefault = true
	}
}

// Fatal requires the option to be present in the configuration.
func Fatal() Setting {
	return func(c *optionConfig) { c.fatal = true }
}

// Raw disables interpolation for the option.
func Raw() Setting {
	return func(c *optionConfig) { c.raw = true }
}

// Help sets the option's help text.
func Help(text string) Setting {
	return func(c *optionConfig) { c.help = text }
}

// Short sets the single-letter command-line alias.
func Short(name string) Setting {
	return func(c *optionConfig) { c.shortName = name }
}

// WithAction sets how a command-line flag combines with the configured value.
func WithAction(a Action) Setting {
	return func(c *optionConfig) { c.action = a }
}

// Null makes a StringOption parse the literal "None" as nil.
func Null() Setting {
	return func(c *optionConfig) { c.null = true }
}

// Length fixes the arity of a TupleOption.
func Length(n int) Setting {
	return func(c *optionConfig) { c.length = n }
}

// Item sets the element option of a ListOption or the fallback option of a DictOption.
func Item(o Option) Setting {
	return func(c *optionConfig) { c.item = o }
}

// Spec sets the known keys of a DictOption.
func Spec(spec map[string]Option) Setting {
	return func(c *optionConfig) { c.spec = spec }
}

// Strict rejects DictOption keys missing from the spec.
func Strict() Setting {
	return func(c *optionConfig) { c.strict = true }
}

// RemoveDuplicates drops repeated ListOption elements, keeping the first.
func RemoveDuplicates() Setting {
	return func(c *optionConfig) { c.removeDuplicates = true }
}

// ParseJSON controls whether List and Dict options accept JSON literals.
func ParseJSON(enabled bool) Setting {
	return func(c *optionConfig) { c.parseJSON = enabled }
}

// copyValue deep-copies the composite value shapes produced by options.
func copyValue(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = copyValue(e)
		}
		return out
	case Tuple:
		out := make(Tuple, len(t))
		copy(out, t)
		return out
	default:
		return v
	}
}

func sameValue(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

func cloneOption(o Option) Option {
	if o == nil {
		return nil
	}
	return o.clone()
}

func equalOptions(a, b Option) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}
