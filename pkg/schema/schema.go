package schema

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Reserved section and option names.
const (
	// MainSection holds options declared outside any named section.
	MainSection = "__main__"

	// NoSchemaSection holds schema-exempt values usable as interpolation sources.
	NoSchemaSection = "__noschema__"

	// IncludesOption lists files to read before the file that declares it.
	IncludesOption = "includes"
)

// Section is a named set of options.
type Section struct {
	name    string
	options map[string]Option
	order   []string
}

func newSection(name string) *Section {
	return &Section{name: name, options: make(map[string]Option)}
}

// Name returns the section name.
func (s *Section) Name() string { return s.name }

// Option returns the named option.
func (s *Section) Option(name string) (Option, error) {
	opt, ok := s.options[name]
	if !ok {
		return nil, NewNoOptionError(s.name, name)
	}
	return opt, nil
}

// HasOption reports whether the section declares name.
func (s *Section) HasOption(name string) bool {
	_, ok := s.options[name]
	return ok
}

// Options returns the section's options in declaration order.
func (s *Section) Options() []Option {
	out := make([]Option, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.options[name])
	}
	return out
}

// Equal reports whether both sections declare equal options.
func (s *Section) Equal(other *Section) bool {
	if s.name != other.name || len(s.options) != len(other.options) {
		return false
	}
	for name, opt := range s.options {
		o, ok := other.options[name]
		if !ok || !opt.Equal(o) {
			return false
		}
	}
	return true
}

func (s *Section) put(opt Option) {
	name := opt.Name()
	if _, ok := s.options[name]; !ok {
		s.order = append(s.order, name)
	}
	s.options[name] = opt
}

func (s *Section) clone() *Section {
	c := newSection(s.name)
	for _, name := range s.order {
		c.put(s.options[name].clone())
	}
	return c
}

// Schema is a named collection of sections. Options declared at the top
// level live in the implicit __main__ section.
type Schema struct {
	name         string
	version      string
	sections     map[string]*Section
	order        []string
	includes     *ListOption
	explicitMain bool
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Version returns the schema version, if any.
func (s *Schema) Version() string { return s.version }

// IsValid reports whether the schema is structurally valid. A schema that
// declares an explicit __main__ section is not.
func (s *Schema) IsValid() bool {
	return !s.explicitMain
}

// Sections returns the sections in declaration order.
func (s *Schema) Sections() []*Section {
	out := make([]*Section, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.sections[name])
	}
	return out
}

// HasSection reports whether the schema declares name.
func (s *Schema) HasSection(name string) bool {
	_, ok := s.sections[name]
	return ok
}

// Section returns the named section.
func (s *Schema) Section(name string) (*Section, error) {
	sec, ok := s.sections[name]
	if !ok {
		return nil, NewNoSectionError(name)
	}
	return sec, nil
}

// Options returns the options of one section, or of all sections when
// section is empty.
func (s *Schema) Options(section string) ([]Option, error) {
	if section != "" {
		sec, err := s.Section(section)
		if err != nil {
			return nil, err
		}
		return sec.Options(), nil
	}
	var out []Option
	for _, sec := range s.Sections() {
		out = append(out, sec.Options()...)
	}
	return out, nil
}

// Includes returns the implicit __main__.includes option.
func (s *Schema) Includes() *ListOption {
	return s.includes
}

// Lookup resolves an option by section and name, including the implicit
// includes option.
func (s *Schema) Lookup(section, option string) (Option, error) {
	if section == MainSection && option == IncludesOption {
		if sec, ok := s.sections[MainSection]; ok && sec.HasOption(IncludesOption) {
			return sec.options[IncludesOption], nil
		}
		return s.includes, nil
	}
	sec, err := s.Section(section)
	if err != nil {
		return nil, err
	}
	return sec.Option(option)
}

// Equal reports whether both schemas declare equal sections.
func (s *Schema) Equal(other *Schema) bool {
	if len(s.sections) != len(other.sections) {
		return false
	}
	for name, sec := range s.sections {
		o, ok := other.sections[name]
		if !ok || !sec.Equal(o) {
			return false
		}
	}
	return true
}

func (s *Schema) section(name string) *Section {
	sec, ok := s.sections[name]
	if !ok {
		sec = newSection(name)
		s.sections[name] = sec
		s.order = append(s.order, name)
	}
	return sec
}

func (s *Schema) clone() *Schema {
	c := &Schema{
		name:         s.name,
		version:      s.version,
		sections:     make(map[string]*Section, len(s.sections)),
		includes:     s.includes.clone().(*ListOption),
		explicitMain: s.explicitMain,
	}
	for _, name := range s.order {
		c.sections[name] = s.sections[name].clone()
		c.order = append(c.order, name)
	}
	return c
}

func newIncludesOption() *ListOption {
	opt := NewList(IncludesOption, Item(NewString("")),
		Help("List of files to include before this one"))
	opt.section = MainSection
	return opt
}

// Builder assembles a Schema. Options are copied when the schema is built,
// so a built schema never shares option state with its builder, its bases
// or other schemas.
type Builder struct {
	name     string
	version  string
	bases    []*Schema
	main     []Option
	sections []sectionDecl
	errs     []string
}

type sectionDecl struct {
	name    string
	options []Option
}

// NewBuilder starts a schema with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

// Version sets the schema version.
func (b *Builder) Version(v string) *Builder {
	b.version = v
	return b
}

// Extend inherits the sections and options of base schemas. Earlier bases
// take precedence over later ones and declarations on the builder override
// inherited entries with the same name.
func (b *Builder) Extend(bases ...*Schema) *Builder {
	b.bases = append(b.bases, bases...)
	return b
}

// Option declares top-level options in the __main__ section.
func (b *Builder) Option(opts ...Option) *Builder {
	b.main = append(b.main, opts...)
	return b
}

// Section declares options in a named section. Declaring a section more
// than once extends it.
func (b *Builder) Section(name string, opts ...Option) *Builder {
	b.sections = append(b.sections, sectionDecl{name: name, options: opts})
	return b
}

// Build validates the option definitions and returns the schema.
func (b *Builder) Build() (*Schema, error) {
	s := &Schema{
		name:     b.name,
		version:  b.version,
		sections: make(map[string]*Section),
		includes: newIncludesOption(),
	}

	for i := len(b.bases) - 1; i >= 0; i-- {
		base := b.bases[i]
		if base.explicitMain {
			s.explicitMain = true
		}
		for _, sec := range base.Sections() {
			dst := s.section(sec.name)
			for _, opt := range sec.Options() {
				dst.put(opt.clone())
			}
		}
	}

	for _, opt := range b.main {
		if err := s.register(MainSection, opt); err != nil {
			return nil, err
		}
	}
	for _, decl := range b.sections {
		if decl.name == MainSection {
			s.explicitMain = true
		}
		if err := validateSectionName(decl.name); err != nil {
			return nil, err
		}
		s.section(decl.name)
		for _, opt := range decl.options {
			if err := s.register(decl.name, opt); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}

// MustBuild is like Build but panics on error. It is meant for schemas
// declared as package-level values.
func (b *Builder) MustBuild() *Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) register(section string, opt Option) error {
	if opt == nil {
		return NewSchemaValidationError(fmt.Sprintf("nil option in section '%s'", section)).
			WithCode(CodeInvalidDefinition)
	}
	if err := validateOption(opt); err != nil {
		return NewSchemaValidationError(fmt.Sprintf("invalid definition for option '%s.%s': %v", section, opt.Name(), err)).
			WithCode(CodeInvalidDefinition).
			WithOption(section, opt.Name())
	}
	c := opt.clone()
	c.common().section = section
	s.section(section).put(c)
	return nil
}

// optionDefinition mirrors the attributes of an option that must hold for
// any well-formed definition.
type optionDefinition struct {
	Name      string `validate:"required,excludesall= \t\n[]"`
	ShortName string `validate:"omitempty,len=1,alphanum"`
	Action    string `validate:"oneof=store store_true store_false append"`
}

var definitionValidator = validator.New()

func validateOption(opt Option) error {
	def := optionDefinition{
		Name:      opt.Name(),
		ShortName: opt.ShortName(),
		Action:    string(opt.Action()),
	}
	if err := definitionValidator.Struct(def); err != nil {
		return err
	}
	switch opt.Action() {
	case ActionStoreTrue, ActionStoreFalse:
		if opt.Kind() != KindBool {
			return fmt.Errorf("action %s requires a bool option", opt.Action())
		}
	case ActionAppend:
		if opt.Kind() != KindList {
			return fmt.Errorf("action %s requires a list option", opt.Action())
		}
	}
	if b := opt.common(); b.hasDefault && b.defaultValue != nil && !opt.Validate(b.defaultValue) {
		return fmt.Errorf("default %v is not a valid %s value", b.defaultValue, opt.Kind())
	}
	return nil
}

func validateSectionName(name string) error {
	if name == "" || strings.ContainsAny(name, "[]\n") {
		return NewSchemaValidationError(fmt.Sprintf("invalid section name %q", name)).
			WithCode(CodeInvalidDefinition)
	}
	return nil
}
