package schema

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Descriptor is the YAML form of a schema.
type Descriptor struct {
	Name     string              `yaml:"name" json:"name" validate:"required"`
	Version  string              `yaml:"version,omitempty" json:"version,omitempty"`
	Options  []OptionDescriptor  `yaml:"options,omitempty" json:"options,omitempty" validate:"dive"`
	Sections []SectionDescriptor `yaml:"sections,omitempty" json:"sections,omitempty" validate:"dive"`
}

// SectionDescriptor is the YAML form of a section.
type SectionDescriptor struct {
	Name    string             `yaml:"name" json:"name" validate:"required"`
	Options []OptionDescriptor `yaml:"options,omitempty" json:"options,omitempty" validate:"dive"`
}

// OptionDescriptor is the YAML form of an option.
type OptionDescriptor struct {
	Name             string                      `yaml:"name,omitempty" json:"name,omitempty"`
	Type             string                      `yaml:"type" json:"type" validate:"required,oneof=bool int string tuple list dict"`
	Default          any                         `yaml:"default,omitempty" json:"default,omitempty"`
	ShortName        string                      `yaml:"short_name,omitempty" json:"short_name,omitempty"`
	Help             string                      `yaml:"help,omitempty" json:"help,omitempty"`
	Fatal            bool                        `yaml:"fatal,omitempty" json:"fatal,omitempty"`
	Raw              bool                        `yaml:"raw,omitempty" json:"raw,omitempty"`
	Action           string                      `yaml:"action,omitempty" json:"action,omitempty" validate:"omitempty,oneof=store store_true store_false append"`
	Null             bool                        `yaml:"null,omitempty" json:"null,omitempty"`
	Length           int                         `yaml:"length,omitempty" json:"length,omitempty" validate:"gte=0"`
	Item             *OptionDescriptor           `yaml:"item,omitempty" json:"item,omitempty"`
	Spec             map[string]OptionDescriptor `yaml:"spec,omitempty" json:"spec,omitempty" validate:"dive"`
	Strict           bool                        `yaml:"strict,omitempty" json:"strict,omitempty"`
	RemoveDuplicates bool                        `yaml:"remove_duplicates,omitempty" json:"remove_duplicates,omitempty"`
	ParseJSON        *bool                       `yaml:"parse_json,omitempty" json:"parse_json,omitempty"`
}

var descriptorValidator = validator.New()

// LoadFile reads a YAML schema descriptor from path.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	s, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Load builds a schema from a YAML descriptor.
func Load(data []byte) (*Schema, error) {
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("failed to parse schema YAML: %w", err)
	}
	return d.Build()
}

// Build validates the descriptor and builds the schema it describes.
func (d *Descriptor) Build() (*Schema, error) {
	if err := descriptorValidator.Struct(d); err != nil {
		return nil, NewSchemaValidationError("invalid schema descriptor").
			WithCode(CodeInvalidDefinition).withErr(err)
	}

	b := NewBuilder(d.Name).Version(d.Version)
	for i := range d.Options {
		opt, err := d.Options[i].option(d.Options[i].Name)
		if err != nil {
			return nil, err
		}
		b.Option(opt)
	}
	for _, sec := range d.Sections {
		opts := make([]Option, 0, len(sec.Options))
		for i := range sec.Options {
			opt, err := sec.Options[i].option(sec.Options[i].Name)
			if err != nil {
				return nil, err
			}
			opts = append(opts, opt)
		}
		b.Section(sec.Name, opts...)
	}
	return b.Build()
}

func (od *OptionDescriptor) option(name string) (Option, error) {
	settings := []Setting{Help(od.Help), Short(od.ShortName)}
	if od.Fatal {
		settings = append(settings, Fatal())
	}
	if od.Raw {
		settings = append(settings, Raw())
	}
	if od.Action != "" {
		settings = append(settings, WithAction(Action(od.Action)))
	}
	if od.Null {
		settings = append(settings, Null())
	}
	if od.Length > 0 {
		settings = append(settings, Length(od.Length))
	}
	if od.Strict {
		settings = append(settings, Strict())
	}
	if od.RemoveDuplicates {
		settings = append(settings, RemoveDuplicates())
	}
	if od.ParseJSON != nil {
		settings = append(settings, ParseJSON(*od.ParseJSON))
	}
	if od.Item != nil {
		item, err := od.Item.option(od.Item.Name)
		if err != nil {
			return nil, err
		}
		settings = append(settings, Item(item))
	}
	if len(od.Spec) > 0 {
		spec := make(map[string]Option, len(od.Spec))
		for key, sd := range od.Spec {
			opt, err := sd.option(sd.Name)
			if err != nil {
				return nil, err
			}
			spec[key] = opt
		}
		settings = append(settings, Spec(spec))
	}

	opt := newOption(Kind(od.Type), name, settings)
	if od.Default == nil {
		return opt, nil
	}
	def, err := coerce(opt, od.Default, nil, false)
	if err != nil {
		return nil, NewSchemaValidationError(fmt.Sprintf("invalid default for option '%s'", name)).
			WithCode(CodeInvalidDefinition).withErr(err)
	}
	return newOption(Kind(od.Type), name, append(settings, Default(def))), nil
}

func newOption(kind Kind, name string, settings []Setting) Option {
	switch kind {
	case KindBool:
		return NewBool(name, settings...)
	case KindInt:
		return NewInt(name, settings...)
	case KindTuple:
		return NewTuple(name, settings...)
	case KindList:
		return NewList(name, settings...)
	case KindDict:
		return NewDict(name, settings...)
	default:
		return NewString(name, settings...)
	}
}

// Describe returns the YAML descriptor of a schema.
func Describe(s *Schema) *Descriptor {
	d := &Descriptor{Name: s.name, Version: s.version}
	for _, sec := range s.Sections() {
		opts := make([]OptionDescriptor, 0, len(sec.order))
		for _, opt := range sec.Options() {
			opts = append(opts, describeOption(opt))
		}
		if sec.name == MainSection {
			d.Options = opts
			continue
		}
		d.Sections = append(d.Sections, SectionDescriptor{Name: sec.name, Options: opts})
	}
	return d
}

func describeOption(opt Option) OptionDescriptor {
	b := opt.common()
	od := OptionDescriptor{
		Name:      b.name,
		Type:      string(opt.Kind()),
		ShortName: b.shortName,
		Help:      b.help,
		Fatal:     b.fatal,
		Raw:       b.raw,
	}
	if b.action != ActionStore {
		od.Action = string(b.action)
	}
	if b.hasDefault {
		od.Default = b.defaultValue
	}
	switch t := opt.(type) {
	case *StringOption:
		od.Null = t.null
	case *TupleOption:
		od.Length = t.length
	case *ListOption:
		item := describeOption(t.item)
		od.Item = &item
		od.RemoveDuplicates = t.removeDuplicates
		if !t.parseJSON {
			od.ParseJSON = &t.parseJSON
		}
	case *DictOption:
		item := describeOption(t.item)
		od.Item = &item
		od.Strict = t.strict
		if len(t.spec) > 0 {
			od.Spec = make(map[string]OptionDescriptor, len(t.spec))
			for key, sub := range t.spec {
				od.Spec[key] = describeOption(sub)
			}
		}
		if !t.parseJSON {
			od.ParseJSON = &t.parseJSON
		}
	}
	return od
}

func (e *ConfigError) withErr(err error) *ConfigError {
	e.Err = err
	return e
}
