package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/go-ini/ini"

	"github.com/openfroyo/configglue/pkg/schema"
)

// Set stores value for a schema option. The value must belong to the
// option's type. The change is recorded against the file the option was
// read from so Save can write it back there.
func (p *SchemaConfigParser) Set(section, option string, value any) error {
	opt, err := p.schema.Lookup(section, option)
	if err != nil {
		return err
	}
	if !opt.Validate(value) {
		return schema.NewTypeError(value, opt.Kind()).WithOption(section, option)
	}
	str, err := opt.ToString(value)
	if err != nil {
		return err
	}
	if !opt.Raw() {
		if err := checkInterpolationSyntax(str); err != nil {
			return err
		}
	}

	key := optionKey(option)
	p.store.ensure(section).set(key, str)

	file := p.Locate(option)
	if p.dirty[file] == nil {
		p.dirty[file] = make(map[string]map[string]string)
	}
	if p.dirty[file][section] == nil {
		p.dirty[file][section] = make(map[string]string)
	}
	p.dirty[file][section][key] = str
	return nil
}

// Write serializes the configuration as INI. Schema options missing from
// the configuration are written with their default values.
func (p *SchemaConfigParser) Write(w io.Writer) error {
	st := p.store.clone()
	for _, sec := range p.schema.Sections() {
		for _, opt := range sec.Options() {
			if opt.Fatal() || st.hasOption(sec.Name(), optionKey(opt.Name())) {
				continue
			}
			s, err := opt.ToString(opt.Default())
			if err != nil {
				continue
			}
			st.ensure(sec.Name()).set(optionKey(opt.Name()), s)
		}
	}
	return writeINI(w, st)
}

// SaveTo writes the full configuration to w.
func (p *SchemaConfigParser) SaveTo(w io.Writer) error {
	return p.Write(w)
}

// SaveFile writes the full configuration to path.
func (p *SchemaConfigParser) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := p.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// Save writes values changed by Set back to the files they were read from.
// Values that were never read from a file go to the last file read. Each
// file is replaced through a .new file and the previous version is kept as
// .old.
func (p *SchemaConfigParser) Save() error {
	byFile := make(map[string]map[string]map[string]string)
	for file, sections := range p.dirty {
		if file == "" {
			if p.lastLocation == "" {
				return schema.NewNoLocationError(
					"No config files where read and no location was specified for writing the configuration.")
			}
			file = p.lastLocation
		}
		if byFile[file] == nil {
			byFile[file] = make(map[string]map[string]string)
		}
		for section, options := range sections {
			if byFile[file][section] == nil {
				byFile[file][section] = make(map[string]string)
			}
			for option, value := range options {
				byFile[file][section][option] = value
			}
		}
	}

	files := make([]string, 0, len(byFile))
	for file := range byFile {
		files = append(files, file)
	}
	sort.Strings(files)

	for _, file := range files {
		if err := saveChanges(file, byFile[file]); err != nil {
			p.metrics.RecordSave("failed")
			p.logger.WithFile(file).WithError(err).Error("Failed to save configuration")
			return err
		}
		p.metrics.RecordSave("ok")
		p.logger.WithFile(file).Info("Saved configuration")
	}
	p.dirty = make(map[string]map[string]map[string]string)
	return nil
}

func init() {
	// Without the header a leading DEFAULT section is written as bare keys.
	ini.DefaultHeader = true
}

var saveLoadOptions = ini.LoadOptions{
	Loose:                      true,
	InsensitiveKeys:            true,
	AllowPythonMultilineValues: true,
	IgnoreInlineComment:        true,
	PreserveSurroundedQuote:    true,
	KeyValueDelimiters:         "=:",
}

// saveChanges applies changes to file. The file is first normalized
// through the package reader so go-ini sees the same sections and values
// Read did; comments are not kept.
func saveChanges(file string, changes map[string]map[string]string) error {
	data, err := normalizeSource(file)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", file, err)
	}
	cfg, err := ini.LoadSources(saveLoadOptions, data)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", file, err)
	}
	for section, options := range changes {
		sec := cfg.Section(section)
		for option, value := range options {
			sec.Key(option).SetValue(value)
		}
	}
	if len(cfg.Section(ini.DefaultSection).Keys()) == 0 {
		cfg.DeleteSection(ini.DefaultSection)
	}

	tmp := file + ".new"
	if err := cfg.SaveTo(tmp); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if _, err := os.Stat(file); err == nil {
		if err := os.Rename(file, file+".old"); err != nil {
			return fmt.Errorf("failed to back up %s: %w", file, err)
		}
	}
	if err := os.Rename(tmp, file); err != nil {
		return fmt.Errorf("failed to replace %s: %w", file, err)
	}
	return nil
}

// normalizeSource rewrites file in the form writeINI produces. A missing
// file yields an empty source.
func normalizeSource(file string) ([]byte, error) {
	content, err := os.ReadFile(file)
	if os.IsNotExist(err) {
		return []byte{}, nil
	}
	if err != nil {
		return nil, err
	}
	st := newStore()
	if err := parseINI(st, string(content), file); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := writeINI(&buf, st); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
