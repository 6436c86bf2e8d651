package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/openfroyo/configglue/pkg/schema"
	"github.com/openfroyo/configglue/pkg/telemetry"
)

// SchemaConfigParser reads layered INI files and resolves their values
// against a schema.
type SchemaConfigParser struct {
	schema      *schema.Schema
	optionNames map[string]bool
	store       *store

	// location maps an option name to the file that last defined it. It
	// is shared with the sub-parsers that read included files.
	location      map[string]string
	extraSections map[string]struct{}

	// dirty holds values changed by Set, keyed by file, section and option.
	dirty map[string]map[string]map[string]string

	basedir      string
	lastLocation string

	env     lookupFunc
	logger  *telemetry.Logger
	metrics *telemetry.Metrics
	session string
}

// Option configures a SchemaConfigParser.
type Option func(*SchemaConfigParser)

// WithLogger sets the logger used for read and save events.
func WithLogger(l *telemetry.Logger) Option {
	return func(p *SchemaConfigParser) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(p *SchemaConfigParser) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithEnv sets the environment lookup used for $NAME expansion. The
// default is os.LookupEnv.
func WithEnv(lookup func(string) (string, bool)) Option {
	return func(p *SchemaConfigParser) {
		if lookup != nil {
			p.env = lookup
		}
	}
}

// New creates a parser for s. The schema must be valid.
func New(s *schema.Schema, opts ...Option) (*SchemaConfigParser, error) {
	if s == nil {
		return nil, schema.NewSchemaValidationError("schema is required")
	}
	if !s.IsValid() {
		return nil, schema.NewSchemaValidationError(fmt.Sprintf(
			"schema %s declares the reserved section '%s'", s.Name(), schema.MainSection)).
			WithCode(schema.CodeReservedSection)
	}

	p := &SchemaConfigParser{
		schema:        s,
		optionNames:   make(map[string]bool),
		store:         newStore(),
		location:      make(map[string]string),
		extraSections: make(map[string]struct{}),
		dirty:         make(map[string]map[string]map[string]string),
		env:           os.LookupEnv,
		logger:        telemetry.NewNopLogger(),
		metrics:       telemetry.NewNopMetrics(),
		session:       uuid.NewString(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.NewComponentLogger("parser").WithSession(p.session)

	all, _ := s.Options("")
	for _, opt := range all {
		p.optionNames[opt.Name()] = true
	}
	return p, nil
}

// subParser returns a parser with an empty store that shares the schema,
// provenance map and telemetry of p.
func (p *SchemaConfigParser) subParser() *SchemaConfigParser {
	return &SchemaConfigParser{
		schema:        p.schema,
		optionNames:   p.optionNames,
		store:         newStore(),
		location:      p.location,
		extraSections: make(map[string]struct{}),
		dirty:         make(map[string]map[string]map[string]string),
		basedir:       p.basedir,
		env:           p.env,
		logger:        p.logger,
		metrics:       p.metrics,
		session:       p.session,
	}
}

// Schema returns the parser's schema.
func (p *SchemaConfigParser) Schema() *schema.Schema {
	return p.schema
}

// Read reads and merges the named files in order. Later files override
// earlier ones and files that cannot be opened are skipped. It returns the
// paths successfully read.
func (p *SchemaConfigParser) Read(filenames ...string) ([]string, error) {
	timer := telemetry.NewTimer()
	defer func() { p.metrics.ObserveRead(timer.Duration()) }()
	return p.read(filenames, make(map[string]struct{}))
}

func (p *SchemaConfigParser) read(filenames []string, alreadyRead map[string]struct{}) ([]string, error) {
	var readOK []string
	for _, filename := range filenames {
		path := filename
		if !filepath.IsAbs(path) {
			path = filepath.Join(p.basedir, filename)
		}
		if _, ok := alreadyRead[path]; ok {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			p.logger.WithFile(path).WithError(err).Warn("File could not be read, skipping")
			p.metrics.RecordFileRead("skipped")
			continue
		}

		sub := p.subParser()
		if err := sub.readBytes(data, path, alreadyRead); err != nil {
			p.metrics.RecordFileRead("failed")
			return readOK, err
		}
		p.store.mergeFrom(sub.store, true)

		readOK = append(readOK, path)
		p.lastLocation = path
		p.metrics.RecordFileRead("ok")
		p.logger.WithFile(path).Debug("Read configuration file")
	}
	return readOK, nil
}

// ReadFP reads configuration from r. The name is used for provenance, error
// messages and to resolve relative includes.
func (p *SchemaConfigParser) ReadFP(r io.Reader, name string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read configuration: %w", err)
	}
	return p.readBytes(data, name, make(map[string]struct{}))
}

// readBytes parses data on top of the current state, then reads the files
// it includes and re-applies data so local values win over included ones.
func (p *SchemaConfigParser) readBytes(data []byte, name string, alreadyRead map[string]struct{}) error {
	content, err := decode(data, name)
	if err != nil {
		return err
	}
	if err := p.update(content, name); err != nil {
		return err
	}
	alreadyRead[name] = struct{}{}

	if !p.store.hasOption(schema.MainSection, schema.IncludesOption) {
		return nil
	}
	v, err := p.Get(schema.MainSection, schema.IncludesOption)
	if err != nil {
		return err
	}
	includes := stringItems(v)

	oldBasedir := p.basedir
	p.basedir = filepath.Dir(name)
	sub := p.subParser()
	_, err = sub.read(includes, alreadyRead)
	p.basedir = oldBasedir
	if err != nil {
		return err
	}
	p.store.mergeFrom(sub.store, true)
	p.metrics.RecordIncludes(len(includes))

	if len(includes) > 0 {
		return p.update(content, name)
	}
	return nil
}

// update merges content into the store and records name as the location
// of every schema option it adds or changes.
func (p *SchemaConfigParser) update(content, name string) error {
	incoming := newStore()
	if err := parseINI(incoming, content, name); err != nil {
		return err
	}
	for _, secName := range incoming.order {
		sec := incoming.sections[secName]
		current, exists := p.store.get(secName)
		for _, key := range sec.keys {
			if !p.optionNames[key] {
				continue
			}
			if exists {
				if old, ok := current.get(key); ok && old == sec.values[key] {
					continue
				}
			}
			p.location[key] = name
		}
	}
	p.store.mergeFrom(incoming, false)
	return nil
}

func decode(data []byte, name string) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return "", schema.NewParseError(fmt.Sprintf("File %s is not valid UTF-8", name))
	}
	return string(data), nil
}

func stringItems(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Locate returns the file that last defined option, or "" when the option
// was never read from a file.
func (p *SchemaConfigParser) Locate(option string) string {
	return p.location[option]
}

// LastLocation returns the path of the last file read.
func (p *SchemaConfigParser) LastLocation() string {
	return p.lastLocation
}

// Sections returns the sections present in the configuration.
func (p *SchemaConfigParser) Sections() []string {
	return p.store.names()
}

// HasSection reports whether the configuration contains section.
func (p *SchemaConfigParser) HasSection(section string) bool {
	return p.store.has(section)
}

// HasOption reports whether option is set in section or in DEFAULT.
func (p *SchemaConfigParser) HasOption(section, option string) bool {
	key := optionKey(option)
	if section == "" || section == defaultSection {
		return p.store.hasOption(defaultSection, key)
	}
	if !p.store.has(section) {
		return false
	}
	return p.store.hasOption(section, key) || p.store.hasOption(defaultSection, key)
}

// AddExtraSections records sections that hold the contents of dict options
// rather than schema sections.
func (p *SchemaConfigParser) AddExtraSections(names ...string) {
	for _, name := range names {
		p.extraSections[name] = struct{}{}
	}
}

// ExtraSections returns the recorded extra sections, sorted.
func (p *SchemaConfigParser) ExtraSections() []string {
	out := make([]string, 0, len(p.extraSections))
	for name := range p.extraSections {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
