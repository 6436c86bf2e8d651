package parser

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/openfroyo/configglue/pkg/schema"
)

// Validate checks the configuration against the schema: sections and
// options must be declared, fatal options must be present and every value
// must parse. All problems found are returned together.
func (p *SchemaConfigParser) Validate() error {
	var result *multierror.Error
	report := func(format string, args ...any) {
		result = multierror.Append(result, schema.NewValidationError(fmt.Sprintf(format, args...)))
	}

	// Parsing dict options registers the sections they reference.
	parseErr := p.ParseAll()

	configSections := toSet(p.store.names())
	schemaSections := make(map[string]struct{})
	for _, sec := range p.schema.Sections() {
		schemaSections[sec.Name()] = struct{}{}
	}

	var undefined []string
	for name := range p.extraSections {
		if _, ok := configSections[name]; !ok {
			undefined = append(undefined, name)
		}
	}
	if len(undefined) > 0 {
		report("Undefined sections in configuration: %s", joinSorted(undefined))
	}
	for name := range p.extraSections {
		delete(configSections, name)
	}

	var unknown []string
	for name := range configSections {
		if name == schema.MainSection || name == schema.NoSchemaSection {
			continue
		}
		if _, ok := schemaSections[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		report("Sections in configuration are missing from schema: %s", joinSorted(unknown))
	}

	names := make(map[string]struct{}, len(configSections)+len(schemaSections))
	for name := range configSections {
		names[name] = struct{}{}
	}
	for name := range schemaSections {
		names[name] = struct{}{}
	}
	for _, name := range sortedKeys(names) {
		if _, skip := p.extraSections[name]; skip {
			continue
		}
		sec, err := p.schema.Section(name)
		if err != nil {
			continue
		}

		parsed := make(map[string]struct{})
		if opts, err := p.Options(name); err == nil {
			parsed = toSet(opts)
		}

		declared := make(map[string]struct{})
		var missing []string
		for _, opt := range sec.Options() {
			declared[opt.Name()] = struct{}{}
			if !opt.Fatal() {
				continue
			}
			if _, ok := parsed[opt.Name()]; !ok {
				missing = append(missing, opt.Name())
			}
		}
		if len(missing) > 0 {
			report("Configuration missing required options for section '%s': %s", name, joinSorted(missing))
		}

		if name == schema.MainSection {
			declared[schema.IncludesOption] = struct{}{}
		}
		var invalid []string
		for opt := range parsed {
			if _, ok := declared[opt]; !ok {
				invalid = append(invalid, opt)
			}
		}
		if len(invalid) > 0 {
			report("Configuration includes invalid options for section '%s': %s", name, joinSorted(invalid))
		}
	}

	if parseErr != nil {
		result = multierror.Append(result, parseErr)
	}
	if result == nil {
		return nil
	}
	result.ErrorFormat = formatReasons
	p.metrics.RecordValidationErrors(len(result.Errors))
	p.logger.Debugf("Configuration failed validation with %d errors", len(result.Errors))
	return result.ErrorOrNil()
}

// IsValid reports whether Validate finds no problems.
func (p *SchemaConfigParser) IsValid() bool {
	return p.Validate() == nil
}

// ValidationReport is like IsValid but also returns the reasons the
// configuration is invalid.
func (p *SchemaConfigParser) ValidationReport() (bool, []string) {
	err := p.Validate()
	if err == nil {
		return true, nil
	}
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		return false, []string{err.Error()}
	}
	reasons := make([]string, 0, len(merr.Errors))
	for _, e := range merr.Errors {
		reasons = append(reasons, e.Error())
	}
	return false, reasons
}

func formatReasons(errs []error) string {
	lines := make([]string, 0, len(errs))
	for _, err := range errs {
		lines = append(lines, err.Error())
	}
	return strings.Join(lines, "\n")
}

func toSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, item := range items {
		out[item] = struct{}{}
	}
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func joinSorted(items []string) string {
	sort.Strings(items)
	return strings.Join(items, ", ")
}
