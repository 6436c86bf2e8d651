package schema

import (
	"fmt"
	"strings"
)

// Merge combines schemas into a new one. Sections present in only one
// schema are copied whole; options declared by several schemas in the same
// section must be equal or the merge fails.
func Merge(schemas ...*Schema) (*Schema, error) {
	names := make([]string, 0, len(schemas))
	for _, s := range schemas {
		names = append(names, s.name)
	}
	merged := &Schema{
		name:     "Merged" + strings.Join(names, ""),
		sections: make(map[string]*Section),
		includes: newIncludesOption(),
	}

	for _, s := range schemas {
		if s.explicitMain {
			merged.explicitMain = true
		}
		for _, sec := range s.Sections() {
			existing, ok := merged.sections[sec.name]
			if !ok {
				merged.sections[sec.name] = sec.clone()
				merged.order = append(merged.order, sec.name)
				continue
			}
			for _, opt := range sec.Options() {
				current, ok := existing.options[opt.Name()]
				if !ok {
					existing.put(opt.clone())
					continue
				}
				if !current.Equal(opt) {
					return nil, NewSchemaValidationError(fmt.Sprintf(
						"Conflicting option '%s.%s' while merging schemas.", sec.name, opt.Name())).
						WithCode(CodeMergeConflict).
						WithOption(sec.name, opt.Name())
				}
			}
		}
	}
	return merged, nil
}
