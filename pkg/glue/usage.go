package glue

import (
	"strings"

	"github.com/spf13/pflag"

	"github.com/openfroyo/configglue/pkg/schema"
)

// Usage renders the option flags registered on fs grouped by schema
// section. Options of __main__ are listed without a heading.
func Usage(fs *pflag.FlagSet, s *schema.Schema) string {
	var b strings.Builder
	for _, sec := range s.Sections() {
		group := pflag.NewFlagSet(sec.Name(), pflag.ContinueOnError)
		for _, opt := range sec.Options() {
			if f := fs.Lookup(LongName(opt)); f != nil {
				group.AddFlag(f)
			}
		}
		if !group.HasFlags() {
			continue
		}
		if sec.Name() != schema.MainSection {
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(sec.Name() + ":\n")
		}
		b.WriteString(group.FlagUsages())
	}
	return b.String()
}
