package glue

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/openfroyo/configglue/pkg/parser"
	"github.com/openfroyo/configglue/pkg/schema"
)

// optionValue is the pflag.Value behind an option flag. It keeps the raw
// command line text; conversion to the option's type happens once all
// flags are parsed.
type optionValue struct {
	opt    schema.Option
	def    string
	values []string
}

var _ pflag.Value = (*optionValue)(nil)

func (v *optionValue) String() string {
	if len(v.values) == 0 {
		return v.def
	}
	if v.opt.Action() == schema.ActionAppend {
		return "[" + strings.Join(v.values, ",") + "]"
	}
	return v.values[len(v.values)-1]
}

func (v *optionValue) Set(s string) error {
	switch v.opt.Action() {
	case schema.ActionStoreTrue, schema.ActionStoreFalse:
		if _, err := strconv.ParseBool(s); err != nil {
			return fmt.Errorf("invalid boolean %q", s)
		}
	case schema.ActionAppend:
		v.values = append(v.values, s)
		return nil
	}
	v.values = []string{s}
	return nil
}

func (v *optionValue) Type() string {
	switch v.opt.Action() {
	case schema.ActionStoreTrue, schema.ActionStoreFalse:
		return "bool"
	case schema.ActionAppend:
		return "stringArray"
	}
	return string(v.opt.Kind())
}

// resolve converts the command line text into a value of the option's type.
func (v *optionValue) resolve(p *parser.SchemaConfigParser) (any, error) {
	opt := v.opt
	switch opt.Action() {
	case schema.ActionStoreTrue, schema.ActionStoreFalse:
		return strconv.ParseBool(v.values[len(v.values)-1])
	case schema.ActionAppend:
		list, ok := opt.(*schema.ListOption)
		if !ok {
			return nil, fmt.Errorf("append requires a list option")
		}
		current, err := p.Get(opt.Section(), opt.Name())
		if err != nil && !schema.IsMissing(err) {
			return nil, err
		}
		items, _ := current.([]any)
		items = append([]any{}, items...)
		for _, s := range v.values {
			item, err := list.Item().Parse(s, p, false)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	}
	return p.Parse(opt.Section(), opt.Name(), v.values[len(v.values)-1])
}
