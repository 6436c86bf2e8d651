package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// BoolOption parses yes/no style tokens into a bool.
type BoolOption struct {
	optionBase
}

// NewBool creates a BoolOption.
func NewBool(name string, settings ...Setting) *BoolOption {
	cfg := newConfig(name, settings)
	return &BoolOption{optionBase: cfg.optionBase}
}

// Kind reports KindBool.
func (o *BoolOption) Kind() Kind { return KindBool }

// RequireParser reports false; booleans never read other sections.
func (o *BoolOption) RequireParser() bool { return false }

// Default returns the configured default or false.
func (o *BoolOption) Default() any {
	if o.hasDefault {
		return o.defaultValue
	}
	return false
}

// Parse accepts yes/no style words in any case.
func (o *BoolOption) Parse(value string, _ Resolver, raw bool) (any, error) {
	if raw {
		return value, nil
	}
	switch strings.ToLower(value) {
	case "y", "1", "yes", "on", "true":
		return true, nil
	case "n", "0", "no", "off", "false":
		return false, nil
	}
	return nil, NewValueError(fmt.Sprintf("Unable to determine boolosity of %q", value), nil)
}

// Validate reports whether value is a bool.
func (o *BoolOption) Validate(value any) bool {
	_, ok := value.(bool)
	return ok
}

// ToString formats a bool as true or false.
func (o *BoolOption) ToString(value any) (string, error) {
	b, ok := value.(bool)
	if !ok {
		return "", NewTypeError(value, o.Kind())
	}
	return strconv.FormatBool(b), nil
}

// Equal compares attributes and defaults.
func (o *BoolOption) Equal(other Option) bool {
	t, ok := other.(*BoolOption)
	return ok && o.sameAttrs(&t.optionBase) && sameValue(o.Default(), t.Default())
}

func (o *BoolOption) clone() Option {
	return &BoolOption{optionBase: o.copied()}
}

// IntOption parses decimal integers.
type IntOption struct {
	optionBase
}

// NewInt creates an IntOption.
func NewInt(name string, settings ...Setting) *IntOption {
	cfg := newConfig(name, settings)
	return &IntOption{optionBase: cfg.optionBase}
}

// Kind reports KindInt.
func (o *IntOption) Kind() Kind { return KindInt }

// RequireParser reports false.
func (o *IntOption) RequireParser() bool { return false }

// Default returns the configured default or 0.
func (o *IntOption) Default() any {
	if o.hasDefault {
		return o.defaultValue
	}
	return 0
}

// Parse reads a decimal integer.
func (o *IntOption) Parse(value string, _ Resolver, raw bool) (any, error) {
	if raw {
		return value, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return nil, NewValueError(fmt.Sprintf("invalid literal for int: %q", value), nil)
	}
	return n, nil
}

// Validate reports whether value is an int.
func (o *IntOption) Validate(value any) bool {
	_, ok := value.(int)
	return ok
}

// ToString formats an int in decimal.
func (o *IntOption) ToString(value any) (string, error) {
	n, ok := value.(int)
	if !ok {
		return "", NewTypeError(value, o.Kind())
	}
	return strconv.Itoa(n), nil
}

// Equal compares attributes and defaults.
func (o *IntOption) Equal(other Option) bool {
	t, ok := other.(*IntOption)
	return ok && o.sameAttrs(&t.optionBase) && sameValue(o.Default(), t.Default())
}

func (o *IntOption) clone() Option {
	return &IntOption{optionBase: o.copied()}
}

// noneLiteral is the textual form of a null string value.
const noneLiteral = "None"

// StringOption keeps values as text. A null StringOption maps "None" to nil.
type StringOption struct {
	optionBase
	null bool
}

// NewString creates a StringOption.
func NewString(name string, settings ...Setting) *StringOption {
	cfg := newConfig(name, settings)
	return &StringOption{optionBase: cfg.optionBase, null: cfg.null}
}

// Kind reports KindString.
func (o *StringOption) Kind() Kind { return KindString }

// RequireParser reports false.
func (o *StringOption) RequireParser() bool { return false }

// Null reports whether "None" parses to nil.
func (o *StringOption) Null() bool { return o.null }

// Default returns the configured default, nil for null options or "".
func (o *StringOption) Default() any {
	if o.hasDefault {
		return o.defaultValue
	}
	if o.null {
		return nil
	}
	return ""
}

// Parse returns value unchanged, except None for null options.
func (o *StringOption) Parse(value string, _ Resolver, raw bool) (any, error) {
	if raw {
		return value, nil
	}
	if o.null && value == noneLiteral {
		return nil, nil
	}
	return value, nil
}

// Validate reports whether value is a string, or nil for null options.
func (o *StringOption) Validate(value any) bool {
	if value == nil {
		return o.null
	}
	_, ok := value.(string)
	return ok
}

// ToString returns the string, None for a nil null value.
func (o *StringOption) ToString(value any) (string, error) {
	if value == nil && o.null {
		return noneLiteral, nil
	}
	s, ok := value.(string)
	if !ok {
		return "", NewTypeError(value, o.Kind())
	}
	return s, nil
}

// Equal compares attributes, null handling and defaults.
func (o *StringOption) Equal(other Option) bool {
	t, ok := other.(*StringOption)
	return ok && o.sameAttrs(&t.optionBase) &&
		o.null == t.null &&
		sameValue(o.Default(), t.Default())
}

func (o *StringOption) clone() Option {
	return &StringOption{optionBase: o.copied(), null: o.null}
}

// Tuple is the value type of a TupleOption.
type Tuple []string

// TupleOption parses comma separated values into a Tuple.
type TupleOption struct {
	optionBase
	length int
}

// NewTuple creates a TupleOption. A zero length disables the arity check.
func NewTuple(name string, settings ...Setting) *TupleOption {
	cfg := newConfig(name, settings)
	return &TupleOption{optionBase: cfg.optionBase, length: cfg.length}
}

// Kind reports KindTuple.
func (o *TupleOption) Kind() Kind { return KindTuple }

// RequireParser reports false.
func (o *TupleOption) RequireParser() bool { return false }

// Length returns the required arity, zero when unchecked.
func (o *TupleOption) Length() int { return o.length }

// Default returns a copy of the configured default or an empty Tuple.
func (o *TupleOption) Default() any {
	if o.hasDefault {
		return copyValue(o.defaultValue)
	}
	return Tuple{}
}

// Parse splits a comma separated value and checks its length.
func (o *TupleOption) Parse(value string, _ Resolver, raw bool) (any, error) {
	if raw {
		return value, nil
	}
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) == 1 && parts[0] == "()" {
		return Tuple{}, nil
	}
	if err := o.checkLength(parts); err != nil {
		return nil, err
	}
	return Tuple(parts), nil
}

func (o *TupleOption) checkLength(t Tuple) error {
	if o.length > 0 && len(t) != o.length {
		return NewValueError(fmt.Sprintf("Tuples need to be %d items long", o.length), nil)
	}
	return nil
}

// Validate reports whether value is a Tuple.
func (o *TupleOption) Validate(value any) bool {
	_, ok := value.(Tuple)
	return ok
}

// ToString joins the items with ", ", or writes () when empty.
func (o *TupleOption) ToString(value any) (string, error) {
	t, ok := value.(Tuple)
	if !ok {
		return "", NewTypeError(value, o.Kind())
	}
	if len(t) == 0 {
		return "()", nil
	}
	return strings.Join(t, ", "), nil
}

// Equal compares attributes, length and defaults.
func (o *TupleOption) Equal(other Option) bool {
	t, ok := other.(*TupleOption)
	return ok && o.sameAttrs(&t.optionBase) &&
		o.length == t.length &&
		sameValue(o.Default(), t.Default())
}

func (o *TupleOption) clone() Option {
	return &TupleOption{optionBase: o.copied(), length: o.length}
}
