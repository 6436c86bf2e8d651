package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// ListOption parses a JSON array or one element per line through its item option.
type ListOption struct {
	optionBase
	item             Option
	removeDuplicates bool
	parseJSON        bool
}

// NewList creates a ListOption. Items default to StringOption.
func NewList(name string, settings ...Setting) *ListOption {
	cfg := newConfig(name, settings)
	item := cfg.item
	if item == nil {
		item = NewString("")
	}
	o := &ListOption{
		optionBase:       cfg.optionBase,
		item:             item,
		removeDuplicates: cfg.removeDuplicates,
		parseJSON:        cfg.parseJSON,
	}
	o.raw = o.raw || item.Raw()
	return o
}

// Kind reports KindList.
func (o *ListOption) Kind() Kind { return KindList }

// RequireParser reports whether the item option needs a parser.
func (o *ListOption) RequireParser() bool { return o.item.RequireParser() }

// Item returns the element option.
func (o *ListOption) Item() Option { return o.item }

// RemoveDuplicates reports whether repeated elements are dropped.
func (o *ListOption) RemoveDuplicates() bool { return o.removeDuplicates }

// Default returns a copy of the configured default or an empty list.
func (o *ListOption) Default() any {
	if o.hasDefault {
		return copyValue(o.defaultValue)
	}
	return []any{}
}

// Parse reads a JSON array, or one item per non-blank line.
func (o *ListOption) Parse(value string, r Resolver, raw bool) (any, error) {
	var items []any
	parsed := false
	if o.parseJSON {
		if v, ok := decodeJSON(value); ok {
			if arr, ok := v.([]any); ok {
				coerced, err := o.coerceItems(arr, r, raw)
				if err != nil {
					return nil, err
				}
				items = coerced
				parsed = true
			}
		}
	}
	if !parsed {
		items = []any{}
		for _, line := range strings.Split(value, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			v, err := o.item.Parse(line, r, raw)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
	}
	if o.removeDuplicates {
		items = dedupe(items)
	}
	return items, nil
}

func (o *ListOption) coerceItems(arr []any, r Resolver, raw bool) ([]any, error) {
	out := make([]any, 0, len(arr))
	for _, e := range arr {
		v, err := coerce(o.item, e, r, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Validate reports whether value is a []any.
func (o *ListOption) Validate(value any) bool {
	_, ok := value.([]any)
	return ok
}

// ToString writes a JSON array, or one item per line when JSON is disabled.
func (o *ListOption) ToString(value any) (string, error) {
	items, ok := value.([]any)
	if !ok {
		return "", NewTypeError(value, o.Kind())
	}
	if o.parseJSON {
		return marshalJSON(items)
	}
	lines := make([]string, 0, len(items))
	for _, e := range items {
		s, err := o.item.ToString(e)
		if err != nil {
			return "", err
		}
		lines = append(lines, s)
	}
	return strings.Join(lines, "\n"), nil
}

// Equal compares attributes, item options and defaults.
func (o *ListOption) Equal(other Option) bool {
	t, ok := other.(*ListOption)
	return ok && o.sameAttrs(&t.optionBase) &&
		equalOptions(o.item, t.item) &&
		o.removeDuplicates == t.removeDuplicates &&
		o.parseJSON == t.parseJSON &&
		sameValue(o.Default(), t.Default())
}

func (o *ListOption) clone() Option {
	return &ListOption{
		optionBase:       o.copied(),
		item:             cloneOption(o.item),
		removeDuplicates: o.removeDuplicates,
		parseJSON:        o.parseJSON,
	}
}

// DictOption resolves a JSON object or the contents of a referenced section.
type DictOption struct {
	optionBase
	spec      map[string]Option
	strict    bool
	item      Option
	parseJSON bool
}

// NewDict creates a DictOption. Keys missing from the spec use item, which
// defaults to StringOption.
func NewDict(name string, settings ...Setting) *DictOption {
	cfg := newConfig(name, settings)
	item := cfg.item
	if item == nil {
		item = NewString("")
	}
	spec := cfg.spec
	if spec == nil {
		spec = map[string]Option{}
	}
	return &DictOption{
		optionBase: cfg.optionBase,
		spec:       spec,
		strict:     cfg.strict,
		item:       item,
		parseJSON:  cfg.parseJSON,
	}
}

// Kind reports KindDict.
func (o *DictOption) Kind() Kind { return KindDict }

// RequireParser reports true since values may name other sections.
func (o *DictOption) RequireParser() bool { return true }

// Spec returns the option for a known key.
func (o *DictOption) Spec(key string) (Option, bool) {
	opt, ok := o.spec[key]
	return opt, ok
}

// Keys returns the known keys in sorted order.
func (o *DictOption) Keys() []string {
	keys := make([]string, 0, len(o.spec))
	for k := range o.spec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Item returns the fallback option for unknown keys.
func (o *DictOption) Item() Option { return o.item }

// Strict reports whether unknown keys are rejected.
func (o *DictOption) Strict() bool { return o.strict }

// Default returns the configured default or the defaults of every spec key.
func (o *DictOption) Default() any {
	if o.hasDefault {
		return copyValue(o.defaultValue)
	}
	def := make(map[string]any, len(o.spec))
	for key, opt := range o.spec {
		def[key] = opt.Default()
	}
	return def
}

// Parse reads a JSON object, or the items of the section named by value.
func (o *DictOption) Parse(value string, r Resolver, raw bool) (any, error) {
	if o.parseJSON {
		if v, ok := decodeJSON(value); ok {
			if m, ok := v.(map[string]any); ok {
				return o.coerceMap(m, value, r, raw)
			}
		}
	}
	if r == nil {
		return nil, NewValueError(fmt.Sprintf("cannot resolve section reference %q without a parser", value), nil)
	}

	sections := strings.Fields(value)
	r.AddExtraSections(sections...)
	for _, name := range sections {
		nested, err := o.ExtraSections(name, r)
		if err != nil {
			return nil, err
		}
		r.AddExtraSections(nested...)
	}

	source := strings.TrimSpace(value)
	items, err := r.Items(source)
	if err != nil {
		return nil, err
	}
	m := make(map[string]any, len(items))
	for k, v := range items {
		m[k] = v
	}
	return o.coerceMap(m, source, r, raw)
}

func (o *DictOption) coerceMap(m map[string]any, source string, r Resolver, raw bool) (map[string]any, error) {
	result := make(map[string]any, len(m))
	for key, v := range m {
		opt, ok := o.spec[key]
		if !ok {
			if o.strict {
				return nil, NewValueError(fmt.Sprintf("Invalid key %s in section %s", key, source), nil)
			}
			opt = o.item
		}
		parsed, err := coerce(opt, v, r, raw)
		if err != nil {
			return nil, err
		}
		result[key] = parsed
	}

	for key, opt := range o.spec {
		if _, ok := m[key]; ok {
			continue
		}
		if opt.Fatal() {
			return nil, NewValueError(fmt.Sprintf("No option '%s' in section '%s'", key, source), nil)
		}
		def := opt.Default()
		if raw {
			if s, err := opt.ToString(def); err == nil {
				def = s
			} else {
				def = fmt.Sprint(def)
			}
		}
		result[key] = def
	}
	return result, nil
}

// Validate reports whether value is a map[string]any.
func (o *DictOption) Validate(value any) bool {
	_, ok := value.(map[string]any)
	return ok
}

// ToString writes value as a JSON object.
func (o *DictOption) ToString(value any) (string, error) {
	m, ok := value.(map[string]any)
	if !ok {
		return "", NewTypeError(value, o.Kind())
	}
	if !o.parseJSON {
		return "", NewValueError("DictOption values without JSON support are stored as section references and cannot be serialized", nil)
	}
	return marshalJSON(m)
}

// ExtraSections returns the sections referenced, directly or transitively,
// by dict-typed entries stored in section.
func (o *DictOption) ExtraSections(section string, r Resolver) ([]string, error) {
	names, err := r.Options(section)
	if err != nil {
		return nil, err
	}
	var sections []string
	for _, name := range names {
		opt, ok := o.spec[name]
		if !ok {
			opt = o.item
		}
		var nested *DictOption
		switch t := opt.(type) {
		case *DictOption:
			nested = t
		case *ListOption:
			if d, ok := t.item.(*DictOption); ok {
				nested = d
			}
		}
		if nested == nil {
			continue
		}

		value, err := r.Value(section, name)
		if err != nil {
			return nil, err
		}
		if nested.parseJSON {
			if _, ok := decodeJSON(value); ok {
				continue
			}
		}
		refs := strings.Fields(value)
		sections = append(sections, refs...)
		for _, ref := range refs {
			extra, err := nested.ExtraSections(ref, r)
			if err != nil {
				return nil, err
			}
			sections = append(sections, extra...)
		}
	}
	return sections, nil
}

// Equal compares attributes, spec, item options and defaults.
func (o *DictOption) Equal(other Option) bool {
	t, ok := other.(*DictOption)
	if !ok || !o.sameAttrs(&t.optionBase) ||
		o.strict != t.strict ||
		o.parseJSON != t.parseJSON ||
		!equalOptions(o.item, t.item) ||
		len(o.spec) != len(t.spec) {
		return false
	}
	for key, opt := range o.spec {
		if !equalOptions(opt, t.spec[key]) {
			return false
		}
	}
	return sameValue(o.Default(), t.Default())
}

func (o *DictOption) clone() Option {
	spec := make(map[string]Option, len(o.spec))
	for k, v := range o.spec {
		spec[k] = cloneOption(v)
	}
	return &DictOption{
		optionBase: o.copied(),
		spec:       spec,
		strict:     o.strict,
		item:       cloneOption(o.item),
		parseJSON:  o.parseJSON,
	}
}

// coerce converts a decoded JSON value or a section item into the domain
// of opt.
func coerce(opt Option, v any, r Resolver, raw bool) (any, error) {
	switch t := opt.(type) {
	case *ListOption:
		if arr, ok := v.([]any); ok {
			return t.coerceItems(arr, r, raw)
		}
	case *DictOption:
		if m, ok := v.(map[string]any); ok {
			return t.coerceMap(m, "<json>", r, raw)
		}
	case *TupleOption:
		if arr, ok := v.([]any); ok {
			tup := make(Tuple, len(arr))
			for i, e := range arr {
				s, ok := jsonText(e)
				if !ok {
					s = fmt.Sprint(e)
				}
				tup[i] = s
			}
			if err := t.checkLength(tup); err != nil {
				return nil, err
			}
			return tup, nil
		}
	}
	if n, ok := v.(json.Number); ok && raw {
		return n.String(), nil
	}
	if raw || opt.Validate(v) {
		return v, nil
	}
	s, ok := jsonText(v)
	if !ok {
		return nil, NewValueError(fmt.Sprintf("cannot convert %v to %s", v, opt.Kind()), nil)
	}
	return opt.Parse(s, r, false)
}

func jsonText(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	case int:
		return strconv.Itoa(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case nil:
		return noneLiteral, true
	}
	return "", false
}

// decodeJSON decodes value as a single JSON document, keeping numbers as
// json.Number.
func decodeJSON(value string) (any, bool) {
	dec := json.NewDecoder(strings.NewReader(value))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}
	return v, true
}

func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", NewValueError("cannot encode value as JSON", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func dedupe(items []any) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		seen := false
		for _, kept := range out {
			if sameValue(kept, item) {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, item)
		}
	}
	return out
}
