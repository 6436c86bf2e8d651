package parser

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/openfroyo/configglue/pkg/schema"
)

// defaultSection holds keys visible to every section during interpolation.
const defaultSection = "DEFAULT"

var (
	sectionRe = regexp.MustCompile(`^\[([^\]]+)\]`)
	optionRe  = regexp.MustCompile(`^([^:=\s][^:=]*?)\s*([:=])\s*(.*)$`)
)

// section is an ordered mapping of option name to raw value.
type section struct {
	name   string
	keys   []string
	values map[string]string
}

func newSection(name string) *section {
	return &section{name: name, values: make(map[string]string)}
}

func (s *section) get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

func (s *section) set(key, value string) {
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
}

func (s *section) clone() *section {
	c := newSection(s.name)
	for _, k := range s.keys {
		c.set(k, s.values[k])
	}
	return c
}

// store holds raw configuration values in file order.
type store struct {
	defaults *section
	sections map[string]*section
	order    []string
}

func newStore() *store {
	return &store{
		defaults: newSection(defaultSection),
		sections: make(map[string]*section),
	}
}

func (st *store) get(name string) (*section, bool) {
	if name == defaultSection {
		return st.defaults, true
	}
	sec, ok := st.sections[name]
	return sec, ok
}

func (st *store) has(name string) bool {
	_, ok := st.sections[name]
	return ok
}

func (st *store) hasOption(sectionName, key string) bool {
	sec, ok := st.get(sectionName)
	if !ok {
		return false
	}
	_, ok = sec.get(key)
	return ok
}

func (st *store) ensure(name string) *section {
	if sec, ok := st.get(name); ok {
		return sec
	}
	sec := newSection(name)
	st.sections[name] = sec
	st.order = append(st.order, name)
	return sec
}

// names returns the stored sections in order, excluding DEFAULT.
func (st *store) names() []string {
	out := make([]string, len(st.order))
	copy(out, st.order)
	return out
}

func (st *store) clone() *store {
	c := newStore()
	c.defaults = st.defaults.clone()
	for _, name := range st.order {
		c.sections[name] = st.sections[name].clone()
		c.order = append(c.order, name)
	}
	return c
}

// mergeFrom overlays src onto st key by key. The includes option of
// __main__ is dropped when stripIncludes is set.
func (st *store) mergeFrom(src *store, stripIncludes bool) {
	for _, key := range src.defaults.keys {
		st.defaults.set(key, src.defaults.values[key])
	}
	for _, name := range src.order {
		dst := st.ensure(name)
		sec := src.sections[name]
		for _, key := range sec.keys {
			if stripIncludes && name == schema.MainSection && key == schema.IncludesOption {
				continue
			}
			dst.set(key, sec.values[key])
		}
	}
}

// parseINI reads INI content into st. Sections already present are
// extended. Malformed lines are collected and reported together once the
// whole input has been read.
func parseINI(st *store, content, name string) error {
	if name == "" {
		name = "<???>"
	}
	var (
		cur     *section
		optname string
		bad     []string
	)
	lines := strings.Split(content, "\n")
	for i := 0; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], "\r")
		if strings.TrimSpace(line) == "" || line[0] == '#' || line[0] == ';' {
			continue
		}
		if isRemark(line) {
			continue
		}

		// continuation line
		if isSpace(line[0]) && cur != nil && optname != "" {
			if v := strings.TrimSpace(line); v != "" {
				cur.values[optname] += "\n" + v
			}
			continue
		}

		if m := sectionRe.FindStringSubmatch(line); m != nil {
			cur = st.ensure(m[1])
			optname = ""
			continue
		}
		if cur == nil {
			return schema.NewParseError(fmt.Sprintf(
				"File contains no section headers.\nfile: %s, line: %d\n%q", name, i+1, line)).
				WithCode(schema.CodeMissingSectionHeader)
		}

		m := optionRe.FindStringSubmatch(line)
		if m == nil {
			bad = append(bad, fmt.Sprintf("\t[line %2d]: %q", i+1, line))
			continue
		}
		key := strings.ToLower(strings.TrimRightFunc(m[1], unicode.IsSpace))
		value := m[3]

		if strings.HasPrefix(value, `"""`) {
			value, i = readQuoted(lines, i, value[3:])
			cur.set(key, value)
			optname = ""
			continue
		}

		if pos := strings.IndexByte(value, ';'); pos > 0 && isSpace(value[pos-1]) {
			value = value[:pos]
		}
		value = strings.TrimSpace(value)
		if value == `""` {
			value = ""
		}
		cur.set(key, value)
		optname = key
	}

	if len(bad) > 0 {
		return schema.NewParseError(fmt.Sprintf(
			"File contains parsing errors: %s\n%s", name, strings.Join(bad, "\n")))
	}
	return nil
}

// readQuoted collects a """-quoted value that may span several lines. It
// returns the value and the index of the last line consumed.
func readQuoted(lines []string, i int, rest string) (string, int) {
	rest = strings.TrimRight(rest, " \t\r")
	if strings.HasSuffix(rest, `"""`) {
		return strings.TrimSuffix(rest, `"""`), i
	}
	buf := []string{rest}
	for i+1 < len(lines) {
		i++
		line := strings.TrimRight(lines[i], " \t\r")
		if strings.HasSuffix(line, `"""`) {
			buf = append(buf, strings.TrimSuffix(line, `"""`))
			break
		}
		buf = append(buf, line)
	}
	return strings.Join(buf, "\n"), i
}

func isRemark(line string) bool {
	if line[0] != 'r' && line[0] != 'R' {
		return false
	}
	fields := strings.Fields(line)
	return len(fields) > 0 && strings.ToLower(fields[0]) == "rem"
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\f' || c == '\v'
}

// writeINI serializes st. Multi-line values are written as tab-indented
// continuation lines.
func writeINI(w io.Writer, st *store) error {
	write := func(sec *section) error {
		if _, err := fmt.Fprintf(w, "[%s]\n", sec.name); err != nil {
			return err
		}
		for _, key := range sec.keys {
			value := strings.ReplaceAll(sec.values[key], "\n", "\n\t")
			if _, err := fmt.Fprintf(w, "%s = %s\n", key, value); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "\n")
		return err
	}

	if len(st.defaults.keys) > 0 {
		if err := write(st.defaults); err != nil {
			return err
		}
	}
	for _, name := range st.order {
		if err := write(st.sections[name]); err != nil {
			return err
		}
	}
	return nil
}
