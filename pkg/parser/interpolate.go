package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/openfroyo/configglue/pkg/schema"
)

const (
	// maxInterpolationDepth bounds nested %(name)s references.
	maxInterpolationDepth = 10

	// maxEnvironmentInterpolations bounds ${NAME:-default} expansions in a
	// single value.
	maxEnvironmentInterpolations = 50
)

var (
	interpolationRefRe = regexp.MustCompile(`^%\(([^)]+)\)s`)
	interpolationKeyRe = regexp.MustCompile(`%\(([^)]*)\)s`)
	substituteRe       = regexp.MustCompile(`%%|%\(([^)]+)\)s`)
	envNameRe          = regexp.MustCompile(`^[A-Z_]+`)
)

type lookupFunc func(key string) (string, bool)

// interpolate expands %(name)s references in value using lookup. A literal
// percent sign is written as %%.
func interpolate(section, option, value string, lookup lookupFunc, depth int) (string, error) {
	if depth > maxInterpolationDepth {
		return "", schema.NewInterpolationError(schema.CodeInterpolationDepth, section, option,
			fmt.Sprintf("Value interpolation too deeply recursive:\n\tsection: [%s]\n\toption : %s\n\trawval : %s",
				section, option, value))
	}

	var b strings.Builder
	rest := value
	for rest != "" {
		p := strings.IndexByte(rest, '%')
		if p < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:p])
		rest = rest[p:]
		if len(rest) < 2 {
			return "", syntaxError(section, option, value, rest)
		}

		switch rest[1] {
		case '%':
			b.WriteByte('%')
			rest = rest[2:]
		case '(':
			m := interpolationRefRe.FindStringSubmatch(rest)
			if m == nil {
				return "", schema.NewInterpolationError(schema.CodeInterpolationSyntax, section, option,
					fmt.Sprintf("bad interpolation variable reference %q", rest))
			}
			rest = rest[len(m[0]):]
			key := strings.ToLower(m[1])
			v, ok := lookup(key)
			if !ok {
				return "", schema.NewInterpolationError(schema.CodeInterpolationMissing, section, option,
					fmt.Sprintf("Bad value substitution:\n\tsection: [%s]\n\toption : %s\n\tkey    : %s\n\trawval : %s",
						section, option, key, value))
			}
			if strings.Contains(v, "%") {
				expanded, err := interpolate(section, key, v, lookup, depth+1)
				if err != nil {
					return "", err
				}
				v = expanded
			}
			b.WriteString(v)
		default:
			return "", syntaxError(section, option, value, rest)
		}
	}
	return b.String(), nil
}

func syntaxError(section, option, value, rest string) error {
	return schema.NewInterpolationError(schema.CodeInterpolationSyntax, section, option,
		fmt.Sprintf("'%%' must be followed by '%%' or '(', found: %q in %q", rest, value))
}

// interpolationKeys returns the distinct reference names in value, in order
// of appearance.
func interpolationKeys(value string) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, m := range interpolationKeyRe.FindAllStringSubmatch(value, -1) {
		key := strings.ToLower(m[1])
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		keys = append(keys, key)
	}
	return keys
}

// substitute replaces references in value with entries of values without
// following references in the substituted text.
func substitute(value string, values map[string]string) (string, error) {
	var missing string
	out := substituteRe.ReplaceAllStringFunc(value, func(m string) string {
		if m == "%%" {
			return "%"
		}
		key := strings.ToLower(m[2 : len(m)-2])
		v, ok := values[key]
		if !ok && missing == "" {
			missing = key
		}
		return v
	})
	if missing != "" {
		return "", schema.NewInterpolationError(schema.CodeInterpolationMissing, "", missing,
			fmt.Sprintf("no value for reference %q", missing))
	}
	return out, nil
}

// checkInterpolationSyntax rejects values that would not survive
// interpolation when read back.
func checkInterpolationSyntax(value string) error {
	tmp := strings.ReplaceAll(value, "%%", "")
	tmp = interpolationKeyRe.ReplaceAllString(tmp, "")
	if pos := strings.IndexByte(tmp, '%'); pos >= 0 {
		return schema.NewValueError(fmt.Sprintf("invalid interpolation syntax in %q at position %d", value, pos), nil)
	}
	return nil
}

var errEnvironmentBudget = errors.New("too many environment interpolations")

// envExpander expands $NAME, ${NAME} and ${NAME:-default} references.
type envExpander struct {
	lookup   lookupFunc
	budget   int
	defaults bool
}

// expandEnvironment expands environment references in value. A reference
// to an unset variable without a default is an error. When a value needs
// more than maxEnvironmentInterpolations default expansions, the
// ${NAME:-default} forms are left as they are.
func expandEnvironment(value string, lookup lookupFunc) (string, error) {
	if !strings.Contains(value, "$") {
		return value, nil
	}
	e := &envExpander{lookup: lookup, budget: maxEnvironmentInterpolations, defaults: true}
	out, err := e.expand(value)
	if errors.Is(err, errEnvironmentBudget) {
		e = &envExpander{lookup: lookup}
		return e.expand(value)
	}
	return out, err
}

func (e *envExpander) expand(s string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] != '$' {
			b.WriteByte(s[i])
			i++
			continue
		}
		rest := s[i+1:]

		if strings.HasPrefix(rest, "{") {
			name := envNameRe.FindString(rest[1:])
			after := rest[1+len(name):]
			switch {
			case name != "" && strings.HasPrefix(after, "}"):
				v, err := e.get(name)
				if err != nil {
					return "", err
				}
				b.WriteString(v)
				i += 3 + len(name)
				continue
			case name != "" && e.defaults && strings.HasPrefix(after, ":-"):
				end := closingBrace(after[2:])
				if end < 0 {
					break
				}
				e.budget--
				if e.budget < 0 {
					return "", errEnvironmentBudget
				}
				v, ok := e.lookup(name)
				if !ok {
					var err error
					if v, err = e.expand(after[2 : 2+end]); err != nil {
						return "", err
					}
				}
				b.WriteString(v)
				i += 1 + 1 + len(name) + 2 + end + 1
				continue
			}
		} else if name := envNameRe.FindString(rest); name != "" {
			v, err := e.get(name)
			if err != nil {
				return "", err
			}
			b.WriteString(v)
			i += 1 + len(name)
			continue
		}

		b.WriteByte('$')
		i++
	}
	return b.String(), nil
}

func (e *envExpander) get(name string) (string, error) {
	v, ok := e.lookup(name)
	if !ok {
		return "", schema.NewInterpolationError(schema.CodeEnvironmentMissing, "", name,
			fmt.Sprintf("environment variable %s is not set", name))
	}
	return v, nil
}

// closingBrace returns the index of the brace closing a ${ opened before s,
// skipping nested ${...} references.
func closingBrace(s string) int {
	depth := 0
	for j := 0; j < len(s); j++ {
		switch {
		case strings.HasPrefix(s[j:], "${"):
			depth++
			j++
		case s[j] == '}':
			if depth == 0 {
				return j
			}
			depth--
		}
	}
	return -1
}
