package parser

import (
	"strings"
	"testing"

	"github.com/openfroyo/configglue/pkg/schema"
)

func mapLookup(values map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestInterpolate(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"base":  "/srv",
		"app":   "%(base)s/app",
		"ratio": "50%%",
	})

	tests := []struct {
		name     string
		value    string
		expected string
	}{
		{"plain", "hello", "hello"},
		{"reference", "%(base)s/data", "/srv/data"},
		{"nested", "%(app)s/logs", "/srv/app/logs"},
		{"escaped percent", "100%%", "100%"},
		{"escaped in reference", "%(ratio)s", "50%"},
		{"case insensitive key", "%(BASE)s", "/srv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := interpolate("s", "o", tt.value, lookup, 1)
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestInterpolate_Errors(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"a": "%(b)s",
		"b": "%(a)s",
	})

	tests := []struct {
		name  string
		value string
		code  string
	}{
		{"missing key", "%(nope)s", schema.CodeInterpolationMissing},
		{"stray percent", "50%", schema.CodeInterpolationSyntax},
		{"bad reference", "%(open", schema.CodeInterpolationSyntax},
		{"recursion", "%(a)s", schema.CodeInterpolationDepth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := interpolate("s", "o", tt.value, lookup, 1)
			if err == nil {
				t.Fatal("Expected error")
			}
			cfgErr, ok := err.(*schema.ConfigError)
			if !ok {
				t.Fatalf("Expected ConfigError, got %T", err)
			}
			if cfgErr.Code != tt.code {
				t.Errorf("Expected code %s, got %s", tt.code, cfgErr.Code)
			}
		})
	}
}

func TestInterpolationKeys(t *testing.T) {
	keys := interpolationKeys("%(a)s and %(B)s and %(a)s and %()s")
	if strings.Join(keys, ",") != "a,b" {
		t.Errorf("Expected [a b], got %v", keys)
	}
}

func TestSubstitute(t *testing.T) {
	got, err := substitute("%(a)s-%(b)s 100%%", map[string]string{"a": "x", "b": "%(c)s"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if got != "x-%(c)s 100%" {
		t.Errorf("Expected substituted values to be left as they are, got %q", got)
	}

	if _, err := substitute("%(missing)s", nil); !schema.IsInterpolationMissing(err) {
		t.Errorf("Expected missing interpolation error, got: %v", err)
	}
}

func TestCheckInterpolationSyntax(t *testing.T) {
	valid := []string{"plain", "100%%", "%(ref)s/x", "%%(literal)s"}
	for _, v := range valid {
		if err := checkInterpolationSyntax(v); err != nil {
			t.Errorf("Expected %q to be valid, got: %v", v, err)
		}
	}

	invalid := []string{"50%", "%(ref)", "%s"}
	for _, v := range invalid {
		if err := checkInterpolationSyntax(v); err == nil {
			t.Errorf("Expected %q to be rejected", v)
		}
	}
}

func TestExpandEnvironment(t *testing.T) {
	env := mapLookup(map[string]string{
		"HOME":  "/home/user",
		"PORT":  "8080",
		"EMPTY": "",
	})

	tests := []struct {
		name     string
		value    string
		expected string
	}{
		{"no reference", "plain", "plain"},
		{"bare", "$HOME/bin", "/home/user/bin"},
		{"braced", "${HOME}/bin", "/home/user/bin"},
		{"multiple", "$HOME:${PORT}", "/home/user:8080"},
		{"default unused", "${PORT:-80}", "8080"},
		{"default used", "${UNSET:-80}", "80"},
		{"empty value is set", "${EMPTY:-fallback}", ""},
		{"nested default", "${UNSET:-${HOME}}", "/home/user"},
		{"nested default chain", "${UNSET:-${OTHER:-last}}", "last"},
		{"lowercase is literal", "$home", "$home"},
		{"lone dollar", "cost: 5$", "cost: 5$"},
		{"unterminated brace", "${HOME", "${HOME"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandEnvironment(tt.value, env)
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestExpandEnvironment_Missing(t *testing.T) {
	env := mapLookup(nil)
	for _, value := range []string{"$MISSING", "${MISSING}", "${UNSET:-$MISSING}"} {
		_, err := expandEnvironment(value, env)
		if !schema.IsEnvironmentMissing(err) {
			t.Errorf("Expected environment missing error for %q, got: %v", value, err)
		}
	}
}

func TestExpandEnvironment_Budget(t *testing.T) {
	value := strings.Repeat("${UNSET:-1}", maxEnvironmentInterpolations+1)
	got, err := expandEnvironment(value, mapLookup(nil))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if got != value {
		t.Errorf("Expected defaults to be left unexpanded once the budget is exhausted, got %q", got)
	}

	value = strings.Repeat("${UNSET:-1}", maxEnvironmentInterpolations)
	got, err = expandEnvironment(value, mapLookup(nil))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if got != strings.Repeat("1", maxEnvironmentInterpolations) {
		t.Errorf("Expected all defaults to expand, got %q", got)
	}
}
