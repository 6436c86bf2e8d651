// Package contrib provides ready-made schemas for common third-party
// components. They are meant to be merged into an application schema:
//
//	s, err := schema.Merge(appSchema, contrib.Statsd(), contrib.Raven())
package contrib

import (
	"fmt"
	"sort"
	"strings"

	"github.com/openfroyo/configglue/pkg/schema"
)

var registry = map[string]func() *schema.Schema{
	"devserver":          DevServer,
	"django_jenkins":     DjangoJenkins,
	"django_openid_auth": DjangoOpenIDAuth,
	"nexus":              Nexus,
	"preflight":          Preflight,
	"pystatsd":           PyStatsd,
	"raven":              Raven,
	"saml2idp":           Saml2Idp,
	"statsd":             Statsd,
}

// Names returns the registered schema names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a fresh copy of the named schema.
func Lookup(name string) (*schema.Schema, error) {
	build, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown contrib schema %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return build(), nil
}

// Merge merges the named contrib schemas into base.
func Merge(base *schema.Schema, names ...string) (*schema.Schema, error) {
	schemas := []*schema.Schema{base}
	for _, name := range names {
		s, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, s)
	}
	return schema.Merge(schemas...)
}

func stringValues(items ...string) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}

func stringList(name string, settings ...schema.Setting) *schema.ListOption {
	return schema.NewList(name, append([]schema.Setting{schema.Item(schema.NewString(""))}, settings...)...)
}
