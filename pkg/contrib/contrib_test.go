package contrib

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/openfroyo/configglue/pkg/parser"
	"github.com/openfroyo/configglue/pkg/schema"
)

func TestRegistrySchemasAreValid(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			s, err := Lookup(name)
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if !s.IsValid() {
				t.Fatalf("Expected %s to be valid", name)
			}

			p, err := parser.New(s)
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if err := p.ParseAll(); err != nil {
				t.Errorf("Expected defaults to parse, got: %v", err)
			}
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	if _, err := Lookup("nope"); err == nil {
		t.Error("Expected error for unknown schema")
	}
}

func TestStatsdDefaults(t *testing.T) {
	p, err := parser.New(PyStatsd())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	values, err := p.SectionValues("statsd")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	expected := map[string]any{"statsd_host": "localhost", "statsd_port": 8125}
	if diff := cmp.Diff(expected, values); diff != "" {
		t.Errorf("Values mismatch (-want +got):\n%s", diff)
	}
}

func TestMerge(t *testing.T) {
	app := schema.NewBuilder("App").Option(schema.NewString("name", schema.Default("demo"))).MustBuild()

	merged, err := Merge(app, "statsd", "pystatsd", "raven")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	for _, section := range []string{schema.MainSection, "statsd", "raven"} {
		if !merged.HasSection(section) {
			t.Errorf("Expected merged schema to have section %s", section)
		}
	}

	conflicting := schema.NewBuilder("Other").
		Section("statsd", schema.NewInt("statsd_host")).
		MustBuild()
	_, err = Merge(conflicting, "statsd")
	if !schema.IsSchemaValidation(err) {
		t.Errorf("Expected merge conflict, got: %v", err)
	}
}

func TestDevServerDefaults(t *testing.T) {
	p, err := parser.New(DevServer())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	length, _ := p.Get("devserver", "devserver_ajax_content_length")
	if length != 300 {
		t.Errorf("Expected 300, got %v", length)
	}
	prefixes, _ := p.Get("devserver", "devserver_ignored_prefixes")
	if diff := cmp.Diff([]any{"/media", "/uploads"}, prefixes); diff != "" {
		t.Errorf("Prefixes mismatch (-want +got):\n%s", diff)
	}
}
