package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/openfroyo/configglue/pkg/schema"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func newTestParser(t *testing.T, s *schema.Schema, opts ...Option) *SchemaConfigParser {
	t.Helper()
	p, err := New(s, opts...)
	if err != nil {
		t.Fatalf("Expected no error creating parser, got: %v", err)
	}
	return p
}

func intSchema(names ...string) *schema.Schema {
	b := schema.NewBuilder("ints")
	for _, name := range names {
		b.Option(schema.NewInt(name))
	}
	return b.MustBuild()
}

func TestNew_InvalidSchema(t *testing.T) {
	s := schema.NewBuilder("bad").Section(schema.MainSection, schema.NewInt("foo")).MustBuild()

	_, err := New(s)
	if !schema.IsSchemaValidation(err) {
		t.Fatalf("Expected schema validation error, got: %v", err)
	}

	if _, err := New(nil); !schema.IsSchemaValidation(err) {
		t.Errorf("Expected schema validation error for nil schema, got: %v", err)
	}
}

func TestRead_IncludesAndLocalOverride(t *testing.T) {
	dir := t.TempDir()
	first := writeConfig(t, dir, "first.cfg", "[__main__]\nfoo = 1\nbar = 2\n")
	second := writeConfig(t, dir, "second.cfg", "[__main__]\nincludes = first.cfg\nfoo = 4\nbaz = 3\n")

	p := newTestParser(t, intSchema("foo", "bar", "baz"))
	read, err := p.Read(second)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(read) != 1 || read[0] != second {
		t.Errorf("Expected [%s], got %v", second, read)
	}

	values, err := p.SectionValues(schema.MainSection)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	expected := map[string]any{"foo": 4, "bar": 2, "baz": 3}
	if diff := cmp.Diff(expected, values); diff != "" {
		t.Errorf("Values mismatch (-want +got):\n%s", diff)
	}

	if got := p.Locate("bar"); got != first {
		t.Errorf("Expected bar to be located in %s, got %s", first, got)
	}
	if got := p.Locate("foo"); got != second {
		t.Errorf("Expected foo to be located in %s, got %s", second, got)
	}
	if p.basedir != "" {
		t.Errorf("Expected basedir to be restored, got %q", p.basedir)
	}
	if p.HasOption(schema.MainSection, schema.IncludesOption) {
		t.Error("Expected includes not to be merged into the reading parser")
	}
}

func TestRead_IncludesRelativeToIncludingFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "conf.d"), 0o755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	writeConfig(t, dir, "conf.d/base.cfg", "[__main__]\nfoo = 7\n")
	main := writeConfig(t, dir, "main.cfg", "[__main__]\nincludes =\n    conf.d/base.cfg\n")

	p := newTestParser(t, intSchema("foo"))
	if _, err := p.Read(main); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	foo, err := p.Get(schema.MainSection, "foo")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if foo != 7 {
		t.Errorf("Expected 7, got %v", foo)
	}
}

func TestRead_IncludeCycle(t *testing.T) {
	dir := t.TempDir()
	a := writeConfig(t, dir, "a.cfg", "[__main__]\nincludes = b.cfg\nfoo = 1\n")
	writeConfig(t, dir, "b.cfg", "[__main__]\nincludes = a.cfg\nbar = 2\n")

	p := newTestParser(t, intSchema("foo", "bar"))
	if _, err := p.Read(a); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	bar, _ := p.Get(schema.MainSection, "bar")
	if bar != 2 {
		t.Errorf("Expected 2, got %v", bar)
	}
}

func TestRead_SkipsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	good := writeConfig(t, dir, "good.cfg", "[__main__]\nfoo = 1\n")

	p := newTestParser(t, intSchema("foo"))
	read, err := p.Read(filepath.Join(dir, "missing.cfg"), good)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(read) != 1 || read[0] != good {
		t.Errorf("Expected only %s to be read, got %v", good, read)
	}
	if p.LastLocation() != good {
		t.Errorf("Expected last location %s, got %s", good, p.LastLocation())
	}
}

func TestRead_LaterFilesOverride(t *testing.T) {
	dir := t.TempDir()
	system := writeConfig(t, dir, "system.cfg", "[__main__]\nfoo = 1\nbar = 1\n")
	local := writeConfig(t, dir, "local.cfg", "[__main__]\nfoo = 2\n")

	p := newTestParser(t, intSchema("foo", "bar"))
	if _, err := p.Read(system, local); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	foo, _ := p.Get(schema.MainSection, "foo")
	bar, _ := p.Get(schema.MainSection, "bar")
	if foo != 2 || bar != 1 {
		t.Errorf("Expected foo=2 bar=1, got foo=%v bar=%v", foo, bar)
	}
	if p.Locate("foo") != local || p.Locate("bar") != system {
		t.Errorf("Unexpected locations: foo=%s bar=%s", p.Locate("foo"), p.Locate("bar"))
	}
}

func TestRead_SameFileTwiceIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "app.cfg",
		"[__main__]\nfoo = 1\n\n[server]\nport = 8080\nhosts = a\n  b\n")
	s := schema.NewBuilder("idem").
		Option(schema.NewInt("foo"), schema.NewInt("bar", schema.Default(3))).
		Section("server", schema.NewInt("port"), schema.NewList("hosts")).
		MustBuild()

	once := newTestParser(t, s)
	if _, err := once.Read(path); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	twice := newTestParser(t, s)
	for i := 0; i < 2; i++ {
		if _, err := twice.Read(path); err != nil {
			t.Fatalf("Expected no error on read %d, got: %v", i+1, err)
		}
	}

	want, err := once.Values()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	got, err := twice.Values()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Values mismatch after reading twice (-want +got):\n%s", diff)
	}
}

func TestRead_DictAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	one := writeConfig(t, dir, "one.cfg", "[__main__]\nfoo = mydict\n[mydict]\nbar = 1\n")
	two := writeConfig(t, dir, "two.cfg", "[mydict]\nbaz = 2\n")

	s := schema.NewBuilder("dict").Option(
		schema.NewDict("foo", schema.Spec(map[string]schema.Option{
			"bar": schema.NewInt("bar"),
			"baz": schema.NewInt("baz"),
		})),
	).MustBuild()

	p := newTestParser(t, s)
	if _, err := p.Read(one, two); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	foo, err := p.Get(schema.MainSection, "foo")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"bar": 1, "baz": 2}, foo); diff != "" {
		t.Errorf("Dict mismatch (-want +got):\n%s", diff)
	}
	if got := p.ExtraSections(); len(got) != 1 || got[0] != "mydict" {
		t.Errorf("Expected mydict to be an extra section, got %v", got)
	}
	if !p.IsValid() {
		_, reasons := p.ValidationReport()
		t.Errorf("Expected configuration to be valid, got: %v", reasons)
	}
}

func TestReadFP(t *testing.T) {
	s := schema.NewBuilder("fp").Section("app", schema.NewString("name")).MustBuild()
	p := newTestParser(t, s)

	if err := p.ReadFP(strings.NewReader("[app]\nname = demo\n"), "inline.cfg"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	name, _ := p.Get("app", "name")
	if name != "demo" {
		t.Errorf("Expected demo, got %v", name)
	}
	if p.Locate("name") != "inline.cfg" {
		t.Errorf("Expected location inline.cfg, got %q", p.Locate("name"))
	}

	err := p.ReadFP(strings.NewReader("[app]\nbroken line\n"), "broken.cfg")
	if !errorsIsParse(err) {
		t.Errorf("Expected parse error, got: %v", err)
	}
}

func errorsIsParse(err error) bool {
	cfgErr, ok := err.(*schema.ConfigError)
	return ok && cfgErr.Class == schema.ClassParse
}

func TestGet_Defaults(t *testing.T) {
	s := schema.NewBuilder("defaults").
		Option(schema.NewInt("count", schema.Default(3))).
		Section("app",
			schema.NewString("name", schema.Default("demo")),
			schema.NewBool("debug"),
			schema.NewString("token", schema.Fatal()),
		).MustBuild()

	p := newTestParser(t, s)

	count, err := p.Get(schema.MainSection, "count")
	if err != nil || count != 3 {
		t.Errorf("Expected default 3, got %v (err %v)", count, err)
	}
	name, err := p.Get("app", "name")
	if err != nil || name != "demo" {
		t.Errorf("Expected default demo, got %v (err %v)", name, err)
	}
	debug, err := p.Get("app", "debug")
	if err != nil || debug != false {
		t.Errorf("Expected default false, got %v (err %v)", debug, err)
	}

	_, err = p.Get("app", "token")
	if !schema.IsNoOption(err) {
		t.Errorf("Expected no option error for fatal option, got: %v", err)
	}
	if err := p.ParseAll(); !schema.IsNoOption(err) {
		t.Errorf("Expected ParseAll to fail on fatal option, got: %v", err)
	}

	_, err = p.Get("nosuch", "x")
	if !schema.IsNoSection(err) {
		t.Errorf("Expected no section error, got: %v", err)
	}
}

func TestGet_InterpolationWithinSection(t *testing.T) {
	s := schema.NewBuilder("interp").
		Section("paths", schema.NewString("base"), schema.NewString("logs")).
		MustBuild()
	p := newTestParser(t, s)
	if err := p.ReadFP(strings.NewReader("[paths]\nbase = /srv\nlogs = %(base)s/logs\n"), "paths.cfg"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	logs, err := p.Get("paths", "logs")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if logs != "/srv/logs" {
		t.Errorf("Expected /srv/logs, got %v", logs)
	}

	raw, err := p.Get("paths", "logs", AsRaw())
	if err != nil || raw != "%(base)s/logs" {
		t.Errorf("Expected raw value, got %v (err %v)", raw, err)
	}

	vars, err := p.Get("paths", "logs", WithVars(map[string]string{"BASE": "/tmp"}))
	if err != nil || vars != "/tmp/logs" {
		t.Errorf("Expected vars to take precedence, got %v (err %v)", vars, err)
	}
}

func TestGet_InterpolationFallsBackToSpecialSections(t *testing.T) {
	s := schema.NewBuilder("interp").
		Option(schema.NewString("root")).
		Section("app", schema.NewString("data"), schema.NewString("cache")).
		MustBuild()
	p := newTestParser(t, s)
	content := `[__main__]
root = /srv

[__noschema__]
tmp = /tmp

[app]
data = %(root)s/data
cache = %(tmp)s/cache
`
	if err := p.ReadFP(strings.NewReader(content), "app.cfg"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	data, err := p.Get("app", "data")
	if err != nil || data != "/srv/data" {
		t.Errorf("Expected /srv/data, got %v (err %v)", data, err)
	}
	cache, err := p.Get("app", "cache")
	if err != nil || cache != "/tmp/cache" {
		t.Errorf("Expected /tmp/cache, got %v (err %v)", cache, err)
	}

	tmp, err := p.Get(schema.NoSchemaSection, "tmp")
	if err != nil || tmp != "/tmp" {
		t.Errorf("Expected __noschema__ values to be readable, got %v (err %v)", tmp, err)
	}
	if !p.IsValid() {
		_, reasons := p.ValidationReport()
		t.Errorf("Expected configuration to be valid, got: %v", reasons)
	}
}

func TestGet_InterpolationAcrossSectionsFails(t *testing.T) {
	s := schema.NewBuilder("interp").
		Section("one", schema.NewString("a")).
		Section("two", schema.NewString("b")).
		MustBuild()
	p := newTestParser(t, s)
	if err := p.ReadFP(strings.NewReader("[one]\na = x\n[two]\nb = %(a)s\n"), "x.cfg"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	_, err := p.Get("two", "b")
	if !schema.IsInterpolationMissing(err) {
		t.Errorf("Expected interpolation error, got: %v", err)
	}
}

func TestGet_EnvironmentInterpolation(t *testing.T) {
	env := map[string]string{"FOO": "3", "HOST": "db.local"}
	s := schema.NewBuilder("env").
		Option(
			schema.NewInt("foo"),
			schema.NewInt("bar"),
			schema.NewInt("baz", schema.Default(9)),
			schema.NewString("url"),
			schema.NewString("literal", schema.Raw()),
		).MustBuild()
	p := newTestParser(t, s, WithEnv(mapLookup(env)))

	content := `[__main__]
foo = $FOO
bar = ${BAR:-7}
baz = $UNSET
url = postgres://${HOST}:${PORT:-5432}/app
literal = $FOO
`
	if err := p.ReadFP(strings.NewReader(content), "env.cfg"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	values, err := p.SectionValues(schema.MainSection)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	expected := map[string]any{
		"foo":     3,
		"bar":     7,
		"baz":     9,
		"url":     "postgres://db.local:5432/app",
		"literal": "$FOO",
	}
	if diff := cmp.Diff(expected, values); diff != "" {
		t.Errorf("Values mismatch (-want +got):\n%s", diff)
	}
}

func TestGet_UnsetEnvironmentUsesZeroDefault(t *testing.T) {
	p := newTestParser(t, intSchema("foo"), WithEnv(mapLookup(nil)))
	if err := p.ReadFP(strings.NewReader("[__main__]\nfoo = $FOO\n"), "env.cfg"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	foo, err := p.Get(schema.MainSection, "foo")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if foo != 0 {
		t.Errorf("Expected 0, got %v", foo)
	}
}

func TestGet_InvalidValue(t *testing.T) {
	p := newTestParser(t, intSchema("foo"))
	if err := p.ReadFP(strings.NewReader("[__main__]\nfoo = abc\n"), "bad.cfg"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	_, err := p.Get(schema.MainSection, "foo")
	if !schema.IsValueError(err) {
		t.Fatalf("Expected value error, got: %v", err)
	}
	if !strings.HasPrefix(err.Error(), "Invalid value 'abc' for IntOption 'foo' in section '__main__'") {
		t.Errorf("Unexpected message: %s", err.Error())
	}

	unparsed, err := p.Get(schema.MainSection, "foo", NoParse())
	if err != nil || unparsed != "abc" {
		t.Errorf("Expected unparsed text, got %v (err %v)", unparsed, err)
	}
}

func TestGet_ListForms(t *testing.T) {
	s := schema.NewBuilder("lists").Option(
		schema.NewList("json", schema.Item(schema.NewInt(""))),
		schema.NewList("lines", schema.Item(schema.NewInt(""))),
	).MustBuild()
	p := newTestParser(t, s)
	if err := p.ReadFP(strings.NewReader("[__main__]\njson = [1, 2]\nlines =\n    1\n    2\n"), "lists.cfg"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	fromJSON, err := p.Get(schema.MainSection, "json")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	fromLines, err := p.Get(schema.MainSection, "lines")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if diff := cmp.Diff(fromJSON, fromLines); diff != "" {
		t.Errorf("Expected both forms to parse the same (-json +lines):\n%s", diff)
	}
	if diff := cmp.Diff([]any{1, 2}, fromJSON); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}
}

func TestItemsAndOptions(t *testing.T) {
	s := schema.NewBuilder("items").Section("app", schema.NewString("name")).MustBuild()
	p := newTestParser(t, s)
	content := "[DEFAULT]\nroot = /srv\n[app]\nname = x\npath = %(root)s/x\n"
	if err := p.ReadFP(strings.NewReader(content), "items.cfg"); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	items, err := p.Items("app")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	expected := map[string]string{"root": "/srv", "name": "x", "path": "/srv/x"}
	if diff := cmp.Diff(expected, items); diff != "" {
		t.Errorf("Items mismatch (-want +got):\n%s", diff)
	}

	raw, err := p.ItemsWith("app", AsRaw())
	if err != nil || raw["path"] != "%(root)s/x" {
		t.Errorf("Expected raw items, got %v (err %v)", raw, err)
	}

	opts, err := p.Options("app")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if diff := cmp.Diff([]string{"name", "path", "root"}, opts); diff != "" {
		t.Errorf("Options mismatch (-want +got):\n%s", diff)
	}

	if _, err := p.Items("missing"); !schema.IsNoSection(err) {
		t.Errorf("Expected no section error, got: %v", err)
	}
}

func TestValues(t *testing.T) {
	s := schema.NewBuilder("values").
		Option(schema.NewInt("foo", schema.Default(1))).
		Section("app", schema.NewTuple("pair", schema.Default(schema.Tuple{"a", "b"}))).
		MustBuild()
	p := newTestParser(t, s)

	values, err := p.Values()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	expected := map[string]map[string]any{
		schema.MainSection: {"foo": 1},
		"app":              {"pair": schema.Tuple{"a", "b"}},
	}
	if diff := cmp.Diff(expected, values); diff != "" {
		t.Errorf("Values mismatch (-want +got):\n%s", diff)
	}
}
