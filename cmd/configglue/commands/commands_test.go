package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"

	"github.com/openfroyo/configglue/pkg/telemetry"
)

const testSchema = `name: app
version: "1.0"
options:
  - name: name
    type: string
    default: demo
sections:
  - name: db
    options:
      - name: port
        type: int
        default: 5432
        help: database port
      - name: hosts
        type: list
        item:
          type: string
`

type fixture struct {
	dir    string
	schema string
	config string
}

func newFixture(t *testing.T, config string) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		dir:    dir,
		schema: filepath.Join(dir, "app.yaml"),
		config: filepath.Join(dir, "app.cfg"),
	}
	if err := os.WriteFile(f.schema, []byte(testSchema), 0o644); err != nil {
		t.Fatalf("Failed to write schema: %v", err)
	}
	if err := os.WriteFile(f.config, []byte(config), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return f
}

func (f *fixture) args(args ...string) []string {
	return append([]string{"--schema", f.schema, "-c", f.config}, args...)
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand("test", "none", "today")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	f := newFixture(t, "[db]\nport = 6000\n")

	out, err := runCommand(t, f.args("validate")...)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !strings.Contains(out, "configuration is valid") {
		t.Errorf("Unexpected output: %s", out)
	}
}

func TestValidateCommand_Invalid(t *testing.T) {
	f := newFixture(t, "[db]\nport = abc\n\n[extra]\nfoo = 1\n")

	out, err := runCommand(t, f.args("--json", "validate")...)
	if err == nil {
		t.Fatal("Expected error for invalid configuration")
	}

	var result validationOutput
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("Expected JSON output, got: %s", out)
	}
	if result.Valid {
		t.Error("Expected configuration to be reported invalid")
	}
	expected := []string{
		"Sections in configuration are missing from schema: extra",
		"Invalid value 'abc' for IntOption 'port' in section 'db': invalid literal for int: \"abc\"",
	}
	if diff := cmp.Diff(expected, result.Errors); diff != "" {
		t.Errorf("Errors mismatch (-want +got):\n%s", diff)
	}
}

func TestGetCommand(t *testing.T) {
	f := newFixture(t, "[db]\nport = 6000\nhosts = [\"a\", \"b\"]\n")

	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"from file", []string{"get", "db.port"}, "6000\n"},
		{"default value", []string{"get", "name"}, "demo\n"},
		{"command line override", []string{"get", "db.port", "--", "--db_port", "7000"}, "7000\n"},
		{"json list", []string{"--json", "get", "db.hosts"}, "[\"a\",\"b\"]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCommand(t, f.args(tt.args...)...)
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if out != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, out)
			}
		})
	}
}

func TestGetCommand_Arguments(t *testing.T) {
	f := newFixture(t, "")

	if _, err := runCommand(t, f.args("get")...); err == nil {
		t.Error("Expected error without an option argument")
	}
	if _, err := runCommand(t, "get", "db.port"); err == nil || !strings.Contains(err.Error(), "--schema") {
		t.Errorf("Expected missing schema error, got: %v", err)
	}
}

func TestDumpCommand(t *testing.T) {
	f := newFixture(t, "[db]\nport = 6000\n")

	out, err := runCommand(t, f.args("dump")...)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	for _, want := range []string{"[db]\n", "port = 6000\n", "[__main__]\n", "name = demo\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected ini dump to contain %q, got:\n%s", want, out)
		}
	}

	out, err = runCommand(t, f.args("dump", "--format", "yaml")...)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !strings.Contains(out, "port: 6000") {
		t.Errorf("Expected yaml dump to contain port, got:\n%s", out)
	}

	out, err = runCommand(t, f.args("--json", "dump")...)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	var values map[string]map[string]any
	if err := json.Unmarshal([]byte(out), &values); err != nil {
		t.Fatalf("Expected JSON output, got: %s", out)
	}
	if values["db"]["port"] != float64(6000) {
		t.Errorf("Expected port 6000, got %v", values["db"]["port"])
	}

	if _, err := runCommand(t, f.args("dump", "--format", "toml")...); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestSetCommand(t *testing.T) {
	f := newFixture(t, "[db]\nport = 6000\n")

	if _, err := runCommand(t, f.args("set", "db.port", "6001")...); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	data, err := os.ReadFile(f.config)
	if err != nil {
		t.Fatalf("Failed to read config: %v", err)
	}
	if !strings.Contains(string(data), "6001") {
		t.Errorf("Expected saved file to contain new port, got:\n%s", data)
	}
	if _, err := os.Stat(f.config + ".old"); err != nil {
		t.Errorf("Expected backup file, got: %v", err)
	}

	out, err := runCommand(t, f.args("get", "db.port")...)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if out != "6001\n" {
		t.Errorf("Expected 6001, got %q", out)
	}

	if _, err := runCommand(t, f.args("set", "db.port", "abc")...); err == nil {
		t.Error("Expected error for invalid value")
	}
}

func TestSetCommand_Output(t *testing.T) {
	f := newFixture(t, "[db]\nport = 6000\n")
	output := filepath.Join(f.dir, "merged.cfg")

	if _, err := runCommand(t, f.args("set", "--output", output, "db.port", "6002")...); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	if !strings.Contains(string(data), "port = 6002") {
		t.Errorf("Expected output to contain new port, got:\n%s", data)
	}
	original, _ := os.ReadFile(f.config)
	if string(original) != "[db]\nport = 6000\n" {
		t.Errorf("Expected original file untouched, got:\n%s", original)
	}
}

func TestLocateCommand(t *testing.T) {
	f := newFixture(t, "[db]\nport = 6000\n")

	out, err := runCommand(t, f.args("locate", "port")...)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if strings.TrimSpace(out) != f.config {
		t.Errorf("Expected %s, got %q", f.config, out)
	}

	if _, err := runCommand(t, f.args("locate", "hosts")...); err == nil {
		t.Error("Expected error for option not read from any file")
	}
}

func TestSchemaCommand(t *testing.T) {
	f := newFixture(t, "")

	out, err := runCommand(t, "schema", "--schema", f.schema, "--contrib", "statsd")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	for _, want := range []string{"name: db", "name: statsd", "name: statsd_port", "default: 8125"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected schema output to contain %q, got:\n%s", want, out)
		}
	}

	out, err = runCommand(t, "schema", "--list-contrib")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !strings.Contains(out, "statsd\n") {
		t.Errorf("Expected contrib list, got:\n%s", out)
	}

	if _, err := runCommand(t, "schema", "--contrib", "nope"); err == nil {
		t.Error("Expected error for unknown contrib schema")
	}
}

func TestSplitKey(t *testing.T) {
	tests := []struct {
		key     string
		section string
		option  string
	}{
		{"db.port", "db", "port"},
		{"port", "__main__", "port"},
		{"a.b.c", "a.b", "c"},
	}
	for _, tt := range tests {
		section, option := splitKey(tt.key)
		if section != tt.section || option != tt.option {
			t.Errorf("splitKey(%q) = %q, %q; expected %q, %q", tt.key, section, option, tt.section, tt.option)
		}
	}
}

func TestNewSession_StoresTelemetryInContext(t *testing.T) {
	f := newFixture(t, "[db]\nport = 6000\n")
	schemaPaths, configPaths, contribNames = []string{f.schema}, []string{f.config}, nil
	t.Cleanup(func() { schemaPaths, configPaths, contribNames = nil, nil, nil })

	cmd := &cobra.Command{Use: "get"}
	cmd.SetContext(context.Background())
	sess, err := newSession(cmd, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	defer sess.close()

	tel := telemetry.FromTelemetryContext(cmd.Context())
	if tel != telemetry.FromTelemetryContext(sess.ctx) {
		t.Fatal("Expected the session telemetry to be stored in the command context")
	}
	if telemetry.FromContext(cmd.Context()) != tel.Logger {
		t.Error("Expected the session logger to be stored in the command context")
	}
	if sess.logger() != tel.Logger {
		t.Error("Expected the session to log through the context logger")
	}

	v, err := sess.parser.Get("db", "port")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if v != 6000 {
		t.Errorf("Expected port 6000, got %v", v)
	}
}
