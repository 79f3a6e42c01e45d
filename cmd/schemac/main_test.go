package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"schemac/internal/diagfmt"
)

const pointDoc = `declarations:
  - struct: Point
    members:
      - field: x
        ordinal: 0
        type: Int32
      - field: y
        ordinal: 1
        type: Int32
      - field: label
        ordinal: 2
        type: Text
`

// resetFlags restores every flag to its default so tests do not leak
// settings into each other through the global command tree.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--color", "off"}, args...))
	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func workspace(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	t.Chdir(dir)
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	return dir
}

func TestLayoutPretty(t *testing.T) {
	workspace(t, map[string]string{"point.yaml": pointDoc})

	out, _, err := run(t, "layout", "point.yaml")
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	for _, want := range []string{"struct Point (1 word, 1 pointer, list inlineComposite)", "data[1] bits 32..64", "ptr[0]"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestLayoutJSONAndBinaryRoundTrip(t *testing.T) {
	dir := workspace(t, map[string]string{"point.yaml": pointDoc})
	bin := filepath.Join(dir, "point.bin")

	out, _, err := run(t, "layout", "--format", "json", "--out", bin, "point.yaml")
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	var nodes []diagfmt.NodeJSON
	if err := json.Unmarshal([]byte(out), &nodes); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(nodes) != 1 || nodes[0].DataWords != 1 || nodes[0].Pointers != 1 {
		t.Fatalf("nodes = %+v", nodes)
	}

	inspected, _, err := run(t, "inspect", "--format", "json", bin)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if inspected != out {
		t.Fatalf("inspect output differs from layout output:\n%s\nvs\n%s", inspected, out)
	}
}

func TestLayoutUsesProjectFile(t *testing.T) {
	workspace(t, map[string]string{
		"point.yaml":   pointDoc,
		"schemac.toml": "[schema]\ninclude = [\"*.yaml\"]\n\n[output]\nformat = \"json\"\n",
	})
	out, _, err := run(t, "layout")
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(out), "[") {
		t.Fatalf("expected JSON from [output].format, got:\n%s", out)
	}
}

func TestCheckReportsErrors(t *testing.T) {
	workspace(t, map[string]string{"bad.yaml": `declarations:
  - struct: S
    members:
      - field: a
        ordinal: 0
        type: Bool
      - field: b
        ordinal: 2
        type: Bool
`})
	out, _, err := run(t, "check", "bad.yaml")
	if !errors.Is(err, errDiagnostics) {
		t.Fatalf("err = %v, want errDiagnostics", err)
	}
	if !strings.Contains(out, "ORD2002") || !strings.Contains(out, "Skipped ordinal @1.") {
		t.Fatalf("skipped ordinal not reported:\n%s", out)
	}

	out, _, _ = run(t, "check", "--format", "sarif", "bad.yaml")
	if !strings.Contains(out, `"ruleId": "ORD2002"`) {
		t.Fatalf("SARIF output missing rule:\n%s", out)
	}
}

func TestCheckWithoutInputs(t *testing.T) {
	workspace(t, nil)
	if _, _, err := run(t, "check"); err == nil || errors.Is(err, errDiagnostics) {
		t.Fatalf("expected a usage error, got %v", err)
	}
}

func TestVersionJSON(t *testing.T) {
	out, _, err := run(t, "version", "--format", "json", "--hash")
	if err != nil {
		t.Fatal(err)
	}
	var payload versionPayload
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if payload.Tool != "schemac" || payload.Version == "" || payload.GitCommit == "" {
		t.Fatalf("payload = %+v", payload)
	}
}
