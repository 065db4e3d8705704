package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/goplus/tasslsrc/pkgs/target"
)

func TestParse(t *testing.T) {
	c, err := Parse([]byte(`
targets:
  - triple: mips64-unknown-linux-gnuabi64
    os: linux64-mips64
configure_args: [no-async, -DOPENSSL_PIC]
env:
  CFLAGS: -g
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !slices.Equal(c.ConfigureArgs, []string{"no-async", "-DOPENSSL_PIC"}) {
		t.Errorf("ConfigureArgs = %q", c.ConfigureArgs)
	}
	if c.Env["CFLAGS"] != "-g" {
		t.Errorf("Env = %v", c.Env)
	}
	tbl := c.Table(target.Default)
	if got, err := tbl.Lookup("mips64-unknown-linux-gnuabi64"); err != nil || got != "linux64-mips64" {
		t.Errorf("Lookup = %q, %v", got, err)
	}
	if got, _ := tbl.Lookup("x86_64-unknown-linux-gnu"); got != "linux-x86_64" {
		t.Errorf("built-in entry lost: %q", got)
	}
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"unknown key":    "flags: [x]\n",
		"missing os":     "targets:\n  - triple: x86_64-unknown-haiku\n",
		"bad env key":    "env:\n  \"A=B\": c\n",
		"malformed yaml": "targets: [\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc)); err == nil {
				t.Fatalf("Parse(%q) succeeded, want error", doc)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	c, err := Load("")
	if err != nil || len(c.ConfigureArgs) != 0 || len(c.Table(target.Default)) != len(target.Default) {
		t.Fatalf("Load(\"\") = %+v, %v", c, err)
	}

	path := filepath.Join(t.TempDir(), "tassl.yaml")
	if err := os.WriteFile(path, []byte("configure_args: [no-async]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err = Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(c.ConfigureArgs, []string{"no-async"}) {
		t.Errorf("ConfigureArgs = %q", c.ConfigureArgs)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil || !strings.Contains(err.Error(), "missing.yaml") {
		t.Errorf("Load(missing) error = %v", err)
	}

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(empty); err != nil {
		t.Errorf("Load(empty) error = %v", err)
	}
}
