// Package artifacts describes where a TASSL install put its headers and
// libraries, and prints that description for consuming build systems.
package artifacts

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"sort"
	"strings"
)

// Libs are the static libraries a TASSL install always produces, in link order.
var Libs = []string{"ssl", "crypto"}

// Artifacts is the result of a build. It is immutable once created.
type Artifacts struct {
	includeDir string
	libDir     string
	binDir     string
	libs       []string
}

// FromInstall describes the standard layout under an install prefix.
func FromInstall(installDir string) *Artifacts {
	return &Artifacts{
		includeDir: filepath.Join(installDir, "include"),
		libDir:     filepath.Join(installDir, "lib"),
		binDir:     filepath.Join(installDir, "bin"),
		libs:       slices.Clone(Libs),
	}
}

func (a *Artifacts) IncludeDir() string { return a.includeDir }
func (a *Artifacts) LibDir() string     { return a.libDir }
func (a *Artifacts) BinDir() string     { return a.binDir }

// Libs returns the library names in link order.
func (a *Artifacts) Libs() []string { return slices.Clone(a.libs) }

type descriptor struct {
	IncludeDir string   `json:"include_dir"`
	LibDir     string   `json:"lib_dir"`
	BinDir     string   `json:"bin_dir"`
	Libs       []string `json:"libs"`
}

func (a *Artifacts) MarshalJSON() ([]byte, error) {
	return json.Marshal(descriptor{a.includeDir, a.libDir, a.binDir, a.libs})
}

func (a *Artifacts) UnmarshalJSON(data []byte) error {
	var d descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	*a = Artifacts{d.IncludeDir, d.LibDir, d.BinDir, d.Libs}
	return nil
}

// Format selects how Emit prints a descriptor.
type Format string

const (
	Cargo Format = "cargo"
	JSON  Format = "json"
	Env   Format = "env"
	Cgo   Format = "cgo"
)

var emitters = map[Format]func(w io.Writer, a *Artifacts) error{
	Cargo: emitCargo,
	JSON:  emitJSON,
	Env:   emitEnv,
	Cgo:   emitCgo,
}

// Formats lists the supported formats in sorted order.
func Formats() []string {
	names := make([]string, 0, len(emitters))
	for f := range emitters {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}

// Emit writes a in the given format.
func Emit(w io.Writer, f Format, a *Artifacts) error {
	emit, ok := emitters[f]
	if !ok {
		return fmt.Errorf("unknown output format %q (want one of %s)", f, strings.Join(Formats(), ", "))
	}
	return emit(w, a)
}

func emitCargo(w io.Writer, a *Artifacts) error {
	var b strings.Builder
	fmt.Fprintf(&b, "cargo:rustc-link-search=native=%s\n", a.libDir)
	for _, lib := range a.libs {
		fmt.Fprintf(&b, "cargo:rustc-link-lib=static=%s\n", lib)
	}
	fmt.Fprintf(&b, "cargo:include=%s\n", a.includeDir)
	fmt.Fprintf(&b, "cargo:lib=%s\n", a.libDir)
	_, err := io.WriteString(w, b.String())
	return err
}

func emitJSON(w io.Writer, a *Artifacts) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(a)
}

func emitEnv(w io.Writer, a *Artifacts) error {
	_, err := fmt.Fprintf(w, "TASSL_INCLUDE_DIR=%s\nTASSL_LIB_DIR=%s\nTASSL_BIN_DIR=%s\nTASSL_LIBS=%s\n",
		a.includeDir, a.libDir, a.binDir, strings.Join(a.libs, " "))
	return err
}

// emitCgo writes a Go file whose cgo directives link the static libraries.
func emitCgo(w io.Writer, a *Artifacts) error {
	ldflags := []string{cgoQuote("-L" + a.libDir)}
	for _, lib := range a.libs {
		ldflags = append(ldflags, "-l"+lib)
	}
	_, err := fmt.Fprintf(w, `// Code generated by tasslsrc. DO NOT EDIT.

package tassl

// #cgo CFLAGS: %s
// #cgo LDFLAGS: %s
import "C"
`, cgoQuote("-I"+a.includeDir), strings.Join(ldflags, " "))
	return err
}

// cgoQuote single-quotes a #cgo flag that cgo would otherwise split.
// Inside quotes cgo treats a backslash as an escape.
func cgoQuote(flag string) string {
	if !strings.ContainsAny(flag, " \t'\"\\") {
		return flag
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(flag) + "'"
}
