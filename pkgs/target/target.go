// Package target maps target triples to TASSL Configure platform ids and
// classifies host triples into OS families.
package target

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrUnsupportedTarget is returned when a triple has no configure mapping.
var ErrUnsupportedTarget = errors.New("unsupported target")

// Mapping pairs a target triple with the platform id understood by
// TASSL's ./Configure.
type Mapping struct {
	Triple string `yaml:"triple"`
	ID     string `yaml:"os"`
}

// Table is an ordered list of exact-match mappings. The first match wins.
type Table []Mapping

// Default is the built-in mapping table.
var Default = Table{
	{"aarch64-apple-darwin", "darwin64-arm64-cc"},
	{"i686-apple-darwin", "darwin-i386-cc"},
	{"x86_64-apple-darwin", "darwin64-x86_64-cc"},
	{"aarch64-unknown-linux-gnu", "linux-aarch64"},
	{"aarch64-unknown-linux-musl", "linux-aarch64"},
	{"arm-unknown-linux-gnueabi", "linux-armv4"},
	{"arm-unknown-linux-gnueabihf", "linux-armv4"},
	{"armv7-unknown-linux-gnueabihf", "linux-armv4"},
	{"i686-unknown-linux-gnu", "linux-elf"},
	{"i686-unknown-linux-musl", "linux-elf"},
	{"powerpc64le-unknown-linux-gnu", "linux-ppc64le"},
	{"riscv64gc-unknown-linux-gnu", "linux64-riscv64"},
	{"s390x-unknown-linux-gnu", "linux64-s390x"},
	{"x86_64-unknown-linux-gnu", "linux-x86_64"},
	{"x86_64-unknown-linux-musl", "linux-x86_64"},
	{"aarch64-unknown-freebsd", "BSD-generic64"},
	{"x86_64-unknown-freebsd", "BSD-x86_64"},
	{"x86_64-unknown-netbsd", "BSD-x86_64"},
	{"x86_64-unknown-openbsd", "BSD-x86_64"},
}

// Lookup resolves triple through the table.
func (t Table) Lookup(triple string) (string, error) {
	for _, m := range t {
		if m.Triple == triple {
			return m.ID, nil
		}
	}
	return "", fmt.Errorf("don't know how to configure TASSL for %q: %w", triple, ErrUnsupportedTarget)
}

// With returns a copy of t with extra placed ahead of the existing entries.
func (t Table) With(extra ...Mapping) Table {
	out := make(Table, 0, len(extra)+len(t))
	out = append(out, extra...)
	return append(out, t...)
}

// Lookup resolves triple through the Default table.
func Lookup(triple string) (string, error) {
	return Default.Lookup(triple)
}

// Family is a host operating system family.
type Family int

const (
	Unknown Family = iota
	Linux
	Darwin
	BSD
	Windows
)

func (f Family) String() string {
	switch f {
	case Linux:
		return "linux"
	case Darwin:
		return "darwin"
	case BSD:
		return "bsd"
	case Windows:
		return "windows"
	}
	return "unknown"
}

// Make returns the make program for hosts of this family.
// BSD make cannot read OpenSSL's GNU makefiles.
func (f Family) Make() string {
	if f == BSD {
		return "gmake"
	}
	return "make"
}

// FamilyOf classifies a triple by its OS component.
func FamilyOf(triple string) Family {
	switch {
	case strings.Contains(triple, "-linux"):
		return Linux
	case strings.Contains(triple, "-darwin"), strings.Contains(triple, "-apple-"):
		return Darwin
	case strings.Contains(triple, "bsd"), strings.Contains(triple, "dragonfly"):
		return BSD
	case strings.Contains(triple, "-windows"):
		return Windows
	}
	return Unknown
}

// IsApple reports whether triple targets an Apple platform.
func IsApple(triple string) bool {
	return strings.Contains(triple, "-apple-")
}

// IsMusl reports whether triple targets the musl libc.
func IsMusl(triple string) bool {
	return strings.HasSuffix(triple, "-musl") || strings.Contains(triple, "-musleabi")
}

// Arch returns the architecture component of triple.
func Arch(triple string) string {
	arch, _, _ := strings.Cut(triple, "-")
	return arch
}

// Host returns the triple of the machine running this process.
func Host() string {
	return hostTriple(runtime.GOOS, runtime.GOARCH)
}

func hostTriple(goos, goarch string) string {
	arch := goarch
	switch goarch {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		arch = "aarch64"
	case "386":
		arch = "i686"
	case "arm":
		arch = "armv7"
	case "ppc64le":
		arch = "powerpc64le"
	case "riscv64":
		arch = "riscv64gc"
	}
	switch goos {
	case "darwin":
		return arch + "-apple-darwin"
	case "linux":
		if arch == "armv7" {
			return arch + "-unknown-linux-gnueabihf"
		}
		return arch + "-unknown-linux-gnu"
	case "windows":
		return arch + "-pc-windows-msvc"
	}
	return arch + "-unknown-" + goos
}
