package build

import (
	"fmt"

	"github.com/goplus/tasslsrc/pkgs/target"
	"github.com/goplus/tasslsrc/pkgs/toolchain"
)

// baseFlags are passed to every configure run: static libraries only, no
// tests, no compression, no legacy provider, and libraries in lib/ even on
// multilib hosts.
var baseFlags = []string{
	"no-dso",
	"no-shared",
	"no-tests",
	"no-comp",
	"no-zlib",
	"no-zlib-dynamic",
	"--libdir=lib",
	"no-legacy",
}

// plan is everything decided before the first command runs.
type plan struct {
	platform string // Configure platform id
	family   target.Family
	program  string // "sh" or perl
	script   string // "./config" or "./Configure"
	args     []string
	tools    toolchain.Tools
}

func (b *Builder) plan() (*plan, error) {
	o := &b.opts
	platform, err := b.table().Lookup(o.Target)
	if err != nil {
		return nil, err
	}
	family := target.FamilyOf(o.Host)
	switch family {
	case target.Linux, target.Darwin, target.BSD:
	default:
		return nil, fmt.Errorf("no configure command for host %q: %w", o.Host, target.ErrUnsupportedTarget)
	}

	tools := toolchain.Detect(o.Target, o.Host, b.getenv)

	args := append([]string(nil), baseFlags...)
	if target.IsMusl(o.Target) {
		// The engine code needs linux/version.h, which musl toolchains lack.
		args = append(args, "no-engine")
	}
	args = append(args, o.ConfigureArgs...)

	p := &plan{platform: platform, family: family, tools: tools}
	if family == target.Linux && o.Target == o.Host {
		// ./config guesses the platform itself on a native build.
		p.program, p.script = "sh", "./config"
	} else {
		p.program, p.script = b.perl(), "./Configure"
		args = append(args, platform)
	}
	p.args = append(args, tools.Compiler.ConfigureArgs(o.Target)...)
	return p, nil
}

func (b *Builder) table() target.Table {
	if b.opts.Table != nil {
		return b.opts.Table
	}
	return target.Default
}

func (b *Builder) perl() string {
	for _, key := range []string{"OPENSSL_SRC_PERL", "PERL"} {
		if v := b.getenv(key); v != "" {
			return v
		}
	}
	return "perl"
}

func (b *Builder) makeflags() string {
	for _, key := range []string{"TASSL_MAKEFLAGS", "CARGO_MAKEFLAGS"} {
		if v := b.getenv(key); v != "" {
			return v
		}
	}
	return ""
}
