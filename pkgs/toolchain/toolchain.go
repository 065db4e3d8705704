// Package toolchain infers the C compiler, its flags and the archive tools
// used to build for a target triple.
package toolchain

import (
	"os"
	"strings"

	"github.com/goplus/tasslsrc/pkgs/target"
)

// Getenv looks up an environment variable. An empty result means unset.
type Getenv func(key string) string

// Compiler is a resolved C compiler invocation.
type Compiler struct {
	Path string
	Args []string
}

// Tools is everything inferred for a single target.
type Tools struct {
	Compiler Compiler

	// AR and RANLIB are set only when inferred from a "<prefix>-gcc"
	// compiler and the caller did not set them.
	AR     string
	RANLIB string
}

// Detect resolves the toolchain for building target on host.
// A nil getenv uses os.Getenv.
func Detect(targetTriple, host string, getenv Getenv) Tools {
	if getenv == nil {
		getenv = os.Getenv
	}
	cc := Compiler{
		Path: compilerPath(targetTriple, host, getenv),
		Args: compilerArgs(targetTriple, host, getenv),
	}
	tools := Tools{Compiler: cc}
	// musl-gcc wraps the host gcc and uses the host binutils.
	if prefix, ok := strings.CutSuffix(cc.Path, "-gcc"); ok && prefix != "musl" {
		if getenv("RANLIB") == "" {
			tools.RANLIB = prefix + "-ranlib"
		}
		if getenv("AR") == "" {
			tools.AR = prefix + "-ar"
		}
	}
	return tools
}

// ConfigureArgs returns the compiler args to forward to ./Configure.
// Apple targets already select an arch through the platform id, and
// Configure rejects a second one, so "-arch X" pairs are dropped.
func (c Compiler) ConfigureArgs(targetTriple string) []string {
	out := make([]string, 0, len(c.Args))
	apple := target.IsApple(targetTriple)
	skipNext := false
	for _, arg := range c.Args {
		if skipNext {
			skipNext = false
			continue
		}
		if apple && arg == "-arch" {
			skipNext = true
			continue
		}
		out = append(out, arg)
	}
	return out
}

// lookup returns the first non-empty value among the target-specific,
// kind-specific and generic spellings of name.
func lookup(name, targetTriple, host string, getenv Getenv) string {
	kind := "HOST_"
	if targetTriple != host {
		kind = "TARGET_"
	}
	for _, key := range []string{
		name + "_" + targetTriple,
		name + "_" + strings.ReplaceAll(targetTriple, "-", "_"),
		kind + name,
		name,
	} {
		if v := getenv(key); v != "" {
			return v
		}
	}
	return ""
}

func compilerPath(targetTriple, host string, getenv Getenv) string {
	if cc := lookup("CC", targetTriple, host, getenv); cc != "" {
		return cc
	}
	if prefix := getenv("CROSS_COMPILE"); prefix != "" {
		return prefix + "gcc"
	}
	if target.IsApple(targetTriple) {
		return "clang"
	}
	if targetTriple == host {
		return "cc"
	}
	if prefix, ok := crossPrefixes[targetTriple]; ok {
		return prefix + "-gcc"
	}
	if target.IsMusl(targetTriple) {
		return "musl-gcc"
	}
	return "cc"
}

var crossPrefixes = map[string]string{
	"aarch64-unknown-linux-gnu":     "aarch64-linux-gnu",
	"aarch64-unknown-linux-musl":    "aarch64-linux-musl",
	"arm-unknown-linux-gnueabi":     "arm-linux-gnueabi",
	"arm-unknown-linux-gnueabihf":   "arm-linux-gnueabihf",
	"armv7-unknown-linux-gnueabihf": "arm-linux-gnueabihf",
	"i686-unknown-linux-gnu":        "i686-linux-gnu",
	"powerpc64le-unknown-linux-gnu": "powerpc64le-linux-gnu",
	"riscv64gc-unknown-linux-gnu":   "riscv64-linux-gnu",
	"s390x-unknown-linux-gnu":       "s390x-linux-gnu",
	"x86_64-unknown-linux-gnu":      "x86_64-linux-gnu",
}

func compilerArgs(targetTriple, host string, getenv Getenv) []string {
	args := []string{"-O2", "-ffunction-sections", "-fdata-sections"}
	if target.FamilyOf(targetTriple) != target.Windows {
		args = append(args, "-fPIC")
	}

	arch := target.Arch(targetTriple)
	if target.IsApple(targetTriple) {
		switch arch {
		case "aarch64":
			args = append(args, "-arch", "arm64")
		case "i686":
			args = append(args, "-arch", "i386")
		default:
			args = append(args, "-arch", arch)
		}
	} else if target.FamilyOf(targetTriple) == target.Linux {
		switch arch {
		case "x86_64", "powerpc64le", "s390x":
			args = append(args, "-m64")
		case "i686":
			args = append(args, "-m32")
		}
	}

	if flags := lookup("CFLAGS", targetTriple, host, getenv); flags != "" {
		args = append(args, strings.Fields(flags)...)
	}
	return args
}

