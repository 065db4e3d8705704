// Package sslconf drives OpenSSL-style builds: ./Configure (or ./config),
// then make depend, make build_libs and make install.
package sslconf

import (
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goplus/tasslsrc/pkgs/buildsys"
	"github.com/qiniu/x/log"
)

// SSLMake drives an OpenSSL-derived source tree.
type SSLMake struct {
	runner     buildsys.Runner
	name       string
	sourceDir  string
	installDir string
	configure  []string
	make       string
	makeflags  string
	env        map[string]string
	unset      []string
}

var _ buildsys.BuildSystem = (*SSLMake)(nil)

// New returns an SSLMake that configures with "perl ./Configure" and builds
// with "make". name appears in step descriptions ("building <name>").
func New(runner buildsys.Runner, name, sourceDir, installDir string) *SSLMake {
	if runner == nil {
		runner = &ExecRunner{}
	}
	return &SSLMake{
		runner:     runner,
		name:       name,
		sourceDir:  sourceDir,
		installDir: installDir,
		configure:  []string{"perl", "./Configure"},
		make:       "make",
		env:        make(map[string]string),
	}
}

// Source overrides the source directory. Every step runs inside it.
func (s *SSLMake) Source(dir string) { s.sourceDir = dir }

// InstallDir overrides the --prefix passed to configure.
func (s *SSLMake) InstallDir(dir string) { s.installDir = dir }

// Env sets key=value for every command spawned later.
func (s *SSLMake) Env(key, value string) { s.env[key] = value }

// Unsetenv removes key from the environment of the configure step.
func (s *SSLMake) Unsetenv(key string) { s.unset = append(s.unset, key) }

// ConfigureWith sets the interpreter and script used by Configure,
// e.g. ("sh", "./config") or ("perl", "./Configure").
func (s *SSLMake) ConfigureWith(program, script string) { s.configure = []string{program, script} }

// Make sets the make program ("make" or "gmake").
func (s *SSLMake) Make(program string) { s.make = program }

// MakeFlags sets MAKEFLAGS for the build_libs step only.
func (s *SSLMake) MakeFlags(flags string) { s.makeflags = flags }

// ConfigureCommand returns the configure invocation without running it.
// --prefix is prepended automatically when installDir is set.
func (s *SSLMake) ConfigureCommand(args ...string) *buildsys.Command {
	flags := make([]string, 0, 2+len(args))
	flags = append(flags, s.configure[1:]...)
	if s.installDir != "" {
		flags = append(flags, "--prefix="+s.installDir)
	}
	return s.command("configuring "+s.name+" build", s.configure[0], append(flags, args...), s.unset)
}

// Configure runs the configure script with args appended after --prefix.
func (s *SSLMake) Configure(args ...string) error {
	return s.run(s.ConfigureCommand(args...))
}

// Depend runs "make depend".
func (s *SSLMake) Depend() error {
	return s.run(s.command("building "+s.name+" dependencies", s.make, []string{"depend"}, nil))
}

// Build runs "make build_libs", or make with args when given.
func (s *SSLMake) Build(args ...string) error {
	if len(args) == 0 {
		args = []string{"build_libs"}
	}
	cmd := s.command("building "+s.name, s.make, args, nil)
	if s.makeflags != "" {
		cmd.Env["MAKEFLAGS"] = s.makeflags
	}
	return s.run(cmd)
}

// Install runs "make install" with optional extra arguments appended.
func (s *SSLMake) Install(args ...string) error {
	return s.run(s.command("installing "+s.name, s.make, append([]string{"install"}, args...), nil))
}

// OutputDir returns installDir if set, otherwise sourceDir.
func (s *SSLMake) OutputDir() string {
	if s.installDir != "" {
		return s.installDir
	}
	return s.sourceDir
}

func (s *SSLMake) command(desc, name string, args []string, unset []string) *buildsys.Command {
	env := make(map[string]string, len(s.env)+1)
	for k, v := range s.env {
		env[k] = v
	}
	return &buildsys.Command{
		Desc:  desc,
		Name:  name,
		Args:  args,
		Dir:   s.sourceDir,
		Env:   env,
		Unset: unset,
	}
}

func (s *SSLMake) run(cmd *buildsys.Command) error {
	log.Infof("running %s", cmd)
	if err := s.runner.Run(cmd); err != nil {
		return buildsys.NewStepError(cmd, err)
	}
	return nil
}

// ExecRunner runs commands as subprocesses. Nil writers default to
// os.Stdout and os.Stderr.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Run starts c and waits for it. There is no timeout.
func (r *ExecRunner) Run(c *buildsys.Command) error {
	cmd := exec.Command(c.Name, c.Args...)
	if c.Dir != "" {
		cmd.Dir = c.Dir
	}
	cmd.Stdout = r.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = r.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	if len(c.Env) > 0 || len(c.Unset) > 0 {
		cmd.Env = mergeEnv(os.Environ(), c.Env, c.Unset)
	}
	return cmd.Run()
}

// mergeEnv applies overrides and removals to base and returns a sorted environment.
func mergeEnv(base []string, override map[string]string, unset []string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	for _, k := range unset {
		delete(envMap, k)
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}

// IsConfigureScript reports whether dir holds an OpenSSL-style configure script.
func IsConfigureScript(dir string) bool {
	for _, name := range []string{"Configure", "config"} {
		if fi, err := os.Stat(filepath.Join(dir, name)); err == nil && !fi.IsDir() {
			return true
		}
	}
	return false
}
