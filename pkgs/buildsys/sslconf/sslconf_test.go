package sslconf

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/goplus/tasslsrc/pkgs/buildsys"
)

type recorder struct {
	cmds   []*buildsys.Command
	failAt string // Desc of the command that fails
}

func (r *recorder) Run(cmd *buildsys.Command) error {
	r.cmds = append(r.cmds, cmd)
	if cmd.Desc == r.failAt {
		return errors.New("boom")
	}
	return nil
}

func TestLifecycleCommands(t *testing.T) {
	rec := &recorder{}
	s := New(rec, "TASSL", "/src", "/prefix")
	s.ConfigureWith("sh", "./config")
	s.Make("gmake")
	s.MakeFlags("-j4")
	s.Env("CC", "cc")
	s.Unsetenv("CROSS_COMPILE")

	if err := s.Configure("no-shared"); err != nil {
		t.Fatal(err)
	}
	if err := s.Depend(); err != nil {
		t.Fatal(err)
	}
	if err := s.Build(); err != nil {
		t.Fatal(err)
	}
	if err := s.Install(); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"sh ./config --prefix=/prefix no-shared",
		"gmake depend",
		"gmake build_libs",
		"gmake install",
	}
	var got []string
	for _, c := range rec.cmds {
		got = append(got, c.String())
		if c.Dir != "/src" {
			t.Errorf("%s: Dir = %q, want /src", c, c.Dir)
		}
		if c.Env["CC"] != "cc" {
			t.Errorf("%s: CC not forwarded", c)
		}
	}
	if !slices.Equal(got, want) {
		t.Fatalf("commands = %q, want %q", got, want)
	}

	if !slices.Equal(rec.cmds[0].Unset, []string{"CROSS_COMPILE"}) {
		t.Errorf("configure Unset = %q", rec.cmds[0].Unset)
	}
	if len(rec.cmds[1].Unset) != 0 {
		t.Errorf("depend Unset = %q, want none", rec.cmds[1].Unset)
	}
	if rec.cmds[2].Env["MAKEFLAGS"] != "-j4" {
		t.Errorf("build_libs MAKEFLAGS = %q", rec.cmds[2].Env["MAKEFLAGS"])
	}
	if _, ok := rec.cmds[3].Env["MAKEFLAGS"]; ok {
		t.Error("MAKEFLAGS leaked into install step")
	}
	if got := rec.cmds[2].Desc; got != "building TASSL" {
		t.Errorf("build Desc = %q", got)
	}
}

func TestStepFailure(t *testing.T) {
	rec := &recorder{failAt: "building TASSL dependencies"}
	s := New(rec, "TASSL", "/src", "/prefix")
	err := s.Depend()

	var stepErr *buildsys.StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("error %v is not a StepError", err)
	}
	if !errors.Is(err, buildsys.ErrBuild) {
		t.Error("StepError does not match ErrBuild")
	}
	if stepErr.Command != "make depend" || stepErr.ExitCode != -1 {
		t.Errorf("StepError = %+v", stepErr)
	}
	if !strings.Contains(err.Error(), "building TASSL dependencies") {
		t.Errorf("message %q does not name the step", err)
	}
}

func TestOutputDir(t *testing.T) {
	s := New(nil, "TASSL", "src", "")
	if got := s.OutputDir(); got != "src" {
		t.Fatalf("OutputDir = %q, want src", got)
	}
	s.InstallDir("install")
	if got := s.OutputDir(); got != "install" {
		t.Fatalf("OutputDir = %q, want install", got)
	}
}

func TestExecRunnerExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs sh")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not found in PATH")
	}
	var stdout bytes.Buffer
	s := New(&ExecRunner{Stdout: &stdout}, "TASSL", t.TempDir(), "")
	s.ConfigureWith("sh", "-c")
	s.InstallDir("")
	s.Env("GREETING", "hi")

	if err := s.Configure(`echo "$GREETING"`); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if got := strings.TrimSpace(stdout.String()); got != "hi" {
		t.Errorf("stdout = %q, want hi", got)
	}

	err := s.Configure("exit 3")
	var stepErr *buildsys.StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("error %v is not a StepError", err)
	}
	if stepErr.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", stepErr.ExitCode)
	}
}

func TestMergeEnv(t *testing.T) {
	base := []string{"A=1", "B=2", "CROSS_COMPILE=x-"}
	got := mergeEnv(base, map[string]string{"B": "3", "C": "4"}, []string{"CROSS_COMPILE"})
	want := []string{"A=1", "B=3", "C=4"}
	if !slices.Equal(got, want) {
		t.Errorf("mergeEnv = %q, want %q", got, want)
	}
}

func TestIsConfigureScript(t *testing.T) {
	dir := t.TempDir()
	if IsConfigureScript(dir) {
		t.Fatal("empty dir reported as configurable")
	}
	if err := os.WriteFile(filepath.Join(dir, "Configure"), []byte("#!/usr/bin/env perl\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	if !IsConfigureScript(dir) {
		t.Fatal("dir with Configure not detected")
	}
}
