package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/goplus/tasslsrc/internal/vcs"
	"github.com/goplus/tasslsrc/pkgs/buildsys"
)

// fakeRunner records commands and simulates what make install produces.
type fakeRunner struct {
	cmds []*buildsys.Command

	// failArg makes the first command whose args contain it fail.
	failArg string
	failErr error

	// check, when set, inspects every command before it "runs".
	check func(cmd *buildsys.Command)
}

func (r *fakeRunner) Run(cmd *buildsys.Command) error {
	r.cmds = append(r.cmds, cmd)
	if r.check != nil {
		r.check(cmd)
	}
	for _, a := range cmd.Args {
		if a == r.failArg {
			if r.failErr != nil {
				return r.failErr
			}
			return errors.New("exit status 2")
		}
	}
	if len(cmd.Args) > 0 && cmd.Args[0] == "install" {
		return fakeInstall(prefixOf(r.cmds))
	}
	return nil
}

func (r *fakeRunner) lines() []string {
	out := make([]string, len(r.cmds))
	for i, c := range r.cmds {
		out[i] = c.String()
	}
	return out
}

// prefixOf finds --prefix in the recorded configure command.
func prefixOf(cmds []*buildsys.Command) string {
	for _, c := range cmds {
		for _, a := range c.Args {
			if p, ok := strings.CutPrefix(a, "--prefix="); ok {
				return p
			}
		}
	}
	return ""
}

func fakeInstall(prefix string) error {
	for _, f := range []string{
		filepath.Join("include", "openssl", "ssl.h"),
		filepath.Join("lib", "libssl.a"),
		filepath.Join("lib", "libcrypto.a"),
		filepath.Join("bin", "openssl"),
	} {
		path := filepath.Join(prefix, f)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(f), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// fakeVCS populates the checkout directory instead of running git.
type fakeVCS struct {
	tags   []string
	synced []string // "remote@ref"
}

func (f *fakeVCS) Sync(_ context.Context, remote, ref, dir string) error {
	f.synced = append(f.synced, remote+"@"+ref)
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "Configure"), []byte("#!/usr/bin/env perl\n# "+ref+"\n"), 0o755)
}

func (f *fakeVCS) Tags(context.Context, string) ([]string, error) { return f.tags, nil }

func (f *fakeVCS) Latest(context.Context, string) (string, error) {
	return "0123456789abcdef0123456789abcdef01234567", nil
}

var _ vcs.VCS = (*fakeVCS)(nil)
