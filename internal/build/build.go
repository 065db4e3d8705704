package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goplus/tasslsrc/internal/build/lockedfile"
	"github.com/goplus/tasslsrc/internal/env"
	"github.com/goplus/tasslsrc/internal/vcs"
	"github.com/goplus/tasslsrc/pkgs/artifacts"
	"github.com/goplus/tasslsrc/pkgs/buildsys"
	"github.com/goplus/tasslsrc/pkgs/buildsys/sslconf"
	"github.com/goplus/tasslsrc/pkgs/target"
	"github.com/goplus/tasslsrc/pkgs/toolchain"
	"github.com/opencontainers/go-digest"
	"github.com/qiniu/x/log"
)

// Options configures a Builder.
type Options struct {
	// SourceDir is the vendored TASSL tree. It is ignored when SourceRepo is set.
	SourceDir string

	// SourceRepo and SourceRef fetch the tree with git instead.
	// SourceRef may be a branch, tag, commit, vcs.LatestRef, or empty for HEAD.
	SourceRepo string
	SourceRef  string

	// SourceCache holds fetched checkouts. Defaults to env.SourcesDir().
	SourceCache string

	// OutDir is the output root; everything is written below OutDir/tassl-build.
	OutDir string

	Target string
	Host   string // defaults to target.Host()

	// Force rebuilds even when an install already exists.
	Force bool

	// Table overrides target.Default.
	Table target.Table

	// ConfigureArgs are appended after the fixed configure flags.
	ConfigureArgs []string

	// Env is forwarded to every build step.
	Env map[string]string

	Runner buildsys.Runner // defaults to sslconf.ExecRunner
	VCS    vcs.VCS         // defaults to git
	Getenv toolchain.Getenv
}

// Builder builds TASSL once into an output root.
type Builder struct {
	opts       Options
	getenv     toolchain.Getenv
	baseDir    string
	buildDir   string
	installDir string
}

// NewBuilder validates opts and fills in defaults.
func NewBuilder(opts Options) (*Builder, error) {
	if opts.OutDir == "" {
		return nil, errors.New("build: output directory is required")
	}
	if opts.Target == "" {
		return nil, errors.New("build: target triple is required")
	}
	if opts.SourceDir == "" && opts.SourceRepo == "" {
		return nil, errors.New("build: a source directory or repository is required")
	}
	if opts.Host == "" {
		opts.Host = target.Host()
	}
	if opts.Runner == nil {
		opts.Runner = &sslconf.ExecRunner{}
	}
	if opts.VCS == nil {
		opts.VCS = vcs.NewGitVCS()
	}
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	// Configure requires an absolute --prefix.
	outDir, err := filepath.Abs(opts.OutDir)
	if err != nil {
		return nil, err
	}
	base := filepath.Join(outDir, baseName)
	return &Builder{
		opts:       opts,
		getenv:     getenv,
		baseDir:    base,
		buildDir:   filepath.Join(base, "build"),
		installDir: filepath.Join(base, "install"),
	}, nil
}

// BuildDir returns the scratch directory.
func (b *Builder) BuildDir() string { return b.buildDir }

// InstallDir returns the install prefix.
func (b *Builder) InstallDir() string { return b.installDir }

// Build produces a TASSL install and describes it. An existing install is
// reused without running any command unless Force is set.
func (b *Builder) Build(ctx context.Context) (*artifacts.Artifacts, error) {
	unlock, err := lockedfile.MutexAt(filepath.Join(b.baseDir, lockFile)).Lock()
	if err != nil {
		return nil, fsError("lock", b.baseDir, err)
	}
	defer unlock()

	stampPath := filepath.Join(b.baseDir, stampFile)
	_, err = os.Stat(b.installDir)
	installed := err == nil
	if installed && !b.opts.Force {
		b.checkStamp(stampPath)
		log.Infof("reusing TASSL install at %s", b.installDir)
		return artifacts.FromInstall(b.installDir), nil
	}

	p, err := b.plan()
	if err != nil {
		return nil, err
	}

	source, err := b.source(ctx)
	if err != nil {
		return nil, err
	}
	if !sslconf.IsConfigureScript(source) {
		return nil, fsError("find configure script in", source, os.ErrNotExist)
	}

	// Only a buildable source may replace an existing install.
	if installed {
		log.Infof("removing stale TASSL install at %s", b.installDir)
		if err := os.RemoveAll(b.installDir); err != nil {
			return nil, fsError("remove", b.installDir, err)
		}
		os.Remove(stampPath)
	}

	workDir := filepath.Join(b.buildDir, "src")
	if err := os.RemoveAll(b.buildDir); err != nil {
		return nil, fsError("remove", b.buildDir, err)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fsError("create dir", workDir, err)
	}
	log.Debugf("copying %s to %s", source, workDir)
	if err := copyTree(source, workDir); err != nil {
		return nil, err
	}

	sys := sslconf.New(b.opts.Runner, "TASSL", workDir, b.installDir)
	sys.ConfigureWith(p.program, p.script)
	sys.Make(p.family.Make())
	sys.MakeFlags(b.makeflags())
	sys.Env("CC", p.tools.Compiler.Path)
	if p.tools.AR != "" {
		sys.Env("AR", p.tools.AR)
	}
	if p.tools.RANLIB != "" {
		sys.Env("RANLIB", p.tools.RANLIB)
	}
	for k, v := range b.opts.Env {
		sys.Env(k, v)
	}
	// ./Configure and the compiler both honor CROSS_COMPILE; CC already
	// carries the prefix.
	sys.Unsetenv("CROSS_COMPILE")

	configure := sys.ConfigureCommand(p.args...)
	if err := sys.Configure(p.args...); err != nil {
		return nil, err
	}
	if err := sys.Depend(); err != nil {
		return nil, err
	}
	if err := sys.Build(); err != nil {
		return nil, err
	}
	if err := sys.Install(); err != nil {
		// A partial prefix would be reused as a good install on the next run.
		if rerr := os.RemoveAll(b.installDir); rerr != nil {
			log.Warnf("cannot remove partial install %s: %v", b.installDir, rerr)
		}
		return nil, err
	}

	if err := os.RemoveAll(b.buildDir); err != nil {
		return nil, fsError("remove", b.buildDir, err)
	}

	result := artifacts.FromInstall(sys.OutputDir())
	stamp := &buildStamp{
		Target:          b.opts.Target,
		Host:            b.opts.Host,
		Source:          b.sourceLabel(),
		ConfigureDigest: digest.FromString(configure.String()),
		BuildTime:       time.Now(),
		Artifacts:       result,
	}
	if err := saveStamp(stampPath, stamp); err != nil {
		return nil, fsError("write", stampPath, err)
	}
	return result, nil
}

// checkStamp warns when a reused install was built for another target.
func (b *Builder) checkStamp(path string) {
	stamp, err := loadStamp(path)
	if err != nil {
		log.Debugf("no usable build stamp at %s: %v", path, err)
		return
	}
	if stamp.Target != b.opts.Target {
		log.Warnf("reused install was built for %s, not %s; pass --force to rebuild", stamp.Target, b.opts.Target)
	}
}

// source returns the directory to copy from, fetching it first when a
// repository is configured.
func (b *Builder) source(ctx context.Context) (string, error) {
	o := &b.opts
	if o.SourceRepo == "" {
		return o.SourceDir, nil
	}
	ref, err := vcs.ResolveRef(ctx, o.VCS, o.SourceRepo, o.SourceRef)
	if err != nil {
		return "", fmt.Errorf("resolve %s@%s: %w", o.SourceRepo, o.SourceRef, err)
	}
	cache := o.SourceCache
	if cache == "" {
		if cache, err = env.SourcesDir(); err != nil {
			return "", fsError("create dir", "sources", err)
		}
	}
	dir := filepath.Join(cache, digest.FromString(o.SourceRepo).Encoded()[:16])
	log.Infof("fetching %s@%s into %s", o.SourceRepo, ref, dir)
	if err := o.VCS.Sync(ctx, o.SourceRepo, ref, dir); err != nil {
		return "", fmt.Errorf("fetch %s@%s: %w", o.SourceRepo, ref, err)
	}
	return dir, nil
}

func (b *Builder) sourceLabel() string {
	if b.opts.SourceRepo == "" {
		return b.opts.SourceDir
	}
	return strings.TrimSuffix(b.opts.SourceRepo+"@"+b.opts.SourceRef, "@")
}
