package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goplus/tasslsrc/internal/build"
	"github.com/goplus/tasslsrc/internal/config"
	"github.com/goplus/tasslsrc/internal/env"
	"github.com/goplus/tasslsrc/pkgs/artifacts"
	"github.com/goplus/tasslsrc/pkgs/buildsys/sslconf"
	"github.com/goplus/tasslsrc/pkgs/target"
	"github.com/spf13/cobra"
)

var (
	buildSource     string
	buildSourceRepo string
	buildSourceRef  string
	buildOutDir     string
	buildTarget     string
	buildHost       string
	buildForce      bool
	buildFormat     string
	buildConfig     string
	buildOutput     string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build TASSL and print where it was installed",
	Long: `Build copies the TASSL source tree into a scratch directory, configures,
builds and installs it below <out-dir>/tassl-build, and prints a descriptor of
the install on stdout. An existing install is reused unless --force is given.

Unset flags fall back to TASSL_SRC_DIR, OUT_DIR, TARGET and HOST.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	f := buildCmd.Flags()
	f.StringVar(&buildSource, "source", "", "Vendored TASSL source tree (default $TASSL_SRC_DIR or ./TASSL)")
	f.StringVar(&buildSourceRepo, "source-repo", "", "Fetch the source tree from this git repository instead")
	f.StringVar(&buildSourceRef, "source-ref", "", `Branch, tag or commit to fetch; "latest" picks the highest semver tag`)
	f.StringVar(&buildOutDir, "out-dir", "", "Output root (default $OUT_DIR or the user cache directory)")
	f.StringVar(&buildTarget, "target", "", "Target triple (default $TARGET or the host)")
	f.StringVar(&buildHost, "host", "", "Host triple (default $HOST or the running machine)")
	f.BoolVarP(&buildForce, "force", "f", false, "Rebuild even if an install exists")
	f.StringVar(&buildFormat, "format", string(artifacts.Cargo), "Descriptor format: "+strings.Join(artifacts.Formats(), ", "))
	f.StringVarP(&buildConfig, "config", "c", "", "YAML file with extra targets, configure args and env")
	f.StringVarP(&buildOutput, "output", "o", "", "Also copy the install to this directory or .zip file")
	buildCmd.MarkFlagsMutuallyExclusive("source", "source-repo")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	if !slices.Contains(artifacts.Formats(), buildFormat) {
		return fmt.Errorf("unknown format %q (want one of %s)", buildFormat, strings.Join(artifacts.Formats(), ", "))
	}
	cfg, err := config.Load(buildConfig)
	if err != nil {
		return err
	}
	opts, err := buildOptions(cfg)
	if err != nil {
		return err
	}
	// Build tools share stderr with our log; stdout carries only the descriptor.
	var toolOutput io.Writer = os.Stderr
	if quiet {
		toolOutput = io.Discard
	}
	opts.Runner = &sslconf.ExecRunner{Stdout: toolOutput, Stderr: toolOutput}

	builder, err := build.NewBuilder(opts)
	if err != nil {
		return err
	}
	a, err := builder.Build(context.Background())
	if err != nil {
		return err
	}
	if buildOutput != "" {
		if err := outputResult(builder.InstallDir(), buildOutput); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return artifacts.Emit(cmd.OutOrStdout(), artifacts.Format(buildFormat), a)
}

// buildOptions merges flags, environment defaults and the config file.
func buildOptions(cfg *config.Config) (build.Options, error) {
	opts := build.Options{
		SourceRepo:    buildSourceRepo,
		SourceRef:     buildSourceRef,
		Force:         buildForce,
		Table:         cfg.Table(target.Default),
		ConfigureArgs: cfg.ConfigureArgs,
		Env:           cfg.Env,
	}
	if opts.SourceRepo == "" {
		opts.SourceDir = orEnv(buildSource, "TASSL_SRC_DIR", "TASSL")
	}
	opts.Host = orEnv(buildHost, "HOST", target.Host())
	opts.Target = orEnv(buildTarget, "TARGET", opts.Host)
	opts.OutDir = orEnv(buildOutDir, "OUT_DIR", "")
	if opts.OutDir == "" {
		dir, err := env.WorkDir()
		if err != nil {
			return opts, fmt.Errorf("failed to get work dir: %w", err)
		}
		opts.OutDir = dir
	}
	return opts, nil
}

func orEnv(flag, key, def string) string {
	if flag != "" {
		return flag
	}
	return env.Or(key, def)
}

// outputResult writes the install tree to dest.
// If dest ends with ".zip", creates a zip archive; otherwise copies the directory.
func outputResult(srcDir, dest string) error {
	dest, err := filepath.Abs(dest)
	if err != nil {
		return err
	}
	if strings.HasSuffix(dest, ".zip") {
		return zipDir(srcDir, dest)
	}
	return os.CopyFS(dest, os.DirFS(srcDir))
}
