package buildsys

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// BuildSystem captures shared capabilities of native build drivers.
// It keeps the common lifecycle and env setup; implementations add their own extras.
type BuildSystem interface {
	// Basic paths.
	Source(dir string)
	InstallDir(dir string)

	// Environment helper.
	Env(key, val string)

	// Lifecycle.
	Configure(args ...string) error
	Build(args ...string) error
	Install(args ...string) error

	// Where artifacts land.
	OutputDir() string
}

// ErrBuild is matched by every error caused by an external command failing.
var ErrBuild = errors.New("build failed")

// Command is one external invocation of a build step.
type Command struct {
	Desc string // what the step does, e.g. "configuring TASSL build"
	Name string
	Args []string
	Dir  string

	// Env overrides the inherited environment; Unset removes keys from it.
	Env   map[string]string
	Unset []string
}

// String renders the command line as it would be typed in a shell.
func (c *Command) String() string {
	parts := make([]string, 0, 1+len(c.Args))
	for _, s := range append([]string{c.Name}, c.Args...) {
		if s == "" || strings.ContainsAny(s, " \t\"'$\\") {
			s = fmt.Sprintf("%q", s)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

// Runner executes build commands.
type Runner interface {
	Run(cmd *Command) error
}

// StepError reports a build step whose command did not succeed.
type StepError struct {
	Desc     string
	Command  string
	ExitCode int // -1 if the command could not be started
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("error %s:\n    Command: %s\n    Exit status: %d", e.Desc, e.Command, e.ExitCode)
}

func (e *StepError) Unwrap() error { return e.Err }

func (e *StepError) Is(target error) bool { return target == ErrBuild }

// NewStepError wraps the error returned by running cmd.
func NewStepError(cmd *Command, err error) *StepError {
	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return &StepError{
		Desc:     cmd.Desc,
		Command:  cmd.String(),
		ExitCode: code,
		Err:      err,
	}
}
