// Package build runs the project's build command before packaging.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"

	"github.com/artpar/fndeploy/internal/core/deployment"
)

// DefaultCommand builds a Node.js project.
const DefaultCommand = "npm run build"

var ErrEmptyCommand = errors.New("build command is empty")

// Config describes how to run the build.
type Config struct {
	Command string // shell-style command line, split into argv without a shell
	Dir     string // working directory, empty means the current one
}

// BuildError reports a build that could not start or exited non-zero.
type BuildError struct {
	Command  string
	ExitCode int // -1 when the process never ran
	Err      error
}

func (e *BuildError) Error() string {
	if e.ExitCode > 0 {
		return fmt.Sprintf("build %q exited with status %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("build %q: %v", e.Command, e.Err)
}

func (e *BuildError) Unwrap() []error {
	return []error{deployment.ErrBuildFailed, e.Err}
}

// Builder runs one fixed command line.
type Builder struct {
	command string
	argv    []string
	dir     string
	stdout  io.Writer
	stderr  io.Writer
	logger  *slog.Logger
}

// New parses cfg.Command. The build's output streams go to stdout and stderr;
// nil discards them.
func New(cfg Config, stdout, stderr io.Writer, logger *slog.Logger) (*Builder, error) {
	command := strings.TrimSpace(cfg.Command)
	if command == "" {
		return nil, ErrEmptyCommand
	}
	argv, err := shellwords.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse build command %q: %w", command, err)
	}
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		command: command,
		argv:    argv,
		dir:     cfg.Dir,
		stdout:  stdout,
		stderr:  stderr,
		logger:  logger.With("component", "builder"),
	}, nil
}

// Command returns the command line as configured.
func (b *Builder) Command() string {
	return b.command
}

// Build runs the command to completion. A non-zero exit status is a failure.
func (b *Builder) Build(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, b.argv[0], b.argv[1:]...)
	cmd.Dir = b.dir
	cmd.Stdout = b.stdout
	cmd.Stderr = b.stderr

	b.logger.Info("running build", "command", b.command, "dir", b.dir)
	if err := cmd.Run(); err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return &BuildError{Command: b.command, ExitCode: code, Err: err}
	}
	b.logger.Info("build finished", "command", b.command)
	return nil
}
