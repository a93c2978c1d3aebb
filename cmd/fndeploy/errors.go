package main

import (
	"errors"
	"fmt"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess        = 0
	ExitConfigError    = 1
	ExitAborted        = 2
	ExitPartialFailure = 3
)

// =============================================================================
// Errors
// =============================================================================

// ConfigError reports a function manifest that could not be read or parsed.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// CommandError carries the exit code a failed command should produce.
type CommandError struct {
	Op       string
	Err      error
	ExitCode int

	// Reported is set when the failure was already shown to the operator.
	Reported bool
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// exitCode maps an error returned by a command to the process exit status.
// Errors that are not CommandErrors are usage or configuration mistakes.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.ExitCode
	}
	return ExitConfigError
}
