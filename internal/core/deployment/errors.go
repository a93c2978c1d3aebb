package deployment

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// Preconditions
	ErrDirtyTree       = errors.New("working tree has uncommitted changes")
	ErrAlreadyDeployed = errors.New("function already deployed at current commit")

	// Pre-publish stages
	ErrBuildFailed   = errors.New("build failed")
	ErrPackageFailed = errors.New("packaging failed")
	ErrPublishFailed = errors.New("publish failed")

	// Post-publish
	ErrPartialFailure = errors.New("published version was not recorded in the ledger")

	ErrInvalidTransition = errors.New("invalid stage transition")
)

// StageError is the single top-level error of an aborted run.
type StageError struct {
	Stage  Stage // stage the run was in when it aborted
	Reason AbortReason
	Err    error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("aborted after %s (%s): %v", e.Stage, e.Reason, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// PartialFailureError reports a version that exists on the runtime but has
// no ledger marker.
type PartialFailureError struct {
	FunctionName string
	Version      string
	Err          error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("version %s of %s was published but not recorded: %v", e.Version, e.FunctionName, e.Err)
}

func (e *PartialFailureError) Unwrap() []error {
	return []error{ErrPartialFailure, e.Err}
}

// MarkerTag is the tag an operator has to create by hand to repair the ledger.
func (e *PartialFailureError) MarkerTag() string {
	return e.FunctionName + "@" + e.Version
}
