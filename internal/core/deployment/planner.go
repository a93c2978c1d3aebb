package deployment

import (
	"fmt"
	"slices"

	"github.com/artpar/fndeploy/internal/core/domain"
)

// =============================================================================
// Stages
// =============================================================================

type Stage string

const (
	StageStart              Stage = "start"
	StageGuardChecked       Stage = "guard_checked"
	StageIdempotencyChecked Stage = "idempotency_checked"
	StageBuilt              Stage = "built"
	StagePackaged           Stage = "packaged"
	StagePublished          Stage = "published"
	StageLedgerRecorded     Stage = "ledger_recorded"
	StageCollected          Stage = "collected"
	StageDone               Stage = "done"
	StageAborted            Stage = "aborted"
	StagePartiallyFailed    Stage = "partially_failed"
)

// validTransitions defines the allowed stage transitions.
var validTransitions = map[Stage][]Stage{
	StageStart:              {StageGuardChecked, StageAborted},
	StageGuardChecked:       {StageIdempotencyChecked, StageAborted},
	StageIdempotencyChecked: {StageBuilt, StagePackaged, StageAborted},
	StageBuilt:              {StagePackaged, StageAborted},
	StagePackaged:           {StagePublished, StageAborted},
	StagePublished:          {StageLedgerRecorded, StagePartiallyFailed},
	StageLedgerRecorded:     {StageCollected},
	StageCollected:          {StageDone},
	StageDone:               {}, // Terminal
	StageAborted:            {}, // Terminal
	StagePartiallyFailed:    {}, // Terminal
}

// ValidateTransition checks if a stage transition is valid.
func ValidateTransition(from, to Stage) error {
	allowed, exists := validTransitions[from]
	if !exists {
		return fmt.Errorf("%w: unknown stage %q", ErrInvalidTransition, from)
	}
	if slices.Contains(allowed, to) {
		return nil
	}
	return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, from, to)
}

// IsTerminal reports whether no further transition is possible.
func (s Stage) IsTerminal() bool {
	return s == StageDone || s == StageAborted || s == StagePartiallyFailed
}

// HasRemoteEffects reports whether reaching this stage implies a new version
// exists on the runtime.
func (s Stage) HasRemoteEffects() bool {
	switch s {
	case StagePublished, StageLedgerRecorded, StageCollected, StageDone, StagePartiallyFailed:
		return true
	default:
		return false
	}
}

// =============================================================================
// Abort Reasons
// =============================================================================

// AbortReason names why a run stopped before publishing.
type AbortReason string

const (
	ReasonNone              AbortReason = ""
	ReasonDirtyTree         AbortReason = "dirty_tree"
	ReasonGuardFailed       AbortReason = "guard_failed"
	ReasonAlreadyDeployed   AbortReason = "already_deployed"
	ReasonLedgerUnavailable AbortReason = "ledger_unavailable"
	ReasonBuildFailed       AbortReason = "build_failed"
	ReasonPackageFailed     AbortReason = "package_failed"
	ReasonPublishFailed     AbortReason = "publish_failed"
	ReasonCanceled          AbortReason = "canceled"
)

// =============================================================================
// Run
// =============================================================================

// Run tracks one function's progress through the stages.
type Run struct {
	FunctionName string
	Stage        Stage
	History      []Stage
	Reason       AbortReason
	Err          error
}

// NewRun creates a run in the start stage.
func NewRun(functionName string) *Run {
	return &Run{
		FunctionName: functionName,
		Stage:        StageStart,
		History:      []Stage{StageStart},
	}
}

// Advance moves the run to the next non-failure stage.
func (r *Run) Advance(to Stage) error {
	if to == StageAborted || to == StagePartiallyFailed {
		return fmt.Errorf("%w: use Abort or FailPartially to reach %s", ErrInvalidTransition, to)
	}
	return r.transition(to)
}

// Abort ends the run before anything was published. The cause is wrapped in
// a StageError that records the stage the run was in.
func (r *Run) Abort(reason AbortReason, cause error) error {
	from := r.Stage
	if err := r.transition(StageAborted); err != nil {
		return err
	}
	r.Reason = reason
	r.Err = &StageError{Stage: from, Reason: reason, Err: cause}
	return nil
}

// FailPartially ends a run whose publish succeeded but whose ledger write did
// not. The new version exists remotely and is unknown to the ledger.
func (r *Run) FailPartially(functionName, version string, cause error) error {
	if err := r.transition(StagePartiallyFailed); err != nil {
		return err
	}
	r.Err = &PartialFailureError{FunctionName: functionName, Version: version, Err: cause}
	return nil
}

func (r *Run) transition(to Stage) error {
	if err := ValidateTransition(r.Stage, to); err != nil {
		return err
	}
	r.Stage = to
	r.History = append(r.History, to)
	return nil
}

// Outcome snapshots the run. Result may be nil for runs that never published.
func (r *Run) Outcome(result *domain.DeployResult) Outcome {
	return Outcome{
		FunctionName: r.FunctionName,
		Stage:        r.Stage,
		Reason:       r.Reason,
		Result:       result,
		Err:          r.Err,
		History:      slices.Clone(r.History),
	}
}

// =============================================================================
// Outcome
// =============================================================================

// Outcome is the terminal state of a run.
type Outcome struct {
	FunctionName string
	Stage        Stage
	Reason       AbortReason
	Result       *domain.DeployResult
	Err          error
	History      []Stage
}

// Succeeded reports a run that reached done. Soft deletion failures do not
// count against success.
func (o Outcome) Succeeded() bool {
	return o.Stage == StageDone
}

// Aborted reports a run that stopped without touching remote state.
func (o Outcome) Aborted() bool {
	return o.Stage == StageAborted
}

// NeedsOperator reports the published-but-unrecorded case. Re-running would
// publish a duplicate version, so a human has to record the marker.
func (o Outcome) NeedsOperator() bool {
	return o.Stage == StagePartiallyFailed
}
