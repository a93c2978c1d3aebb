// Package deployment provides the pure decision logic of a deploy run.
//
// This package contains the functional core of the deployment orchestrator:
// the stage state machine, the terminal outcomes a run can end in, the error
// taxonomy and the garbage-collection planning rules. Nothing here performs
// I/O; the imperative shell (internal/shell/deploy) drives a Run through its
// stages while calling out to git and the function runtime.
//
// # Stages
//
//	start → guard_checked → idempotency_checked → [built] → packaged
//	      → published → ledger_recorded → collected → done
//
// Any stage before published may move to aborted. Published may move to
// partially_failed when the ledger write fails. Both are absorbing.
//
// # Usage
//
//	run := deployment.NewRun("api")
//	if err := guard.CheckCleanTree(ctx); err != nil {
//	    run.Abort(deployment.ReasonDirtyTree, err)
//	    return run.Outcome(nil)
//	}
//	run.Advance(deployment.StageGuardChecked)
//
//	plan := deployment.PlanCollection(versions, keep, now, policy)
package deployment
