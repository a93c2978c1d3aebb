// Package deploy sequences one deploy of one function: guard, idempotency
// check, build, package, publish, record, collect.
// This is part of the Imperative Shell - the stage rules live in
// internal/core/deployment.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/artpar/fndeploy/internal/core/deployment"
	"github.com/artpar/fndeploy/internal/core/domain"
)

// =============================================================================
// Collaborators
// =============================================================================

// Guard checks that the working tree is committed.
type Guard interface {
	CheckCleanTree(ctx context.Context) error
}

// Ledger answers and records which versions were deployed from HEAD.
type Ledger interface {
	IsAlreadyDeployed(ctx context.Context, functionName string) (bool, error)
	Record(ctx context.Context, functionName, version string) (domain.VersionMarker, error)
}

// Builder runs the external build.
type Builder interface {
	Build(ctx context.Context) error
}

// Artifact is a packaged upload.
type Artifact interface {
	Path() string
	Bytes() ([]byte, error)
	Checksum() (string, error)
	Persist(dst string) error
	Close() error
}

// Packager turns a bundle into an artifact.
type Packager interface {
	Package(ctx context.Context, bundlePath string) (Artifact, error)
}

// PackagerFunc adapts a function to the Packager interface.
type PackagerFunc func(ctx context.Context, bundlePath string) (Artifact, error)

func (f PackagerFunc) Package(ctx context.Context, bundlePath string) (Artifact, error) {
	return f(ctx, bundlePath)
}

// Publisher creates a new immutable version on the runtime.
type Publisher interface {
	Publish(ctx context.Context, functionName string, artifact []byte) (domain.PublishedFunction, error)
}

// Collector deletes stale versions.
type Collector interface {
	Collect(ctx context.Context, functionName, keepVersion string) (domain.CollectionReport, error)
}

// Dependencies are the collaborators of an Orchestrator. Builder may be nil
// when builds are never requested.
type Dependencies struct {
	Guard     Guard
	Ledger    Ledger
	Builder   Builder
	Packager  Packager
	Publisher Publisher
	Collector Collector
}

// Options are the per-invocation switches.
type Options struct {
	Build        bool   // run the builder before packaging
	KeepArtifact bool   // persist the artifact to ArtifactDir/<function>.zip
	ArtifactDir  string // defaults to the current directory
	Force        bool   // skip the already-deployed check
}

// =============================================================================
// Orchestrator
// =============================================================================

// Orchestrator runs deploys. It holds no per-run state and may be reused.
type Orchestrator struct {
	deps   Dependencies
	logger *slog.Logger
}

// New creates an orchestrator.
func New(deps Dependencies, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		deps:   deps,
		logger: logger.With("component", "orchestrator"),
	}
}

// Deploy runs the workflow for fn and returns its terminal outcome.
//
// Every failure before the publish aborts the run with no remote effect.
// Once a version is published the remaining steps ignore cancellation of ctx:
// a ledger failure ends the run PartiallyFailed, and garbage collection
// failures are attached to the result without failing the run.
func (o *Orchestrator) Deploy(ctx context.Context, fn domain.DeployableFunction, opts Options) deployment.Outcome {
	run := deployment.NewRun(fn.Name)
	logger := o.logger.With("run_id", uuid.NewString(), "function", fn.Name)

	// Start → GuardChecked
	if err := o.deps.Guard.CheckCleanTree(ctx); err != nil {
		reason := failureReason(ctx, deployment.ReasonGuardFailed)
		if errors.Is(err, deployment.ErrDirtyTree) {
			reason = deployment.ReasonDirtyTree
		}
		return o.abort(run, reason, err, logger)
	}
	o.advance(run, deployment.StageGuardChecked, logger)

	// GuardChecked → IdempotencyChecked
	if opts.Force {
		logger.Warn("skipping already-deployed check")
	} else {
		deployed, err := o.deps.Ledger.IsAlreadyDeployed(ctx, fn.Name)
		if err != nil {
			return o.abort(run, failureReason(ctx, deployment.ReasonLedgerUnavailable), err, logger)
		}
		if deployed {
			return o.abort(run, deployment.ReasonAlreadyDeployed, deployment.ErrAlreadyDeployed, logger)
		}
	}
	o.advance(run, deployment.StageIdempotencyChecked, logger)

	// IdempotencyChecked → Built
	if opts.Build {
		if o.deps.Builder == nil {
			return o.abort(run, deployment.ReasonBuildFailed,
				fmt.Errorf("%w: no builder configured", deployment.ErrBuildFailed), logger)
		}
		if err := o.deps.Builder.Build(ctx); err != nil {
			return o.abort(run, failureReason(ctx, deployment.ReasonBuildFailed), err, logger)
		}
		o.advance(run, deployment.StageBuilt, logger)
	}

	// → Packaged
	artifact, err := o.deps.Packager.Package(ctx, fn.BundlePath)
	if err != nil {
		return o.abort(run, failureReason(ctx, deployment.ReasonPackageFailed), err, logger)
	}
	defer func() {
		if err := artifact.Close(); err != nil {
			logger.Warn("failed to remove artifact", "path", artifact.Path(), "error", err)
		}
	}()

	if opts.KeepArtifact {
		dst := filepath.Join(opts.ArtifactDir, fn.Name+".zip")
		if err := artifact.Persist(dst); err != nil {
			return o.abort(run, deployment.ReasonPackageFailed, err, logger)
		}
		logger.Info("artifact kept", "path", dst)
	}
	body, err := artifact.Bytes()
	if err != nil {
		return o.abort(run, deployment.ReasonPackageFailed, err, logger)
	}
	if sum, err := artifact.Checksum(); err == nil {
		logger = logger.With("artifact_checksum", sum)
	}
	o.advance(run, deployment.StagePackaged, logger)

	// Packaged → Published. Last point where cancellation is honored.
	if err := ctx.Err(); err != nil {
		return o.abort(run, deployment.ReasonCanceled, err, logger)
	}
	published, err := o.deps.Publisher.Publish(ctx, fn.Name, body)
	if err != nil {
		return o.abort(run, deployment.ReasonPublishFailed, err, logger)
	}
	o.advance(run, deployment.StagePublished, logger)

	result := domain.NewDeployResult(published)
	if opts.KeepArtifact {
		result.ArtifactPath = artifact.Path()
	}
	logger = logger.With("version", published.Version)

	ctx = context.WithoutCancel(ctx)

	// Published → LedgerRecorded
	marker, err := o.deps.Ledger.Record(ctx, fn.Name, published.Version)
	if err != nil {
		if ferr := run.FailPartially(fn.Name, published.Version, err); ferr != nil {
			logger.Error("invalid stage transition", "error", ferr)
		}
		logger.Error("version published but not recorded; record the marker by hand",
			"marker", domain.VersionMarker{FunctionName: fn.Name, Version: published.Version}.String(),
			"error", err,
		)
		return run.Outcome(result)
	}
	result.RecordMarker(marker)
	o.advance(run, deployment.StageLedgerRecorded, logger)

	// LedgerRecorded → Collected
	report, listErr := o.deps.Collector.Collect(ctx, fn.Name, published.Version)
	if listErr != nil {
		logger.Warn("garbage collection skipped", "error", listErr)
	}
	if err := report.Err(); err != nil {
		logger.Warn("some versions were not deleted", "error", err)
	}
	result.ApplyCollection(report, listErr)
	o.advance(run, deployment.StageCollected, logger)

	o.advance(run, deployment.StageDone, logger)
	logger.Info("deploy finished",
		"deleted", len(result.DeletedVersions),
		"deletion_failures", len(result.DeletionFailures),
	)
	return run.Outcome(result)
}

func (o *Orchestrator) advance(run *deployment.Run, to deployment.Stage, logger *slog.Logger) {
	if err := run.Advance(to); err != nil {
		// Deploy only requests transitions listed in the stage table.
		panic(err)
	}
	logger.Debug("stage reached", "stage", to)
}

func (o *Orchestrator) abort(run *deployment.Run, reason deployment.AbortReason, cause error, logger *slog.Logger) deployment.Outcome {
	stage := run.Stage
	if err := run.Abort(reason, cause); err != nil {
		panic(err)
	}
	logger.Warn("deploy aborted", "stage", stage, "reason", reason, "error", cause)
	return run.Outcome(nil)
}

// failureReason reports cancellation in place of the failing step's reason.
func failureReason(ctx context.Context, reason deployment.AbortReason) deployment.AbortReason {
	if ctx.Err() != nil {
		return deployment.ReasonCanceled
	}
	return reason
}
