package domain

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// =============================================================================
// Garbage Collection Report
// =============================================================================

var ErrDeletionFailed = errors.New("version deletion failed")

// DeletionFailure is a soft failure: one version that could not be deleted.
type DeletionFailure struct {
	Version string `json:"version"`
	Reason  string `json:"reason"`
}

// CollectionReport is the outcome of one garbage collection pass.
type CollectionReport struct {
	FunctionName    string            `json:"function_name"`
	KeepVersion     string            `json:"keep_version"`
	DeletedVersions []string          `json:"deleted_versions"`
	Failures        []DeletionFailure `json:"failures"`
}

// Err aggregates the per-version failures, or returns nil when every
// eligible version was deleted.
func (r CollectionReport) Err() error {
	var errs *multierror.Error
	for _, f := range r.Failures {
		errs = multierror.Append(errs, fmt.Errorf("%w: version %s: %s", ErrDeletionFailed, f.Version, f.Reason))
	}
	return errs.ErrorOrNil()
}

// =============================================================================
// Deploy Result
// =============================================================================

// DeployResult is the terminal report of one orchestration run. It is never
// persisted.
type DeployResult struct {
	FunctionName     string            `json:"function_name"`
	NewVersion       string            `json:"new_version"`
	Marker           *VersionMarker    `json:"marker,omitempty"`
	CodeSha256       string            `json:"code_sha256,omitempty"`
	ArtifactPath     string            `json:"artifact_path,omitempty"`
	DeletedVersions  []string          `json:"deleted_versions"`
	DeletionFailures []DeletionFailure `json:"deletion_failures"`

	// CollectionError is set when the version listing itself failed, in
	// which case nothing was deleted.
	CollectionError string `json:"collection_error,omitempty"`
}

// NewDeployResult starts a result for a version that has been published but
// not yet recorded.
func NewDeployResult(published PublishedFunction) *DeployResult {
	return &DeployResult{
		FunctionName:     published.FunctionName,
		NewVersion:       published.Version,
		CodeSha256:       published.CodeSha256,
		DeletedVersions:  []string{},
		DeletionFailures: []DeletionFailure{},
	}
}

// RecordMarker attaches the ledger entry written for the new version.
func (r *DeployResult) RecordMarker(marker VersionMarker) {
	r.Marker = &marker
}

// ApplyCollection copies the garbage collection outcome into the result.
func (r *DeployResult) ApplyCollection(report CollectionReport, listErr error) {
	r.DeletedVersions = append(r.DeletedVersions, report.DeletedVersions...)
	r.DeletionFailures = append(r.DeletionFailures, report.Failures...)
	if listErr != nil {
		r.CollectionError = listErr.Error()
	}
}

// HasSoftFailures reports whether cleanup left anything behind.
func (r *DeployResult) HasSoftFailures() bool {
	return len(r.DeletionFailures) > 0 || r.CollectionError != ""
}
