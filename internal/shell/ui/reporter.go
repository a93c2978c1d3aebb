package ui

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/artpar/fndeploy/internal/core/deployment"
	"github.com/artpar/fndeploy/internal/core/domain"
	"github.com/artpar/fndeploy/internal/shell/vcs"
)

// Reporter writes outcomes to the operator, as styled text or as JSON.
type Reporter struct {
	out  io.Writer
	json bool
}

// NewReporter creates a reporter writing to out.
func NewReporter(out io.Writer, jsonOutput bool) *Reporter {
	return &Reporter{out: out, json: jsonOutput}
}

// outcomeJSON is the machine-readable form of an outcome.
type outcomeJSON struct {
	Function string                 `json:"function"`
	Stage    deployment.Stage       `json:"stage"`
	Reason   deployment.AbortReason `json:"reason,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Marker   string                 `json:"unrecorded_marker,omitempty"`
	Result   *domain.DeployResult   `json:"result,omitempty"`
	History  []deployment.Stage     `json:"history"`

	// RemoteChanged is true once a new version exists on the runtime.
	RemoteChanged bool `json:"remote_changed"`
}

// Outcome reports how a deploy ended.
func (r *Reporter) Outcome(o deployment.Outcome) error {
	if r.json {
		return r.outcomeJSON(o)
	}

	switch {
	case o.Succeeded():
		r.done(o.Result)
	case o.NeedsOperator():
		r.partial(o)
	default:
		r.aborted(o)
	}
	return nil
}

func (r *Reporter) outcomeJSON(o deployment.Outcome) error {
	doc := outcomeJSON{
		Function: o.FunctionName,
		Stage:    o.Stage,
		Reason:   o.Reason,
		Result:   o.Result,
		History:  o.History,

		RemoteChanged: o.Stage.HasRemoteEffects(),
	}
	if o.Err != nil {
		doc.Error = o.Err.Error()
	}
	var partial *deployment.PartialFailureError
	if errors.As(o.Err, &partial) {
		doc.Marker = partial.MarkerTag()
	}
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func (r *Reporter) done(res *domain.DeployResult) {
	r.println(RenderSuccess(fmt.Sprintf("Deployed %s version %s", res.FunctionName, res.NewVersion)))
	if res.Marker != nil {
		r.println(RenderFeint("recorded as " + res.Marker.String()))
	}
	if res.ArtifactPath != "" {
		r.println(RenderFeint("artifact: " + res.ArtifactPath))
	}
	if len(res.DeletedVersions) > 0 {
		r.println(RenderInfo("Deleted old versions: " + strings.Join(res.DeletedVersions, ", ")))
	}
	for _, f := range res.DeletionFailures {
		r.println(RenderWarning(fmt.Sprintf("Could not delete version %s: %s", f.Version, f.Reason)))
	}
	if res.CollectionError != "" {
		r.println(RenderWarning("Old versions were not cleaned up: " + res.CollectionError))
	}
}

func (r *Reporter) partial(o deployment.Outcome) {
	var partial *deployment.PartialFailureError
	if !errors.As(o.Err, &partial) {
		r.println(RenderError(fmt.Sprintf("%s was published but not recorded: %v", o.FunctionName, o.Err)))
		return
	}
	r.println(RenderBanner(
		fmt.Sprintf("Version %s of %s is LIVE but was NOT recorded in git.", partial.Version, partial.FunctionName),
		"Do not re-run the deploy: it would publish a duplicate version.",
		"Record it by hand at the deployed commit:",
		"",
		"    git tag "+partial.MarkerTag(),
		"",
		fmt.Sprintf("cause: %v", partial.Err),
	))
}

func (r *Reporter) aborted(o deployment.Outcome) {
	cause := o.Err
	var stageErr *deployment.StageError
	if errors.As(o.Err, &stageErr) {
		cause = stageErr.Err
	}

	switch o.Reason {
	case deployment.ReasonDirtyTree:
		r.println(RenderError("There are uncommitted files"))
		var dirty *vcs.DirtyTreeError
		if errors.As(cause, &dirty) {
			for _, p := range dirty.Paths {
				r.println(RenderFeint("  " + p))
			}
		}
		r.println(RenderFeint("Commit or stash them, then deploy again."))
	case deployment.ReasonAlreadyDeployed:
		r.println(RenderWarning(fmt.Sprintf("Function %s already deployed at this commit", o.FunctionName)))
		r.println(RenderFeint("Use --force to publish another version anyway."))
	case deployment.ReasonGuardFailed:
		r.println(RenderError(fmt.Sprintf("Could not check the working tree: %v", cause)))
	case deployment.ReasonLedgerUnavailable:
		r.println(RenderError(fmt.Sprintf("Could not read deploy markers: %v", cause)))
	case deployment.ReasonBuildFailed:
		r.println(RenderError(fmt.Sprintf("Build failed: %v", cause)))
	case deployment.ReasonPackageFailed:
		r.println(RenderError(fmt.Sprintf("Packaging failed: %v", cause)))
	case deployment.ReasonPublishFailed:
		r.println(RenderError(fmt.Sprintf("Publish failed: %v", cause)))
		r.println(RenderFeint("Nothing was published. It is safe to deploy again."))
	case deployment.ReasonCanceled:
		r.println(RenderWarning("Deploy canceled before publishing"))
	default:
		r.println(RenderError(fmt.Sprintf("Deploy of %s aborted: %v", o.FunctionName, o.Err)))
	}
}

// =============================================================================
// Status
// =============================================================================

// FunctionStatus is one manifest entry and the markers at HEAD.
type FunctionStatus struct {
	FunctionName string                 `json:"function"`
	Markers      []domain.VersionMarker `json:"markers"`
}

// Status reports which manifest functions are deployed from the current commit.
func (r *Reporter) Status(statuses []FunctionStatus) error {
	if r.json {
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(statuses)
	}

	for _, s := range statuses {
		if len(s.Markers) == 0 {
			r.println(fmt.Sprintf("%s  %s", BoldStyle.Render(s.FunctionName), RenderFeint("not deployed at this commit")))
			continue
		}
		versions := make([]string, 0, len(s.Markers))
		for _, m := range s.Markers {
			versions = append(versions, m.Version)
		}
		r.println(fmt.Sprintf("%s  %s", BoldStyle.Render(s.FunctionName), RenderInfo("deployed: version "+strings.Join(versions, ", "))))
	}
	return nil
}

func (r *Reporter) println(s string) {
	fmt.Fprintln(r.out, s)
}
