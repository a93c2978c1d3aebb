package deployment

import (
	"time"

	"github.com/artpar/fndeploy/internal/core/domain"
)

// =============================================================================
// Garbage Collection Planning
// =============================================================================

// CollectionPolicy controls which published versions are old enough to
// delete. The zero policy makes every non-current numeric version eligible.
type CollectionPolicy struct {
	MinAge time.Duration
}

// RetainReason explains why a listed version is not a deletion candidate.
type RetainReason string

const (
	RetainAlias     RetainReason = "alias"
	RetainCurrent   RetainReason = "current"
	RetainTooRecent RetainReason = "too_recent"
)

// RetainedVersion is a listed version that will not be deleted.
type RetainedVersion struct {
	Version string
	Reason  RetainReason
}

// CollectionPlan splits the listed versions into deletion candidates and
// retained versions. Listing order is preserved in both.
type CollectionPlan struct {
	Candidates []domain.PublishedVersion
	Retained   []RetainedVersion
}

// CandidateVersions returns the identifiers of the deletion candidates.
func (p CollectionPlan) CandidateVersions() []string {
	out := make([]string, 0, len(p.Candidates))
	for _, v := range p.Candidates {
		out = append(out, v.Version)
	}
	return out
}

// PlanCollection decides which versions to delete.
//
// A version is a candidate iff its identifier is all decimal digits, it is
// not keepVersion, and now - LastModified >= policy.MinAge. With a zero
// MinAge the age rule only excludes timestamps in the future.
func PlanCollection(versions []domain.PublishedVersion, keepVersion string, now time.Time, policy CollectionPolicy) CollectionPlan {
	var plan CollectionPlan
	for _, v := range versions {
		switch {
		case !v.IsNumeric():
			plan.Retained = append(plan.Retained, RetainedVersion{Version: v.Version, Reason: RetainAlias})
		case v.Version == keepVersion:
			plan.Retained = append(plan.Retained, RetainedVersion{Version: v.Version, Reason: RetainCurrent})
		case now.Sub(v.LastModified) < policy.MinAge || v.LastModified.After(now):
			plan.Retained = append(plan.Retained, RetainedVersion{Version: v.Version, Reason: RetainTooRecent})
		default:
			plan.Candidates = append(plan.Candidates, v)
		}
	}
	return plan
}
