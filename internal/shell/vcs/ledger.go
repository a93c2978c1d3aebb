package vcs

import (
	"context"
	"errors"
	"iter"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/artpar/fndeploy/internal/core/domain"
)

// ListMarkersForCurrentCommit returns the markers whose tags resolve to
// exactly the current commit. HEAD is resolved once; the tag namespace is
// re-read every time the sequence is ranged over. Order is unspecified.
func (r *Repository) ListMarkersForCurrentCommit(ctx context.Context) (iter.Seq[domain.VersionMarker], error) {
	head, err := r.head()
	if err != nil {
		return nil, &LedgerError{Op: "list", Err: err}
	}

	return func(yield func(domain.VersionMarker) bool) {
		err := r.eachMarker(ctx, head, yield)
		if err != nil {
			r.logger.Warn("listing markers stopped early", "error", err)
		}
	}, nil
}

// Markers returns the markers at the current commit as a slice.
func (r *Repository) Markers(ctx context.Context) ([]domain.VersionMarker, error) {
	head, err := r.head()
	if err != nil {
		return nil, &LedgerError{Op: "list", Err: err}
	}

	var markers []domain.VersionMarker
	err = r.eachMarker(ctx, head, func(m domain.VersionMarker) bool {
		markers = append(markers, m)
		return true
	})
	if err != nil {
		return nil, &LedgerError{Op: "list", Err: err}
	}
	return markers, nil
}

// IsAlreadyDeployed reports whether any marker at the current commit names
// functionName.
func (r *Repository) IsAlreadyDeployed(ctx context.Context, functionName string) (bool, error) {
	head, err := r.head()
	if err != nil {
		return false, &LedgerError{Op: "list", Err: err}
	}

	found := false
	err = r.eachMarker(ctx, head, func(m domain.VersionMarker) bool {
		if m.FunctionName == functionName {
			found = true
			return false
		}
		return true
	})
	if err != nil {
		return false, &LedgerError{Op: "list", Err: err}
	}
	return found, nil
}

// Record creates the lightweight tag "functionName@version" at the current
// commit. It must only be called after a successful publish.
func (r *Repository) Record(ctx context.Context, functionName, version string) (domain.VersionMarker, error) {
	marker, err := domain.NewVersionMarker(functionName, version)
	if err != nil {
		return domain.VersionMarker{}, &LedgerError{Op: "record", Err: err}
	}
	if err := ctx.Err(); err != nil {
		return domain.VersionMarker{}, &LedgerError{Op: "record", Tag: marker.String(), Err: err}
	}

	head, err := r.head()
	if err != nil {
		return domain.VersionMarker{}, &LedgerError{Op: "record", Tag: marker.String(), Err: err}
	}

	// nil options create a lightweight tag
	if _, err := r.repo.CreateTag(marker.String(), head, nil); err != nil {
		return domain.VersionMarker{}, &LedgerError{Op: "record", Tag: marker.String(), Err: err}
	}

	r.logger.Info("marker recorded", "tag", marker.String(), "commit", head.String())
	return marker, nil
}

// eachMarker calls fn for every marker at head until fn returns false.
func (r *Repository) eachMarker(ctx context.Context, head plumbing.Hash, fn func(domain.VersionMarker) bool) error {
	tags, err := r.repo.Tags()
	if err != nil {
		return err
	}
	defer tags.Close()

	return tags.ForEach(func(ref *plumbing.Reference) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !r.pointsAt(ref, head) {
			return nil
		}
		marker, err := domain.ParseVersionMarker(ref.Name().Short())
		if err != nil {
			return nil
		}
		if !fn(marker) {
			return storer.ErrStop
		}
		return nil
	})
}

// pointsAt resolves lightweight and annotated tags to their commit.
func (r *Repository) pointsAt(ref *plumbing.Reference, head plumbing.Hash) bool {
	if ref.Hash() == head {
		return true
	}
	tag, err := r.repo.TagObject(ref.Hash())
	if err != nil {
		if !errors.Is(err, plumbing.ErrObjectNotFound) {
			r.logger.Debug("resolve tag object", "tag", ref.Name().Short(), "error", err)
		}
		return false
	}
	commit, err := tag.Commit()
	if err != nil {
		return false
	}
	return commit.Hash == head
}
