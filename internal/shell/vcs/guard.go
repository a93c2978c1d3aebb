package vcs

import (
	"context"
	"fmt"
	"slices"

	"github.com/go-git/go-git/v5"
)

// CheckCleanTree fails with *DirtyTreeError when any tracked file has staged
// or unstaged changes. Untracked files do not count.
//
// This is a point-in-time check, not a lock.
func (r *Repository) CheckCleanTree(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return fmt.Errorf("worktree status: %w", err)
	}

	var dirty []string
	for path, fs := range status {
		if isUncommitted(fs) {
			dirty = append(dirty, path)
		}
	}
	if len(dirty) == 0 {
		return nil
	}

	slices.Sort(dirty)
	r.logger.Debug("working tree is dirty", "paths", dirty)
	return &DirtyTreeError{Paths: dirty}
}

func isUncommitted(fs *git.FileStatus) bool {
	changed := func(c git.StatusCode) bool {
		return c != git.Unmodified && c != git.Untracked
	}
	return changed(fs.Staging) || changed(fs.Worktree)
}
