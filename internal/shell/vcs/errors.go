package vcs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/artpar/fndeploy/internal/core/deployment"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	ErrNotARepository = errors.New("not a git repository")
	ErrNoCommits      = errors.New("repository has no commits")
)

// DirtyTreeError lists the tracked paths with uncommitted changes.
type DirtyTreeError struct {
	Paths []string
}

func (e *DirtyTreeError) Error() string {
	return fmt.Sprintf("%v: %s", deployment.ErrDirtyTree, strings.Join(e.Paths, ", "))
}

func (e *DirtyTreeError) Unwrap() error {
	return deployment.ErrDirtyTree
}

// LedgerError wraps a failed ledger read or write.
type LedgerError struct {
	Op  string // "list", "record"
	Tag string
	Err error
}

func (e *LedgerError) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("ledger %s %s: %v", e.Op, e.Tag, e.Err)
	}
	return fmt.Sprintf("ledger %s: %v", e.Op, e.Err)
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}
