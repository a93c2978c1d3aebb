// Package vcs keeps the deployment ledger in git. It is part of the
// Imperative Shell - it reads the working tree and writes tags.
//
// Each deploy is recorded as a lightweight tag "function@version" on the
// commit it was deployed from, so listing the tags at HEAD answers "what has
// been deployed from this commit" for every function at once.
package vcs

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Repository wraps the git repository containing the deployed sources.
type Repository struct {
	repo   *git.Repository
	logger *slog.Logger
}

// Open opens the repository containing path, walking up to find .git.
func Open(path string, logger *slog.Logger) (*Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNotARepository, path)
		}
		return nil, fmt.Errorf("open repository %s: %w", path, err)
	}
	return New(repo, logger), nil
}

// New wraps an already opened repository.
func New(repo *git.Repository, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		repo:   repo,
		logger: logger.With("component", "ledger"),
	}
}

// head resolves the commit HEAD points at.
func (r *Repository) head() (plumbing.Hash, error) {
	ref, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return plumbing.ZeroHash, ErrNoCommits
		}
		return plumbing.ZeroHash, fmt.Errorf("resolve HEAD: %w", err)
	}
	return ref.Hash(), nil
}
