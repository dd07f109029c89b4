// Package gitrev resolves pinned revision expressions against local
// repositories using go-git.
package gitrev

import (
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"go.trai.ch/relay/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.RevisionResolver = (*Resolver)(nil)

// Resolver implements ports.RevisionResolver for plain on-disk repositories.
type Resolver struct{}

// NewResolver creates a new Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve returns the full commit sha for rev in the repository at repoPath.
// rev may be a branch, tag, sha prefix or any other revision expression
// understood by git rev-parse.
func (r *Resolver) Resolve(repoPath, rev string) (string, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to open repository"), "path", repoPath)
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		err = zerr.With(zerr.Wrap(err, "failed to resolve revision"), "revision", rev)
		return "", zerr.With(err, "path", repoPath)
	}

	return hash.String(), nil
}
