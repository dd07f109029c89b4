// Package keys implements the cache-key policy for build units.
package keys

import (
	"path/filepath"

	"go.trai.ch/relay/internal/adapters/fs"
	"go.trai.ch/relay/internal/core/domain"
	"go.trai.ch/relay/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.KeyDeriver = (*Deriver)(nil)

// Deriver derives cache keys: tree units hash their input subtrees, pinned
// units take the resolved revision as their digest.
type Deriver struct {
	hasher    *fs.Hasher
	revisions ports.RevisionResolver
}

// NewDeriver creates a new Deriver.
func NewDeriver(hasher *fs.Hasher, revisions ports.RevisionResolver) *Deriver {
	return &Deriver{hasher: hasher, revisions: revisions}
}

// Derive computes the cache key for the unit. Every failure is wrapped in
// ErrKeyDerivation so callers abort instead of continuing with a stale key.
func (d *Deriver) Derive(unit *domain.Unit, root string, prefix domain.KeyPrefix) (domain.CacheKey, error) {
	digest, err := d.digest(unit, root)
	if err != nil {
		err = zerr.With(zerr.Wrap(err, domain.ErrKeyDerivation.Error()), "unit", unit.Name.String())
		return "", err
	}
	if digest == "" {
		return "", zerr.With(domain.ErrKeyDerivation, "unit", unit.Name.String())
	}
	return prefix.Key(unit.Name.String() + "-" + digest), nil
}

func (d *Deriver) digest(unit *domain.Unit, root string) (string, error) {
	switch unit.Mode {
	case domain.KeyModePinned:
		repo := unit.Repo.String()
		if !filepath.IsAbs(repo) {
			repo = filepath.Join(root, repo)
		}
		return d.revisions.Resolve(repo, unit.Revision.String())
	case domain.KeyModeTree, "":
		return d.hasher.TreeDigest(unit, root)
	default:
		return "", zerr.With(zerr.New("unknown key mode"), "mode", string(unit.Mode))
	}
}
