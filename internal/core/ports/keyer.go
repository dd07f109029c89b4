package ports

import "go.trai.ch/relay/internal/core/domain"

// KeyDeriver derives cache keys for build units.
//
//go:generate go run go.uber.org/mock/mockgen -source=keyer.go -destination=mocks/mock_keyer.go -package=mocks
type KeyDeriver interface {
	// Derive computes the cache key for the unit relative to the given
	// working tree root. Any failure is fatal for the run; an empty or
	// stale key must never be returned.
	Derive(unit *domain.Unit, root string, prefix domain.KeyPrefix) (domain.CacheKey, error)
}

// RevisionResolver resolves a pinned revision expression to a concrete
// revision identifier.
type RevisionResolver interface {
	// Resolve returns the full revision id for rev in the repository at
	// repoPath.
	Resolve(repoPath, rev string) (string, error)
}
