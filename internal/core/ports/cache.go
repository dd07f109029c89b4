package ports

import (
	"time"

	"go.trai.ch/relay/internal/core/domain"
)

// CacheStore defines the interface for the persistent build-unit cache.
// Entries are immutable once created; eviction is the store owner's concern.
//
//go:generate go run go.uber.org/mock/mockgen -source=cache.go -destination=mocks/mock_cache.go -package=mocks
type CacheStore interface {
	// Lookup reports whether an entry exists for the given key.
	Lookup(key domain.CacheKey) (bool, error)

	// Restore mirrors the entry's output tree into dst so that dst is
	// byte-for-byte equivalent to the tree saved under key.
	Restore(key domain.CacheKey, dst string) error

	// Save mirrors src into a new entry under key. Saving an existing key
	// is a no-op.
	Save(key domain.CacheKey, src string, meta domain.EntryMeta) error

	// Latest returns the most recently created entry for the given unit,
	// used to seed staging directories for incremental builds.
	Latest(unit string) (domain.CacheKey, bool, error)

	// Meta returns the metadata record for an entry.
	Meta(key domain.CacheKey) (*domain.EntryMeta, error)
}

// ArtifactStore manages the short-lived shared artifact area passed between
// jobs of the same run, distinct from the long-lived unit cache.
type ArtifactStore interface {
	// WriteEnv persists the flat key-value hand-off artifact.
	WriteEnv(values map[string]string) error

	// ReadEnv loads the hand-off artifact written by an earlier job.
	ReadEnv() (map[string]string, error)

	// Prune removes artifacts older than maxAge and returns how many were
	// removed.
	Prune(maxAge time.Duration) (int, error)
}
