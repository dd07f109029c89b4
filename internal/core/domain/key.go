package domain

import (
	"fmt"
	"time"
)

// CacheKey identifies one cache entry: "<namespace>-<version>-<digest>".
type CacheKey string

// String returns the key as a plain string.
func (k CacheKey) String() string {
	return string(k)
}

// KeyPrefix is the fixed namespace/version part of every cache key. Bumping
// the version invalidates all entries at once.
type KeyPrefix struct {
	Namespace string
	Version   string
}

// Key builds the full cache key for the given digest.
func (p KeyPrefix) Key(digest string) CacheKey {
	return CacheKey(fmt.Sprintf("%s-%s-%s", p.Namespace, p.Version, digest))
}

// EntryMeta is the metadata record stored alongside a cache entry's output tree.
type EntryMeta struct {
	Unit       string    `json:"unit"`
	Key        CacheKey  `json:"key"`
	OutputHash string    `json:"output_hash,omitzero"`
	CreatedAt  time.Time `json:"created_at"`
}
