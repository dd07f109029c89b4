// Package cache implements the persistent content-addressed build cache.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/relay/internal/core/domain"
	"go.trai.ch/relay/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	treeDirName  = "tree"
	metaFileName = "meta.json"
)

var _ ports.CacheStore = (*Store)(nil)

// Store implements ports.CacheStore with one directory per entry:
//
//	<root>/<key>/tree/...   the unit's output
//	<root>/<key>/meta.json  the entry metadata
//
// Entries are created atomically via a temp sibling and rename, and never
// mutated afterwards.
type Store struct {
	root   string
	syncer ports.Syncer
}

// NewStore creates a cache store rooted at the given directory. The root is
// created on first save, so relative roots resolve against the working tree
// the process has entered by then.
func NewStore(root string, syncer ports.Syncer) *Store {
	return &Store{root: filepath.Clean(root), syncer: syncer}
}

func (s *Store) entryDir(key domain.CacheKey) string {
	return filepath.Join(s.root, key.String())
}

// Lookup reports whether an entry exists for the given key.
func (s *Store) Lookup(key domain.CacheKey) (bool, error) {
	_, err := os.Stat(filepath.Join(s.entryDir(key), metaFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, zerr.With(zerr.Wrap(err, "failed to stat cache entry"), "key", key.String())
	}
	return true, nil
}

// Restore mirrors the entry's output tree into dst.
func (s *Store) Restore(key domain.CacheKey, dst string) error {
	hit, err := s.Lookup(key)
	if err != nil {
		return err
	}
	if !hit {
		return zerr.With(domain.ErrCacheEntryMissing, "key", key.String())
	}
	if err := s.syncer.Mirror(filepath.Join(s.entryDir(key), treeDirName), dst); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to restore cache entry"), "key", key.String())
	}
	return nil
}

// Save mirrors src into a new entry under key. Saving an existing key is a
// no-op, since identical keys imply identical content.
func (s *Store) Save(key domain.CacheKey, src string, meta domain.EntryMeta) error {
	hit, err := s.Lookup(key)
	if err != nil {
		return err
	}
	if hit {
		return nil
	}

	tmp := filepath.Join(s.root, fmt.Sprintf(".tmp-%s-%d", key.String(), os.Getpid()))
	defer os.RemoveAll(tmp) //nolint:errcheck // Best effort cleanup

	if err := s.syncer.Mirror(src, filepath.Join(tmp, treeDirName)); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to stage cache entry"), "key", key.String())
	}

	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}
	meta.Key = key

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal entry metadata")
	}
	if err := os.WriteFile(filepath.Join(tmp, metaFileName), data, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write entry metadata"), "key", key.String())
	}

	if err := os.Rename(tmp, s.entryDir(key)); err != nil {
		// A concurrent writer beat us to it; identical keys mean identical
		// content, so the existing entry wins.
		if hit, lookupErr := s.Lookup(key); lookupErr == nil && hit {
			return nil
		}
		return zerr.With(zerr.Wrap(err, "failed to commit cache entry"), "key", key.String())
	}
	return nil
}

// Meta returns the metadata record for an entry, or nil if absent.
func (s *Store) Meta(key domain.CacheKey) (*domain.EntryMeta, error) {
	data, err := os.ReadFile(filepath.Join(s.entryDir(key), metaFileName)) //nolint:gosec // Path derives from the cache layout
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read entry metadata"), "key", key.String())
	}

	var meta domain.EntryMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to unmarshal entry metadata"), "key", key.String())
	}
	return &meta, nil
}

// Latest returns the most recently created entry for the given unit.
func (s *Store) Latest(unit string) (domain.CacheKey, bool, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, zerr.Wrap(err, "failed to list cache root")
	}

	var (
		bestKey  domain.CacheKey
		bestTime time.Time
		found    bool
	)
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name()[0] == '.' {
			continue
		}
		meta, err := s.Meta(domain.CacheKey(entry.Name()))
		if err != nil || meta == nil {
			continue
		}
		if meta.Unit == unit && meta.CreatedAt.After(bestTime) {
			bestKey = meta.Key
			bestTime = meta.CreatedAt
			found = true
		}
	}
	return bestKey, found, nil
}
