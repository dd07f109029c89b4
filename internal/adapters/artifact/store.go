// Package artifact manages the short-lived shared artifact area handed
// between jobs of a single pipeline run.
package artifact

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"go.trai.ch/relay/internal/core/domain"
	"go.trai.ch/relay/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ArtifactStore = (*Store)(nil)

// Store implements ports.ArtifactStore on a plain directory. The env
// artifact is a flat KEY=VALUE dotenv file so that any job, shell script or
// human can read it back.
type Store struct {
	dir string
}

// NewStore creates an artifact store rooted at the given directory.
func NewStore(dir string) *Store {
	return &Store{dir: filepath.Clean(dir)}
}

func (s *Store) envPath() string {
	return filepath.Join(s.dir, domain.EnvArtifactFileName)
}

// WriteEnv persists the flat key-value hand-off artifact.
func (s *Store) WriteEnv(values map[string]string) error {
	if err := os.MkdirAll(s.dir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create artifact dir"), "path", s.dir)
	}
	if err := godotenv.Write(values, s.envPath()); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write env artifact"), "path", s.envPath())
	}
	return nil
}

// ReadEnv loads the hand-off artifact written by an earlier job. A missing
// artifact is an error: dependent jobs must not recompute the values.
func (s *Store) ReadEnv() (map[string]string, error) {
	values, err := godotenv.Read(s.envPath())
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read env artifact"), "path", s.envPath())
	}
	return values, nil
}

// Prune removes artifacts older than maxAge. Retention applies only to this
// shared area; persistent cache entries are never touched.
func (s *Store) Prune(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, zerr.With(zerr.Wrap(err, "failed to list artifact dir"), "path", s.dir)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.dir, entry.Name())); err != nil {
			return removed, zerr.With(zerr.Wrap(err, "failed to remove artifact"), "name", entry.Name())
		}
		removed++
	}
	return removed, nil
}
