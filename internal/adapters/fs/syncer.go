package fs

import (
	"errors"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/relay/internal/core/domain"
	"go.trai.ch/relay/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Syncer = (*Syncer)(nil)

// Syncer mirrors directory trees. Mirror semantics match a deletion-enabled
// rsync: after a Mirror call dst holds exactly the files of src.
type Syncer struct{}

// NewSyncer creates a new Syncer.
func NewSyncer() *Syncer {
	return &Syncer{}
}

// Mirror makes dst an exact copy of src.
func (s *Syncer) Mirror(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to stat source"), "path", src)
	}
	if !info.IsDir() {
		return zerr.With(zerr.New("source is not a directory"), "path", src)
	}

	if err := os.MkdirAll(dst, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create destination"), "path", dst)
	}

	if err := s.copyTree(src, dst); err != nil {
		return err
	}
	return s.deleteExtraneous(src, dst)
}

// copyTree copies every entry from src into dst, preserving file modes.
func (s *Syncer) copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return zerr.Wrap(err, "failed to relativize path")
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, domain.DirPerm)
		}

		if d.Type()&iofs.ModeSymlink != 0 {
			return s.copyLink(path, target)
		}

		return s.copyFile(path, target)
	})
}

// copyLink recreates a symlink at dst pointing at the same target as src.
func (s *Syncer) copyLink(src, dst string) error {
	target, err := os.Readlink(src)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to read link"), "path", src)
	}

	if existing, err := os.Readlink(dst); err == nil && existing == target {
		return nil
	}
	if err := os.RemoveAll(dst); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to replace entry"), "path", dst)
	}
	if err := os.Symlink(target, dst); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create link"), "path", dst)
	}
	return nil
}

func (s *Syncer) copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to stat file"), "path", src)
	}

	in, err := os.Open(src) //nolint:gosec // Paths come from the cache layout
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open file"), "path", src)
	}
	defer in.Close() //nolint:errcheck // Best effort close in defer

	// A stale symlink at dst would make the truncating open write through it.
	if existing, err := os.Lstat(dst); err == nil && existing.Mode()&iofs.ModeSymlink != 0 {
		if err := os.Remove(dst); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to replace entry"), "path", dst)
		}
	}

	//nolint:gosec // Destination is inside a relay-managed tree
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create file"), "path", dst)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return zerr.With(zerr.Wrap(err, "failed to copy file"), "path", dst)
	}
	if err := out.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to close file"), "path", dst)
	}

	// Restored trees must be byte- and mode-identical to the saved output.
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to set file mode"), "path", dst)
	}
	return nil
}

// deleteExtraneous removes entries of dst that have no counterpart in src.
func (s *Syncer) deleteExtraneous(src, dst string) error {
	var doomed []string

	err := filepath.WalkDir(dst, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dst, path)
		if err != nil {
			return zerr.Wrap(err, "failed to relativize path")
		}
		if rel == "." {
			return nil
		}

		if _, err := os.Lstat(filepath.Join(src, rel)); errors.Is(err, iofs.ErrNotExist) {
			doomed = append(doomed, path)
			if d.IsDir() {
				return filepath.SkipDir
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, path := range doomed {
		if err := os.RemoveAll(path); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to remove extraneous entry"), "path", path)
		}
	}
	return nil
}
