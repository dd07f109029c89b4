// Package fs provides file system adapters for walking, hashing and
// mirroring directory trees.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
)

// Walker provides deterministic file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields all files under root in lexical order, skipping version
// control directories and the relay workspace directory. Paths include root.
// A failure to read any part of the tree is yielded as the final pair; the
// walked file set is incomplete then and must not be trusted.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if skipAction := w.shouldSkip(d, ignores); skipAction != nil {
				return skipAction
			}

			if d.IsDir() {
				return nil
			}

			if !yield(path, nil) {
				return filepath.SkipAll
			}

			return nil
		})
		if walkErr != nil {
			yield("", walkErr)
		}
	}
}

// shouldSkip checks whether an entry is excluded from the walk.
// Returns filepath.SkipDir for excluded directories, nil otherwise.
func (w *Walker) shouldSkip(d fs.DirEntry, ignores []string) error {
	name := d.Name()

	if d.IsDir() {
		switch name {
		case ".git", ".jj", ".relay":
			return filepath.SkipDir
		}
	}

	for _, ignore := range ignores {
		matched, _ := filepath.Match(ignore, name)
		if matched {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
	}

	return nil
}
