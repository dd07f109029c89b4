package fs

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/relay/internal/core/domain"
	"go.trai.ch/zerr"
)

// Hasher computes content digests for build units and directory trees.
type Hasher struct {
	walker *Walker
}

// NewHasher creates a new Hasher.
func NewHasher(walker *Walker) *Hasher {
	return &Hasher{walker: walker}
}

// ComputeFileHash computes the XXHash of a file's content.
func (h *Hasher) ComputeFileHash(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}

	return hasher.Sum64(), nil
}

// TreeDigest computes a single digest covering the unit definition and the
// content of every input subtree. Identical inputs produce identical digests.
func (h *Hasher) TreeDigest(unit *domain.Unit, root string) (string, error) {
	hasher := xxhash.New()

	h.hashUnitDefinition(unit, hasher)
	h.hashEnvironment(unit.Env, hasher)

	if err := h.hashInputs(unit, root, hasher); err != nil {
		return "", err
	}

	return fmt.Sprintf("%016x", hasher.Sum64()), nil
}

// DirDigest computes a digest over a whole directory tree, used to verify
// that a restore reproduced the build output exactly.
func (h *Hasher) DirDigest(dir string) (string, error) {
	hasher := xxhash.New()
	for path, walkErr := range h.walker.WalkFiles(dir, nil) {
		if walkErr != nil {
			return "", zerr.With(zerr.Wrap(walkErr, "failed to walk directory"), "path", dir)
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return "", zerr.With(zerr.Wrap(err, "failed to relativize path"), "path", path)
		}
		if err := h.hashFile(path, rel, hasher); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("%016x", hasher.Sum64()), nil
}

// hashUnitDefinition hashes the unit's name, build command and output path.
func (h *Hasher) hashUnitDefinition(unit *domain.Unit, hasher *xxhash.Digest) {
	_, _ = hasher.WriteString(unit.Name.String())
	_, _ = hasher.Write([]byte{0})

	for _, arg := range unit.Build {
		_, _ = hasher.WriteString(arg)
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0}) // Section separator

	_, _ = hasher.WriteString(unit.Output.String())
	_, _ = hasher.Write([]byte{0})
}

// hashEnvironment hashes environment variables in a deterministic order.
func (h *Hasher) hashEnvironment(env map[string]string, hasher *xxhash.Digest) {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		_, _ = hasher.WriteString(k)
		_, _ = hasher.Write([]byte{'='})
		_, _ = hasher.WriteString(env[k])
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0})
}

// hashInputs hashes the input files, handling globs and directories.
func (h *Hasher) hashInputs(unit *domain.Unit, root string, hasher *xxhash.Digest) error {
	for _, input := range unit.Inputs {
		path := filepath.Join(root, input.String())
		if err := h.hashInputPath(path, root, hasher); err != nil {
			return err
		}
	}
	return nil
}

// hashInputPath hashes a single input path, attempting glob resolution if the
// path doesn't exist as given.
func (h *Hasher) hashInputPath(path, root string, hasher io.Writer) error {
	if _, err := os.Stat(path); err != nil {
		return h.tryGlobAndHash(path, root, hasher)
	}
	return h.hashPath(path, root, hasher)
}

func (h *Hasher) tryGlobAndHash(path, root string, hasher io.Writer) error {
	matches, globErr := filepath.Glob(path)
	if globErr == nil && len(matches) > 0 {
		sort.Strings(matches)
		for _, match := range matches {
			if err := h.hashPath(match, root, hasher); err != nil {
				return err
			}
		}
		return nil
	}
	// Neither a file nor a matching glob: the input is missing and the key
	// cannot be derived.
	return zerr.With(zerr.New("input not found"), "path", path)
}

func (h *Hasher) hashPath(path, root string, mainHasher io.Writer) error {
	info, err := os.Stat(path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to stat path"), "path", path)
	}

	if !info.IsDir() {
		rel := relOrSelf(root, path)
		return h.hashFile(path, rel, mainHasher)
	}

	for filePath, walkErr := range h.walker.WalkFiles(path, nil) {
		if walkErr != nil {
			return zerr.With(zerr.Wrap(walkErr, "failed to walk input"), "path", path)
		}
		rel := relOrSelf(root, filePath)
		if err := h.hashFile(filePath, rel, mainHasher); err != nil {
			return err
		}
	}
	return nil
}

// hashFile writes the file's tree-relative path and content hash into the
// digest. Relative paths keep keys stable across checkout locations.
func (h *Hasher) hashFile(path, rel string, mainHasher io.Writer) error {
	_, _ = mainHasher.Write([]byte(rel))
	_, _ = mainHasher.Write([]byte{0})

	info, err := os.Lstat(path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to stat path"), "path", path)
	}

	// Symlinks are digested by their target text. Opening them would follow
	// the link, which fails for directory links and misses retargeting.
	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(path)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to read link"), "path", path)
		}
		_, _ = mainHasher.Write([]byte(target))
		_, _ = mainHasher.Write([]byte{0})
		return nil
	}

	hash, err := h.ComputeFileHash(path)
	if err != nil {
		return err
	}

	if err := binary.Write(mainHasher, binary.LittleEndian, hash); err != nil {
		return zerr.Wrap(err, "failed to write hash to digest")
	}
	return nil
}

func relOrSelf(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
