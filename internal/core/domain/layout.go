package domain

import "path/filepath"

const (
	// RelayDirName is the name of the internal workspace directory.
	RelayDirName = ".relay"

	// CacheDirName is the name of the persistent cache directory.
	CacheDirName = "cache"

	// StagingDirName is the name of the per-unit staging scratch directory.
	StagingDirName = "staging"

	// ArtifactDirName is the name of the time-limited shared artifact directory.
	ArtifactDirName = "shared"

	// EnvArtifactFileName is the flat key-value file handed between jobs.
	EnvArtifactFileName = "run.env"

	// ConfigFileName is the name of the pipeline configuration file.
	ConfigFileName = "relay.yaml"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultCachePath returns the default root for persistent cache entries.
func DefaultCachePath() string {
	return filepath.Join(RelayDirName, CacheDirName)
}

// StagingPath returns the scratch output directory for a unit build.
func StagingPath(root string, unit InternedString) string {
	return filepath.Join(root, RelayDirName, StagingDirName, unit.String())
}

// ArtifactPath returns the shared artifact directory for a run.
func ArtifactPath(root string) string {
	return filepath.Join(root, RelayDirName, ArtifactDirName)
}

// EnvArtifactPath returns the path of the cross-job env artifact.
func EnvArtifactPath(root string) string {
	return filepath.Join(ArtifactPath(root), EnvArtifactFileName)
}
