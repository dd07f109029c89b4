package domain

import "go.trai.ch/zerr"

var (
	// ErrJobAlreadyExists is returned when adding a job with a name that already exists.
	ErrJobAlreadyExists = zerr.New("job already exists")

	// ErrUnitAlreadyExists is returned when adding a unit with a name that already exists.
	ErrUnitAlreadyExists = zerr.New("unit already exists")

	// ErrMissingDependency is returned when a job references a dependency that doesn't exist.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrCycleDetected is returned when a cycle is detected in the job graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrJobNotFound is returned when a requested job is not found in the pipeline.
	ErrJobNotFound = zerr.New("job not found")

	// ErrUnknownUnit is returned when a job references a build unit that is not defined.
	ErrUnknownUnit = zerr.New("unknown unit")

	// ErrCacheEntryMissing is returned when a job with mandatory restores
	// encounters a cache miss.
	ErrCacheEntryMissing = zerr.New("required cache entry missing")

	// ErrKeyDerivation is returned when a unit's cache key cannot be derived.
	ErrKeyDerivation = zerr.New("cache key derivation failed")

	// ErrPipelineFailed is the terminal error when one or more jobs failed.
	ErrPipelineFailed = zerr.New("pipeline failed")
)
