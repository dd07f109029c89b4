// Package units implements build-unit execution: cache lookup, staged
// rebuilds and working-tree restores.
package units

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/relay/internal/adapters/fs"
	"go.trai.ch/relay/internal/core/domain"
	"go.trai.ch/relay/internal/core/ports"
	"go.trai.ch/zerr"
)

// OutputEnv is the environment variable carrying the staging directory a
// unit build must write into.
const OutputEnv = "RELAY_OUTPUT"

// Runner materializes build units into the working tree, via the cache when
// possible and via the build command otherwise.
type Runner struct {
	deriver   ports.KeyDeriver
	store     ports.CacheStore
	syncer    ports.Syncer
	executor  ports.Executor
	hasher    *fs.Hasher
	telemetry ports.Telemetry
	logger    ports.Logger
}

// NewRunner creates a new unit Runner.
func NewRunner(
	deriver ports.KeyDeriver,
	store ports.CacheStore,
	syncer ports.Syncer,
	executor ports.Executor,
	hasher *fs.Hasher,
	telemetry ports.Telemetry,
	logger ports.Logger,
) *Runner {
	return &Runner{
		deriver:   deriver,
		store:     store,
		syncer:    syncer,
		executor:  executor,
		hasher:    hasher,
		telemetry: telemetry,
		logger:    logger,
	}
}

// Request describes one materialization.
type Request struct {
	Unit *domain.Unit
	Root string

	// Key pins the cache key. When empty the key is derived fresh;
	// dependent jobs pass the key recorded in the env artifact instead.
	Key domain.CacheKey

	// RequireCache turns a cache miss into a failure instead of a rebuild.
	RequireCache bool

	// Force bypasses the cache lookup and always rebuilds.
	Force bool

	// Env is layered under the unit's own environment for the build command.
	Env map[string]string
}

// Materialize ensures the unit's output directory in the working tree matches
// the unit's cache entry, building it first if needed.
func (r *Runner) Materialize(ctx context.Context, prefix domain.KeyPrefix, req *Request) (domain.UnitResult, error) {
	start := time.Now()
	unit := req.Unit

	key := req.Key
	if key == "" {
		derived, err := r.deriver.Derive(unit, req.Root, prefix)
		if err != nil {
			return domain.UnitResult{Unit: unit.Name}, err
		}
		key = derived
	}

	ctx, vertex := r.telemetry.Record(ctx, "unit "+unit.Name.String())

	result, err := r.materialize(ctx, unit, key, req, vertex)
	result.Duration = time.Since(start)
	if result.CacheHit {
		vertex.Cached()
	}
	vertex.Complete(err)
	return result, err
}

func (r *Runner) materialize(ctx context.Context, unit *domain.Unit, key domain.CacheKey, req *Request, vertex ports.Vertex) (domain.UnitResult, error) {
	result := domain.UnitResult{Unit: unit.Name, Key: key}
	worktreeOut := filepath.Join(req.Root, unit.Output.String())

	hit := false
	if !req.Force {
		var err error
		hit, err = r.store.Lookup(key)
		if err != nil {
			return result, err
		}
	}

	if hit {
		if err := r.store.Restore(key, worktreeOut); err != nil {
			return result, err
		}
		result.CacheHit = true
		r.logger.Info("cache hit", "unit", unit.Name.String(), "key", key.String())
		return result, nil
	}

	if req.RequireCache {
		err := zerr.With(domain.ErrCacheEntryMissing, "unit", unit.Name.String())
		return result, zerr.With(err, "key", key.String())
	}

	r.logger.Info("cache miss, building", "unit", unit.Name.String(), "key", key.String())
	if err := r.build(ctx, unit, key, req, vertex); err != nil {
		return result, err
	}

	if err := r.syncer.Mirror(r.stagingDir(req.Root, unit), worktreeOut); err != nil {
		return result, err
	}
	return result, nil
}

// build runs the unit's build command against a clean staging directory and
// commits the result to the cache.
func (r *Runner) build(ctx context.Context, unit *domain.Unit, key domain.CacheKey, req *Request, vertex ports.Vertex) error {
	staging := r.stagingDir(req.Root, unit)

	if err := os.RemoveAll(staging); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to clear staging"), "path", staging)
	}
	if err := os.MkdirAll(staging, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create staging"), "path", staging)
	}

	// Seed staging from the previous entry so the build tool can reuse
	// earlier outputs.
	prev, ok, err := r.store.Latest(unit.Name.String())
	switch {
	case err != nil:
		r.logger.Warn("failed to look up previous entry", "unit", unit.Name.String())
	case ok && prev != key:
		if err := r.store.Restore(prev, staging); err != nil {
			r.logger.Warn("failed to seed staging from previous entry", "unit", unit.Name.String())
		}
	}

	absStaging, err := filepath.Abs(staging)
	if err != nil {
		return zerr.Wrap(err, "failed to resolve staging path")
	}

	env := make(map[string]string, len(req.Env)+len(unit.Env)+1)
	for k, v := range req.Env {
		env[k] = v
	}
	for k, v := range unit.Env {
		env[k] = v
	}
	env[OutputEnv] = absStaging

	cmd := ports.Command{
		Argv:   unit.Build,
		Dir:    req.Root,
		Env:    env,
		Stdout: vertex.Stdout(),
		Stderr: vertex.Stderr(),
	}
	if err := r.executor.Execute(ctx, cmd); err != nil {
		return zerr.With(zerr.Wrap(err, "unit build failed"), "unit", unit.Name.String())
	}

	outputHash, err := r.hasher.DirDigest(staging)
	if err != nil {
		return err
	}

	meta := domain.EntryMeta{
		Unit:       unit.Name.String(),
		Key:        key,
		OutputHash: outputHash,
	}
	return r.store.Save(key, staging, meta)
}

func (r *Runner) stagingDir(root string, unit *domain.Unit) string {
	return domain.StagingPath(root, unit.Name)
}
