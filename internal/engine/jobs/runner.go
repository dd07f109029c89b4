// Package jobs executes single pipeline jobs: unit materialization, the
// cross-job env artifact hand-off, sequential steps and notification jobs.
package jobs

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.trai.ch/relay/internal/core/domain"
	"go.trai.ch/relay/internal/core/ports"
	"go.trai.ch/relay/internal/engine/units"
	"go.trai.ch/zerr"
)

// Environment variable names written into the cross-job env artifact.
const (
	RunIDEnv    = "RELAY_RUN_ID"
	EventEnv    = "RELAY_EVENT"
	RefEnv      = "RELAY_REF"
	WorktreeEnv = "RELAY_WORKTREE"

	// unitKeyEnvPrefix prefixes the per-unit cache key entries, e.g.
	// RELAY_KEY_PARSERS for a unit named "parsers".
	unitKeyEnvPrefix = "RELAY_KEY_"
)

// Runner executes one job at a time on behalf of the scheduler.
type Runner struct {
	units     *units.Runner
	executor  ports.Executor
	artifacts ports.ArtifactStore
	notifier  ports.Notifier
	telemetry ports.Telemetry
	logger    ports.Logger
}

// NewRunner creates a new job Runner.
func NewRunner(
	unitRunner *units.Runner,
	executor ports.Executor,
	artifacts ports.ArtifactStore,
	notifier ports.Notifier,
	telemetry ports.Telemetry,
	logger ports.Logger,
) *Runner {
	return &Runner{
		units:     unitRunner,
		executor:  executor,
		artifacts: artifacts,
		notifier:  notifier,
		telemetry: telemetry,
		logger:    logger,
	}
}

// RunJob executes the job and returns its result. deps holds the terminal
// results of the job's dependencies.
func (r *Runner) RunJob(ctx context.Context, p *domain.Pipeline, job *domain.Job, run *domain.RunContext, deps []domain.JobResult) (domain.JobResult, error) {
	start := time.Now()
	result := domain.JobResult{Job: job.Name, Status: domain.StatusRunning}

	var err error
	if job.Notify {
		err = r.runNotify(ctx, p, job, run, deps)
	} else {
		err = r.runRegular(ctx, p, job, run, &result)
	}

	result.Duration = time.Since(start)
	if err != nil {
		result.Status = domain.StatusFailed
		result.Err = err
		return result, err
	}
	result.Status = domain.StatusCompleted
	return result, nil
}

func (r *Runner) runRegular(ctx context.Context, p *domain.Pipeline, job *domain.Job, run *domain.RunContext, result *domain.JobResult) error {
	env := make(map[string]string, len(job.Env))

	// Dependent jobs resolve keys and paths from the artifact written by
	// the producing job, never by recomputing them.
	var artifactEnv map[string]string
	if len(job.Needs) > 0 {
		var err error
		artifactEnv, err = r.artifacts.ReadEnv()
		if err != nil {
			return zerr.Wrap(err, "failed to load cross-job artifact")
		}
		for k, v := range artifactEnv {
			env[k] = v
		}
	}
	for k, v := range job.Env {
		env[k] = v
	}

	for _, unitName := range job.Units {
		unit, err := p.Unit(unitName)
		if err != nil {
			return err
		}

		req := &units.Request{
			Unit:         &unit,
			Root:         run.Root,
			Key:          pinnedKey(artifactEnv, unitName),
			RequireCache: job.RequireCache,
			Force:        run.Force,
			Env:          env,
		}
		if job.RequireCache && req.Key == "" {
			err := zerr.With(domain.ErrCacheEntryMissing, "unit", unitName.String())
			return zerr.With(err, "reason", "key not present in cross-job artifact")
		}

		unitResult, err := r.units.Materialize(ctx, p.Prefix, req)
		result.Units = append(result.Units, unitResult)
		if err != nil {
			return err
		}
	}

	// The producing job publishes the artifact its dependents will read.
	if len(job.Needs) == 0 && len(job.Units) > 0 {
		if err := r.publishArtifact(run, result.Units); err != nil {
			return err
		}
	}

	return r.runSteps(ctx, job, run, env)
}

// pinnedKey returns the unit's cache key recorded in the artifact, if any.
func pinnedKey(artifactEnv map[string]string, unit domain.InternedString) domain.CacheKey {
	if v, ok := artifactEnv[unitKeyEnv(unit)]; ok {
		return domain.CacheKey(v)
	}
	return ""
}

func (r *Runner) publishArtifact(run *domain.RunContext, unitResults []domain.UnitResult) error {
	absRoot, err := filepath.Abs(run.Root)
	if err != nil {
		return zerr.Wrap(err, "failed to resolve working tree path")
	}

	values := map[string]string{
		RunIDEnv:    run.ID,
		EventEnv:    string(run.Event),
		RefEnv:      run.Ref,
		WorktreeEnv: absRoot,
	}
	for _, ur := range unitResults {
		values[unitKeyEnv(ur.Unit)] = ur.Key.String()
	}

	if err := r.artifacts.WriteEnv(values); err != nil {
		return zerr.Wrap(err, "failed to publish cross-job artifact")
	}
	return nil
}

func (r *Runner) runSteps(ctx context.Context, job *domain.Job, run *domain.RunContext, env map[string]string) error {
	for i, step := range job.Steps {
		stepEnv := make(map[string]string, len(env)+len(step.Env))
		for k, v := range env {
			stepEnv[k] = v
		}
		for k, v := range step.Env {
			stepEnv[k] = v
		}

		name := step.Name
		if name == "" {
			name = step.Run[0]
		}
		_, vertex := r.telemetry.Record(ctx, job.Name.String()+": "+name)

		cmd := ports.Command{
			Argv:   expandArgs(step.Run, stepEnv),
			Dir:    run.Root,
			Env:    stepEnv,
			Stdout: vertex.Stdout(),
			Stderr: vertex.Stderr(),
		}
		err := r.executor.Execute(ctx, cmd)
		vertex.Complete(err)
		if err != nil {
			err = zerr.With(zerr.Wrap(err, "step failed"), "job", job.Name.String())
			return zerr.With(err, "step", i)
		}
	}
	return nil
}

// runNotify posts the run summary for the dependency subgraph. Best effort:
// delivery problems are logged, never propagated.
func (r *Runner) runNotify(ctx context.Context, p *domain.Pipeline, job *domain.Job, run *domain.RunContext, deps []domain.JobResult) error {
	summary := &domain.RunSummary{
		Pipeline:   p.Name,
		RunID:      run.ID,
		Event:      run.Event,
		Ref:        run.Ref,
		Conclusion: domain.StatusCompleted,
	}
	for _, dep := range deps {
		summary.Duration += dep.Duration
		if dep.Status == domain.StatusFailed {
			summary.Conclusion = domain.StatusFailed
			summary.FailedJobs = append(summary.FailedJobs, dep.Job.String())
		}
	}

	if err := r.notifier.Notify(ctx, summary); err != nil {
		r.logger.Warn("notification delivery failed", "job", job.Name.String(), "error", err.Error())
	}
	return nil
}

// expandArgs substitutes ${VAR} references in step arguments from the merged
// environment, falling back to the process environment.
func expandArgs(argv []string, env map[string]string) []string {
	out := make([]string, len(argv))
	for i, arg := range argv {
		out[i] = os.Expand(arg, func(key string) string {
			if v, ok := env[key]; ok {
				return v
			}
			return os.Getenv(key)
		})
	}
	return out
}

func unitKeyEnv(unit domain.InternedString) string {
	return unitKeyEnvPrefix + sanitizeEnvKey(unit.String())
}

func sanitizeEnvKey(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
			out = append(out, c-'a'+'A')
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
