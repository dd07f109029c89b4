// Package app implements the application layer for relay.
package app

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.trai.ch/relay/internal/core/domain"
	"go.trai.ch/relay/internal/core/ports"
	"go.trai.ch/relay/internal/engine/scheduler"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	scheduler    *scheduler.Scheduler
	deriver      ports.KeyDeriver
	artifacts    ports.ArtifactStore
	telemetry    ports.Telemetry
	logger       ports.Logger
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	sched *scheduler.Scheduler,
	deriver ports.KeyDeriver,
	artifacts ports.ArtifactStore,
	telemetry ports.Telemetry,
	logger ports.Logger,
) *App {
	return &App{
		configLoader: loader,
		scheduler:    sched,
		deriver:      deriver,
		artifacts:    artifacts,
		telemetry:    telemetry,
		logger:       logger,
	}
}

// RunOptions configures a pipeline run.
type RunOptions struct {
	Root  string
	Event string
	Ref   string
	Force bool

	// Parallelism bounds the number of concurrently running jobs.
	// Defaults to the CPU count.
	Parallelism int
}

// Run executes the pipeline and returns the run summary. The error is
// non-nil if any job failed.
func (a *App) Run(ctx context.Context, opts RunOptions) (*domain.RunSummary, error) {
	event, err := domain.ParseEvent(opts.Event)
	if err != nil {
		return nil, err
	}
	root := opts.Root
	if root == "" {
		root = "."
	}
	parallelism := opts.Parallelism
	if parallelism < 1 {
		parallelism = runtime.NumCPU()
	}

	pipeline, err := a.configLoader.Load(root)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}

	run := &domain.RunContext{
		ID:    uuid.NewString(),
		Event: event,
		Ref:   opts.Ref,
		Root:  root,
		Force: opts.Force,
	}

	start := time.Now()
	a.logger.Info("starting run", "pipeline", pipeline.Name, "run_id", run.ID, "event", string(event))

	results, runErr := a.scheduler.Run(ctx, pipeline, run, parallelism)
	defer a.telemetry.Close() //nolint:errcheck // Best effort flush

	summary := summarize(pipeline, run, results, start)
	if runErr != nil {
		return summary, errors.Join(domain.ErrPipelineFailed, runErr)
	}
	return summary, nil
}

// Keys derives the cache key of every unit concurrently, for `relay keys`.
func (a *App) Keys(ctx context.Context, root string) (map[string]domain.CacheKey, error) {
	if root == "" {
		root = "."
	}
	pipeline, err := a.configLoader.Load(root)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}

	var mu sync.Mutex
	out := make(map[string]domain.CacheKey)

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, name := range pipeline.UnitNames() {
		unit, err := pipeline.Unit(name)
		if err != nil {
			return nil, err
		}
		g.Go(func() error {
			key, err := a.deriver.Derive(&unit, root, pipeline.Prefix)
			if err != nil {
				return err
			}
			mu.Lock()
			out[unit.Name.String()] = key
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Prune removes shared artifacts older than maxAge.
func (a *App) Prune(maxAge time.Duration) (int, error) {
	return a.artifacts.Prune(maxAge)
}

func summarize(p *domain.Pipeline, run *domain.RunContext, results []domain.JobResult, start time.Time) *domain.RunSummary {
	summary := &domain.RunSummary{
		Pipeline:   p.Name,
		RunID:      run.ID,
		Event:      run.Event,
		Ref:        run.Ref,
		Conclusion: domain.StatusCompleted,
		StartedAt:  start,
		Duration:   time.Since(start),
	}
	for _, res := range results {
		if res.Status == domain.StatusFailed {
			summary.Conclusion = domain.StatusFailed
			summary.FailedJobs = append(summary.FailedJobs, res.Job.String())
		}
	}
	return summary
}
