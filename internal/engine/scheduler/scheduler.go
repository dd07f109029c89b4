// Package scheduler implements the pipeline job scheduler.
package scheduler

import (
	"context"
	"errors"
	"sync"

	"go.trai.ch/relay/internal/core/domain"
	"go.trai.ch/relay/internal/core/ports"
	"go.trai.ch/zerr"
)

// JobRunner executes a single job on behalf of the scheduler.
//
//go:generate go run go.uber.org/mock/mockgen -source=scheduler.go -destination=mocks/mock_runner.go -package=mocks
type JobRunner interface {
	RunJob(ctx context.Context, p *domain.Pipeline, job *domain.Job, run *domain.RunContext, deps []domain.JobResult) (domain.JobResult, error)
}

// Scheduler runs the job DAG. Jobs whose dependencies have all reached a
// terminal state become ready; independent jobs may run concurrently, while
// steps inside a job stay strictly sequential.
type Scheduler struct {
	runner JobRunner
	logger ports.Logger

	mu     sync.RWMutex
	status map[domain.InternedString]domain.Status
}

// NewScheduler creates a new Scheduler.
func NewScheduler(runner JobRunner, logger ports.Logger) *Scheduler {
	return &Scheduler{
		runner: runner,
		logger: logger,
		status: make(map[domain.InternedString]domain.Status),
	}
}

// Status returns the current status of a job.
func (s *Scheduler) Status(name domain.InternedString) domain.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status[name]
}

func (s *Scheduler) setStatus(name domain.InternedString, status domain.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[name] = status
}

// Run executes the pipeline with the given parallelism and returns every
// job's terminal result. The returned error joins all job failures.
func (s *Scheduler) Run(ctx context.Context, p *domain.Pipeline, run *domain.RunContext, parallelism int) ([]domain.JobResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if parallelism < 1 {
		parallelism = 1
	}

	state := s.newRunState(ctx, p, run, parallelism)

	for job := range p.Walk() {
		s.setStatus(job.Name, domain.StatusPending)
	}

	for !state.isDone() {
		state.schedule()

		if state.isDone() {
			break
		}

		if state.ctx.Err() != nil {
			if state.active == 0 {
				return state.ordered(), errors.Join(state.errs, state.ctx.Err())
			}
			// Cancelled with jobs still running: block on each remaining
			// result instead of re-entering the select, whose Done case
			// would stay ready forever.
			state.handleResult(<-state.resultsCh)
			continue
		}

		select {
		case res := <-state.resultsCh:
			state.handleResult(res)
		case <-state.ctx.Done():
		}
	}

	if state.ctx.Err() != nil {
		state.errs = errors.Join(state.errs, state.ctx.Err())
	}

	return state.ordered(), state.errs
}

type runState struct {
	s           *Scheduler
	p           *domain.Pipeline
	run         *domain.RunContext
	ctx         context.Context
	parallelism int

	inDegree  map[domain.InternedString]int
	jobs      map[domain.InternedString]domain.Job
	ready     []domain.InternedString
	active    int
	resultsCh chan domain.JobResult
	results   map[domain.InternedString]domain.JobResult
	order     []domain.InternedString
	errs      error
}

func (s *Scheduler) newRunState(ctx context.Context, p *domain.Pipeline, run *domain.RunContext, parallelism int) *runState {
	jobCount := p.JobCount()
	inDegree := make(map[domain.InternedString]int, jobCount)
	jobsByName := make(map[domain.InternedString]domain.Job, jobCount)

	for job := range p.Walk() {
		jobsByName[job.Name] = job
		inDegree[job.Name] = len(job.Needs)
	}

	var ready []domain.InternedString
	for job := range p.Walk() {
		if inDegree[job.Name] == 0 {
			ready = append(ready, job.Name)
		}
	}

	return &runState{
		s:           s,
		p:           p,
		run:         run,
		ctx:         ctx,
		parallelism: parallelism,
		inDegree:    inDegree,
		jobs:        jobsByName,
		ready:       ready,
		resultsCh:   make(chan domain.JobResult, parallelism),
		results:     make(map[domain.InternedString]domain.JobResult, jobCount),
	}
}

func (state *runState) isDone() bool {
	return state.active == 0 && len(state.ready) == 0
}

func (state *runState) schedule() {
	for len(state.ready) > 0 && state.active < state.parallelism && state.ctx.Err() == nil {
		jobName := state.ready[0]
		state.ready = state.ready[1:]

		job := state.jobs[jobName]
		deps := state.depResults(&job)

		if skip, reason := state.shouldSkip(&job, deps); skip {
			state.s.logger.Info("skipping job", "job", jobName.String(), "reason", reason)
			state.s.setStatus(jobName, domain.StatusSkipped)
			state.handleResult(domain.JobResult{Job: jobName, Status: domain.StatusSkipped})
			continue
		}

		state.active++
		state.s.setStatus(jobName, domain.StatusRunning)

		go func(j domain.Job, deps []domain.JobResult) {
			res, err := state.s.runner.RunJob(state.ctx, state.p, &j, state.run, deps)
			res.Job = j.Name
			if err != nil && res.Err == nil {
				res.Err = err
				res.Status = domain.StatusFailed
			}
			state.resultsCh <- res
		}(job, deps)
	}
}

// shouldSkip evaluates the job's run condition against its dependencies'
// terminal results.
func (state *runState) shouldSkip(job *domain.Job, deps []domain.JobResult) (bool, string) {
	if job.SkipOnPullRequest && state.run.Event == domain.EventPullRequest {
		return true, "pull request event"
	}

	anyFailed := false
	for _, dep := range deps {
		if !dep.Status.Succeeded() {
			anyFailed = true
			break
		}
	}

	switch job.Condition() {
	case domain.RunAlways:
		return false, ""
	case domain.RunOnFailure:
		if !anyFailed {
			return true, "no dependency failed"
		}
		return false, ""
	default: // RunOnSuccess
		if anyFailed {
			return true, "dependency failed"
		}
		return false, ""
	}
}

func (state *runState) depResults(job *domain.Job) []domain.JobResult {
	deps := make([]domain.JobResult, 0, len(job.Needs))
	for _, need := range job.Needs {
		if res, ok := state.results[need]; ok {
			deps = append(deps, res)
		}
	}
	return deps
}

func (state *runState) handleResult(res domain.JobResult) {
	// Skipped results are synthesized inline and never occupied a slot.
	if res.Status != domain.StatusSkipped {
		state.active--
	}
	state.results[res.Job] = res
	state.order = append(state.order, res.Job)
	state.s.setStatus(res.Job, res.Status)

	if res.Err != nil {
		wrappedErr := zerr.With(zerr.Wrap(res.Err, "job failed"), "job", res.Job.String())
		state.errs = errors.Join(state.errs, wrappedErr)
	}

	// Terminal states, including failed and skipped, unblock dependents;
	// each dependent's run condition decides what it does with them.
	for _, dep := range state.p.Dependents(res.Job) {
		state.inDegree[dep]--
		if state.inDegree[dep] == 0 {
			state.ready = append(state.ready, dep)
		}
	}
}

func (state *runState) ordered() []domain.JobResult {
	out := make([]domain.JobResult, 0, len(state.order))
	for _, name := range state.order {
		out = append(out, state.results[name])
	}
	return out
}
