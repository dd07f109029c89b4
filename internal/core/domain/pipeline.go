// Package domain contains the core domain models for the pipeline job graph.
package domain

import (
	"iter"
	"slices"

	"go.trai.ch/zerr"
)

// Pipeline represents a validated DAG of jobs plus the build units they reference.
type Pipeline struct {
	Name   string
	Prefix KeyPrefix

	units map[InternedString]Unit
	jobs  map[InternedString]Job

	executionOrder []InternedString
}

// NewPipeline creates a new empty Pipeline.
func NewPipeline(name string, prefix KeyPrefix) *Pipeline {
	return &Pipeline{
		Name:   name,
		Prefix: prefix,
		units:  make(map[InternedString]Unit),
		jobs:   make(map[InternedString]Job),
	}
}

// AddUnit registers a build unit.
// It returns an error if a unit with the same name already exists.
func (p *Pipeline) AddUnit(u *Unit) error {
	if _, exists := p.units[u.Name]; exists {
		return zerr.With(ErrUnitAlreadyExists, "unit", u.Name.String())
	}
	p.units[u.Name] = *u
	return nil
}

// AddJob adds a job to the graph.
// It returns an error if a job with the same name already exists or if the
// job references an unknown unit.
func (p *Pipeline) AddJob(j *Job) error {
	if _, exists := p.jobs[j.Name]; exists {
		return zerr.With(ErrJobAlreadyExists, "job", j.Name.String())
	}
	for _, u := range j.Units {
		if _, ok := p.units[u]; !ok {
			err := zerr.With(ErrUnknownUnit, "unit", u.String())
			return zerr.With(err, "job", j.Name.String())
		}
	}
	p.jobs[j.Name] = *j
	return nil
}

// Unit returns the unit with the given name.
func (p *Pipeline) Unit(name InternedString) (Unit, error) {
	u, ok := p.units[name]
	if !ok {
		return Unit{}, zerr.With(ErrUnknownUnit, "unit", name.String())
	}
	return u, nil
}

// Job returns the job with the given name.
func (p *Pipeline) Job(name InternedString) (Job, error) {
	j, ok := p.jobs[name]
	if !ok {
		return Job{}, zerr.With(ErrJobNotFound, "job", name.String())
	}
	return j, nil
}

// JobCount returns the number of jobs in the pipeline.
func (p *Pipeline) JobCount() int {
	return len(p.jobs)
}

// UnitNames returns all unit names in sorted order.
func (p *Pipeline) UnitNames() []InternedString {
	names := make([]InternedString, 0, len(p.units))
	for name := range p.units {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b InternedString) int {
		return compareInterned(a, b)
	})
	return names
}

// Validate checks for cycles and missing dependencies using a topological
// sort. It populates the execution order on success.
func (p *Pipeline) Validate() error {
	p.executionOrder = make([]InternedString, 0, len(p.jobs))
	visited := make(map[InternedString]int) // 0: unvisited, 1: visiting, 2: visited
	var path []InternedString

	var visit func(u InternedString) error
	visit = func(u InternedString) error {
		visited[u] = 1
		path = append(path, u)

		job, exists := p.jobs[u]
		if !exists {
			return zerr.With(ErrMissingDependency, "dependency", u.String())
		}

		for _, dep := range job.Needs {
			if visited[dep] == 1 {
				return p.buildCycleError(path, dep)
			}
			if visited[dep] == 0 {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visited[u] = 2
		path = path[:len(path)-1]
		p.executionOrder = append(p.executionOrder, u)
		return nil
	}

	// Sorted iteration keeps the order of disconnected components stable.
	names := make([]InternedString, 0, len(p.jobs))
	for name := range p.jobs {
		names = append(names, name)
	}
	slices.SortFunc(names, compareInterned)

	for _, name := range names {
		if visited[name] == 0 {
			if err := visit(name); err != nil {
				return err
			}
		}
	}

	return nil
}

// buildCycleError constructs an error with cycle path metadata.
func (p *Pipeline) buildCycleError(path []InternedString, dep InternedString) error {
	cyclePath := ""
	startIdx := -1
	for i, node := range path {
		if node == dep {
			startIdx = i
			break
		}
	}
	for i := startIdx; i < len(path); i++ {
		cyclePath += path[i].String() + " -> "
	}
	cyclePath += dep.String()
	return zerr.With(ErrCycleDetected, "cycle", cyclePath)
}

// Walk returns an iterator that yields jobs in execution order.
// It assumes Validate() has been called and returned nil.
func (p *Pipeline) Walk() iter.Seq[Job] {
	return func(yield func(Job) bool) {
		for _, name := range p.executionOrder {
			if !yield(p.jobs[name]) {
				return
			}
		}
	}
}

// Dependents returns the names of jobs that list the given job in Needs.
func (p *Pipeline) Dependents(name InternedString) []InternedString {
	var out []InternedString
	for _, jobName := range p.executionOrder {
		if slices.Contains(p.jobs[jobName].Needs, name) {
			out = append(out, jobName)
		}
	}
	return out
}

func compareInterned(a, b InternedString) int {
	as, bs := a.String(), b.String()
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}
