// Package config provides the configuration loader for relay.
package config

import (
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/relay/internal/core/domain"
	"go.trai.ch/relay/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*FileConfigLoader)(nil)

// FileConfigLoader implements ports.ConfigLoader using a YAML file.
type FileConfigLoader struct {
	Filename string
}

// Load reads the configuration from the given working directory.
func (l *FileConfigLoader) Load(cwd string) (*domain.Pipeline, error) {
	name := l.Filename
	if name == "" {
		name = domain.ConfigFileName
	}
	return Load(filepath.Join(cwd, name))
}

// Load reads a configuration file from the given path and returns a
// validated domain.Pipeline.
func Load(path string) (*domain.Pipeline, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.Wrap(err, "failed to read config file")
	}

	var file Relayfile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.Wrap(err, "failed to parse config file")
	}

	return build(&file)
}

func build(file *Relayfile) (*domain.Pipeline, error) {
	prefix := domain.KeyPrefix{Namespace: file.Cache.Namespace, Version: file.Cache.Version}
	if prefix.Namespace == "" || prefix.Version == "" {
		return nil, zerr.New("cache namespace and version must be set")
	}

	p := domain.NewPipeline(file.Name, prefix)

	for name, dto := range file.Units {
		unit, err := buildUnit(name, &dto)
		if err != nil {
			return nil, err
		}
		if err := p.AddUnit(unit); err != nil {
			return nil, err
		}
	}

	jobNames := make(map[string]bool, len(file.Jobs))
	for name := range file.Jobs {
		jobNames[name] = true
	}

	for name, dto := range file.Jobs {
		if name == "all" {
			return nil, zerr.With(zerr.New("job name 'all' is reserved"), "job", name)
		}
		for _, dep := range dto.Needs {
			if !jobNames[dep] {
				return nil, zerr.With(domain.ErrMissingDependency, "missing_dependency", dep)
			}
		}

		// A job without require_cache rebuilds its units on a miss, so each
		// of them needs a build command; otherwise an empty staging dir
		// would be cached as the unit's output.
		if !dto.RequireCache {
			for _, u := range dto.Units {
				if udto, ok := file.Units[u]; ok && len(udto.Build) == 0 {
					err := zerr.With(zerr.New("unit has no build command"), "unit", u)
					return nil, zerr.With(err, "job", name)
				}
			}
		}

		job, err := buildJob(name, &dto)
		if err != nil {
			return nil, err
		}
		if err := p.AddJob(job); err != nil {
			return nil, err
		}
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func buildUnit(name string, dto *UnitDTO) (*domain.Unit, error) {
	unit := &domain.Unit{
		Name:   domain.NewInternedString(name),
		Inputs: canonicalizeStrings(dto.Inputs),
		Build:  dto.Build,
		Output: domain.NewInternedString(dto.Output),
		Env:    dto.Env,
	}

	switch {
	case dto.Pin != nil && len(dto.Inputs) > 0:
		return nil, zerr.With(zerr.New("unit cannot set both inputs and pin"), "unit", name)
	case dto.Pin != nil:
		if dto.Pin.Repo == "" || dto.Pin.Revision == "" {
			return nil, zerr.With(zerr.New("pin requires repo and revision"), "unit", name)
		}
		unit.Mode = domain.KeyModePinned
		unit.Repo = domain.NewInternedString(dto.Pin.Repo)
		unit.Revision = domain.NewInternedString(dto.Pin.Revision)
	case len(dto.Inputs) > 0:
		unit.Mode = domain.KeyModeTree
	default:
		return nil, zerr.With(zerr.New("unit needs inputs or pin"), "unit", name)
	}

	if dto.Output == "" {
		return nil, zerr.With(zerr.New("unit output must be set"), "unit", name)
	}
	return unit, nil
}

func buildJob(name string, dto *JobDTO) (*domain.Job, error) {
	when := domain.RunCondition(dto.When)
	switch when {
	case "", domain.RunOnSuccess, domain.RunOnFailure, domain.RunAlways:
	default:
		return nil, zerr.With(zerr.New("invalid run condition"), "when", dto.When)
	}

	steps := make([]domain.Step, 0, len(dto.Steps))
	for i, s := range dto.Steps {
		if len(s.Run) == 0 {
			err := zerr.With(zerr.New("step has no command"), "job", name)
			return nil, zerr.With(err, "step", i)
		}
		steps = append(steps, domain.Step{Name: s.Name, Run: s.Run, Env: s.Env})
	}

	return &domain.Job{
		Name:              domain.NewInternedString(name),
		Needs:             internStrings(dto.Needs),
		When:              when,
		Units:             internStrings(dto.Units),
		Steps:             steps,
		Env:               dto.Env,
		RequireCache:      dto.RequireCache,
		Notify:            dto.Notify,
		SkipOnPullRequest: dto.SkipOnPullRequest,
	}, nil
}

func internStrings(strs []string) []domain.InternedString {
	res := make([]domain.InternedString, len(strs))
	for i, s := range strs {
		res[i] = domain.NewInternedString(s)
	}
	return res
}

func canonicalizeStrings(strs []string) []domain.InternedString {
	if len(strs) == 0 {
		return nil
	}

	sorted := make([]string, len(strs))
	copy(sorted, strs)
	slices.Sort(sorted)

	unique := slices.Compact(sorted)
	res := make([]domain.InternedString, len(unique))
	for i, s := range unique {
		res[i] = domain.NewInternedString(s)
	}
	return res
}
