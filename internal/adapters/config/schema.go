package config

// Relayfile represents the structure of the relay.yaml configuration file.
type Relayfile struct {
	Version string             `yaml:"version"`
	Name    string             `yaml:"name"`
	Cache   CacheDTO           `yaml:"cache"`
	Units   map[string]UnitDTO `yaml:"units"`
	Jobs    map[string]JobDTO  `yaml:"jobs"`
}

// CacheDTO configures the cache key prefix.
type CacheDTO struct {
	Namespace string `yaml:"namespace"`
	Version   string `yaml:"version"`
}

// UnitDTO represents a build unit definition in the configuration.
type UnitDTO struct {
	Inputs []string          `yaml:"inputs"`
	Pin    *PinDTO           `yaml:"pin"`
	Build  []string          `yaml:"build"`
	Output string            `yaml:"output"`
	Env    map[string]string `yaml:"environment"`
}

// PinDTO pins a unit to an external revision instead of a tree hash.
type PinDTO struct {
	Repo     string `yaml:"repo"`
	Revision string `yaml:"revision"`
}

// JobDTO represents a job definition in the configuration.
type JobDTO struct {
	Needs             []string          `yaml:"needs"`
	When              string            `yaml:"when"`
	Units             []string          `yaml:"units"`
	Steps             []StepDTO         `yaml:"steps"`
	Env               map[string]string `yaml:"environment"`
	RequireCache      bool              `yaml:"requireCache"`
	Notify            bool              `yaml:"notify"`
	SkipOnPullRequest bool              `yaml:"skipOnPullRequest"`
}

// StepDTO represents a single sequential command inside a job.
type StepDTO struct {
	Name string            `yaml:"name"`
	Run  []string          `yaml:"run"`
	Env  map[string]string `yaml:"environment"`
}
