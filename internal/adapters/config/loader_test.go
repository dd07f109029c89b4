package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/relay/internal/adapters/config"
	"go.trai.ch/relay/internal/core/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, domain.ConfigFileName), []byte(content), domain.FilePerm)
	require.NoError(t, err)
	return dir
}

const validConfig = `
version: "1"
name: server-ci
cache:
  namespace: edb
  version: v3
units:
  cli:
    pin:
      repo: cli
      revision: master
    build: ["make", "cli"]
    output: build/cli
  parsers:
    inputs: ["edb/parsers", "setup.py"]
    build: ["python", "setup.py", "build_parsers"]
    output: build/parsers
jobs:
  build:
    units: [cli, parsers]
  ha-test:
    needs: [build]
    units: [cli, parsers]
    requireCache: true
    steps:
      - name: run tests
        run: ["python", "-m", "pytest", "-k", "ha"]
  notify:
    needs: [ha-test]
    when: failure
    notify: true
    skipOnPullRequest: true
`

func TestLoad_Valid(t *testing.T) {
	dir := writeConfig(t, validConfig)

	loader := &config.FileConfigLoader{}
	p, err := loader.Load(dir)
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.Equal(t, "server-ci", p.Name)
	assert.Equal(t, domain.KeyPrefix{Namespace: "edb", Version: "v3"}, p.Prefix)
	assert.Equal(t, 3, p.JobCount())

	cli, err := p.Unit(domain.NewInternedString("cli"))
	require.NoError(t, err)
	assert.Equal(t, domain.KeyModePinned, cli.Mode)
	assert.Equal(t, "master", cli.Revision.String())

	parsers, err := p.Unit(domain.NewInternedString("parsers"))
	require.NoError(t, err)
	assert.Equal(t, domain.KeyModeTree, parsers.Mode)

	test, err := p.Job(domain.NewInternedString("ha-test"))
	require.NoError(t, err)
	assert.True(t, test.RequireCache)
	require.Len(t, test.Steps, 1)
	assert.Equal(t, "run tests", test.Steps[0].Name)

	notify, err := p.Job(domain.NewInternedString("notify"))
	require.NoError(t, err)
	assert.True(t, notify.Notify)
	assert.True(t, notify.SkipOnPullRequest)
	assert.Equal(t, domain.RunOnFailure, notify.Condition())
}

func TestLoad_CanonicalizesInputs(t *testing.T) {
	dir := writeConfig(t, `
name: p
cache: {namespace: n, version: v1}
units:
  u:
    inputs: ["b", "a", "b"]
    build: ["true"]
    output: out
jobs:
  j:
    units: [u]
`)

	p, err := config.Load(filepath.Join(dir, domain.ConfigFileName))
	require.NoError(t, err)

	u, err := p.Unit(domain.NewInternedString("u"))
	require.NoError(t, err)
	require.Len(t, u.Inputs, 2)
	assert.Equal(t, "a", u.Inputs[0].String())
	assert.Equal(t, "b", u.Inputs[1].String())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{
			name:    "missing cache prefix",
			content: `{name: p, jobs: {j: {}}}`,
			errText: "namespace and version",
		},
		{
			name: "inputs and pin are exclusive",
			content: `
cache: {namespace: n, version: v1}
units:
  u:
    inputs: ["src"]
    pin: {repo: r, revision: main}
    output: out
jobs: {j: {units: [u]}}
`,
			errText: "both inputs and pin",
		},
		{
			name: "pin requires revision",
			content: `
cache: {namespace: n, version: v1}
units:
  u:
    pin: {repo: r}
    output: out
jobs: {j: {units: [u]}}
`,
			errText: "repo and revision",
		},
		{
			name: "unit without inputs or pin",
			content: `
cache: {namespace: n, version: v1}
units:
  u: {output: out}
jobs: {j: {units: [u]}}
`,
			errText: "inputs or pin",
		},
		{
			name: "unit without output",
			content: `
cache: {namespace: n, version: v1}
units:
  u: {inputs: ["src"]}
jobs: {j: {units: [u]}}
`,
			errText: "output must be set",
		},
		{
			name: "invalid run condition",
			content: `
cache: {namespace: n, version: v1}
jobs:
  j: {when: sometimes}
`,
			errText: "invalid run condition",
		},
		{
			name: "empty step command",
			content: `
cache: {namespace: n, version: v1}
jobs:
  j:
    steps:
      - name: nothing
`,
			errText: "step has no command",
		},
		{
			name: "reserved job name",
			content: `
cache: {namespace: n, version: v1}
jobs:
  all: {}
`,
			errText: "reserved",
		},
		{
			name: "unknown dependency",
			content: `
cache: {namespace: n, version: v1}
jobs:
  j: {needs: [ghost]}
`,
			errText: "missing",
		},
		{
			name: "building job with buildless unit",
			content: `
cache: {namespace: n, version: v1}
units:
  u:
    inputs: ["src"]
    output: out
    build: []
jobs:
  j: {units: [u]}
`,
			errText: "no build command",
		},
		{
			name: "dependency cycle",
			content: `
cache: {namespace: n, version: v1}
jobs:
  a: {needs: [b]}
  b: {needs: [a]}
`,
			errText: "cycle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeConfig(t, tt.content)
			_, err := config.Load(filepath.Join(dir, domain.ConfigFileName))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

func TestLoad_BuildlessUnitAllowedForRequireCacheJob(t *testing.T) {
	// A consumer-only job never builds, so its units may omit the build
	// command as long as no building job references them.
	dir := writeConfig(t, `
cache: {namespace: n, version: v1}
units:
  u:
    inputs: ["src"]
    output: out
jobs:
  j:
    units: [u]
    requireCache: true
`)

	_, err := config.Load(filepath.Join(dir, domain.ConfigFileName))
	require.NoError(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	loader := &config.FileConfigLoader{}
	_, err := loader.Load(t.TempDir())
	require.Error(t, err)
}
