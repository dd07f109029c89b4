package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/relay/internal/core/domain"
)

func testPrefix() domain.KeyPrefix {
	return domain.KeyPrefix{Namespace: "relay", Version: "v1"}
}

func addUnit(t *testing.T, p *domain.Pipeline, name string) {
	t.Helper()
	err := p.AddUnit(&domain.Unit{
		Name:   domain.NewInternedString(name),
		Mode:   domain.KeyModeTree,
		Inputs: []domain.InternedString{domain.NewInternedString("src")},
		Build:  []string{"make", name},
		Output: domain.NewInternedString("out/" + name),
	})
	require.NoError(t, err)
}

func addJob(t *testing.T, p *domain.Pipeline, name string, needs ...string) {
	t.Helper()
	job := &domain.Job{Name: domain.NewInternedString(name)}
	for _, n := range needs {
		job.Needs = append(job.Needs, domain.NewInternedString(n))
	}
	require.NoError(t, p.AddJob(job))
}

func TestPipeline_AddJob(t *testing.T) {
	t.Run("rejects duplicate jobs", func(t *testing.T) {
		p := domain.NewPipeline("test", testPrefix())
		addJob(t, p, "build")

		err := p.AddJob(&domain.Job{Name: domain.NewInternedString("build")})
		require.ErrorIs(t, err, domain.ErrJobAlreadyExists)
	})

	t.Run("rejects unknown units", func(t *testing.T) {
		p := domain.NewPipeline("test", testPrefix())
		err := p.AddJob(&domain.Job{
			Name:  domain.NewInternedString("build"),
			Units: []domain.InternedString{domain.NewInternedString("ghost")},
		})
		require.ErrorIs(t, err, domain.ErrUnknownUnit)
	})

	t.Run("accepts jobs over registered units", func(t *testing.T) {
		p := domain.NewPipeline("test", testPrefix())
		addUnit(t, p, "cli")
		err := p.AddJob(&domain.Job{
			Name:  domain.NewInternedString("build"),
			Units: []domain.InternedString{domain.NewInternedString("cli")},
		})
		require.NoError(t, err)
	})
}

func TestPipeline_AddUnit_Duplicate(t *testing.T) {
	p := domain.NewPipeline("test", testPrefix())
	addUnit(t, p, "cli")

	err := p.AddUnit(&domain.Unit{Name: domain.NewInternedString("cli")})
	require.ErrorIs(t, err, domain.ErrUnitAlreadyExists)
}

func TestPipeline_Validate(t *testing.T) {
	t.Run("detects cycles", func(t *testing.T) {
		p := domain.NewPipeline("test", testPrefix())
		addJob(t, p, "a", "b")
		addJob(t, p, "b", "a")

		err := p.Validate()
		require.ErrorIs(t, err, domain.ErrCycleDetected)
	})

	t.Run("detects missing dependencies", func(t *testing.T) {
		p := domain.NewPipeline("test", testPrefix())
		addJob(t, p, "a", "missing")

		err := p.Validate()
		require.ErrorIs(t, err, domain.ErrMissingDependency)
	})

	t.Run("orders dependencies before dependents", func(t *testing.T) {
		p := domain.NewPipeline("test", testPrefix())
		addJob(t, p, "test", "build")
		addJob(t, p, "build")
		addJob(t, p, "notify", "test")

		require.NoError(t, p.Validate())

		var order []string
		for job := range p.Walk() {
			order = append(order, job.Name.String())
		}
		assert.Equal(t, []string{"build", "test", "notify"}, order)
	})
}

func TestPipeline_Dependents(t *testing.T) {
	p := domain.NewPipeline("test", testPrefix())
	addJob(t, p, "build")
	addJob(t, p, "test", "build")
	addJob(t, p, "bench", "build")
	require.NoError(t, p.Validate())

	deps := p.Dependents(domain.NewInternedString("build"))
	names := make([]string, len(deps))
	for i, d := range deps {
		names[i] = d.String()
	}
	assert.ElementsMatch(t, []string{"test", "bench"}, names)
}

func TestParseEvent(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.Event
		wantErr bool
	}{
		{in: "push", want: domain.EventPush},
		{in: "pull-request", want: domain.EventPullRequest},
		{in: "workflow-run", want: domain.EventWorkflowRun},
		{in: "", want: domain.EventManual},
		{in: "cron", wantErr: true},
	}
	for _, tt := range tests {
		got, err := domain.ParseEvent(tt.in)
		if tt.wantErr {
			require.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestJob_Condition_DefaultsToSuccess(t *testing.T) {
	j := &domain.Job{Name: domain.NewInternedString("x")}
	assert.Equal(t, domain.RunOnSuccess, j.Condition())

	j.When = domain.RunAlways
	assert.Equal(t, domain.RunAlways, j.Condition())
}

func TestStatus(t *testing.T) {
	assert.True(t, domain.StatusCached.Succeeded())
	assert.True(t, domain.StatusSkipped.Succeeded())
	assert.False(t, domain.StatusFailed.Succeeded())
	assert.False(t, domain.StatusRunning.IsTerminal())
	assert.True(t, domain.StatusFailed.IsTerminal())
	assert.Equal(t, domain.StatusPending, domain.NormalizeStatus("bogus"))
	assert.Equal(t, domain.StatusCached, domain.NormalizeStatus("CACHED"))
}

func TestKeyPrefix_Key(t *testing.T) {
	prefix := domain.KeyPrefix{Namespace: "edb", Version: "v3"}
	assert.Equal(t, domain.CacheKey("edb-v3-cli-abc123"), prefix.Key("cli-abc123"))
}

func TestRunSummary_Failed(t *testing.T) {
	s := &domain.RunSummary{Conclusion: domain.StatusCompleted}
	assert.False(t, s.Failed())
	s.Conclusion = domain.StatusFailed
	assert.True(t, s.Failed())
}
