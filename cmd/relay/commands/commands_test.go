package commands_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/relay/cmd/relay/commands"
	"go.trai.ch/relay/internal/app"
	"go.trai.ch/relay/internal/build"
	"go.trai.ch/relay/internal/core/domain"
)

type mockApp struct {
	runFunc   func(ctx context.Context, opts app.RunOptions) (*domain.RunSummary, error)
	keysFunc  func(ctx context.Context, root string) (map[string]domain.CacheKey, error)
	pruneFunc func(maxAge time.Duration) (int, error)
}

func (m *mockApp) Run(ctx context.Context, opts app.RunOptions) (*domain.RunSummary, error) {
	if m.runFunc != nil {
		return m.runFunc(ctx, opts)
	}
	return &domain.RunSummary{Conclusion: domain.StatusCompleted}, nil
}

func (m *mockApp) Keys(ctx context.Context, root string) (map[string]domain.CacheKey, error) {
	if m.keysFunc != nil {
		return m.keysFunc(ctx, root)
	}
	return nil, nil
}

func (m *mockApp) Prune(maxAge time.Duration) (int, error) {
	if m.pruneFunc != nil {
		return m.pruneFunc(maxAge)
	}
	return 0, nil
}

func execute(t *testing.T, mock *mockApp, args ...string) (string, error) {
	t.Helper()
	cli := commands.New(mock)
	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return buf.String(), err
}

func TestCommands_Run(t *testing.T) {
	t.Run("wires flags correctly", func(t *testing.T) {
		var captured app.RunOptions
		mock := &mockApp{
			runFunc: func(_ context.Context, opts app.RunOptions) (*domain.RunSummary, error) {
				captured = opts
				return &domain.RunSummary{
					Pipeline:   "server-ci",
					RunID:      "run-1",
					Conclusion: domain.StatusCompleted,
				}, nil
			},
		}

		out, err := execute(t, mock,
			"run", "--event", "pull-request", "--ref", "refs/pull/1", "--force", "--parallelism", "2")
		require.NoError(t, err)
		assert.Equal(t, "pull-request", captured.Event)
		assert.Equal(t, "refs/pull/1", captured.Ref)
		assert.True(t, captured.Force)
		assert.Equal(t, 2, captured.Parallelism)
		assert.Equal(t, ".", captured.Root)
		assert.Contains(t, out, "run-1")
	})

	t.Run("propagates failures and prints failed jobs", func(t *testing.T) {
		mock := &mockApp{
			runFunc: func(_ context.Context, _ app.RunOptions) (*domain.RunSummary, error) {
				return &domain.RunSummary{
					Pipeline:   "server-ci",
					RunID:      "run-2",
					Conclusion: domain.StatusFailed,
					FailedJobs: []string{"ha-test"},
				}, errors.New("pipeline failed")
			},
		}

		out, err := execute(t, mock, "run")
		require.Error(t, err)
		assert.Contains(t, out, "ha-test")
	})
}

func TestCommands_RootFlagEntersWorkingTree(t *testing.T) {
	worktree := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(worktree, "relay.yaml"), []byte("name: p"), 0o644))
	t.Chdir(t.TempDir())

	// The workspace paths are all relative, so the process must be inside
	// the selected tree by the time the application runs.
	var inWorktree bool
	mock := &mockApp{
		runFunc: func(_ context.Context, _ app.RunOptions) (*domain.RunSummary, error) {
			_, err := os.Stat("relay.yaml")
			inWorktree = err == nil
			return &domain.RunSummary{Conclusion: domain.StatusCompleted}, nil
		},
	}

	_, err := execute(t, mock, "run", "-C", worktree)
	require.NoError(t, err)
	assert.True(t, inWorktree)
}

func TestCommands_RootFlagMissingDirectory(t *testing.T) {
	_, err := execute(t, &mockApp{}, "run", "-C", filepath.Join(t.TempDir(), "gone"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to enter working tree")
}

func TestCommands_Keys(t *testing.T) {
	mock := &mockApp{
		keysFunc: func(_ context.Context, root string) (map[string]domain.CacheKey, error) {
			assert.Equal(t, ".", root)
			return map[string]domain.CacheKey{
				"parsers": "edb-v1-parsers-abc",
				"cli":     "edb-v1-cli-def",
			}, nil
		},
	}

	out, err := execute(t, mock, "keys")
	require.NoError(t, err)
	// Sorted by unit name.
	assert.Regexp(t, `(?s)cli\tedb-v1-cli-def.*parsers\tedb-v1-parsers-abc`, out)
}

func TestCommands_Prune(t *testing.T) {
	var captured time.Duration
	mock := &mockApp{
		pruneFunc: func(maxAge time.Duration) (int, error) {
			captured = maxAge
			return 2, nil
		},
	}

	out, err := execute(t, mock, "prune", "--max-age", "48h")
	require.NoError(t, err)
	assert.Equal(t, 48*time.Hour, captured)
	assert.Contains(t, out, "removed 2")
}

func TestCommands_Version(t *testing.T) {
	out, err := execute(t, &mockApp{}, "version")
	require.NoError(t, err)
	assert.Contains(t, out, build.Version)
}
