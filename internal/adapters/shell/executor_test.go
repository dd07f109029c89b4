package shell_test

import (
	"bytes"
	"context"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/relay/internal/adapters/shell"
	"go.trai.ch/relay/internal/core/ports"
	"go.trai.ch/relay/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func newExecutor(t *testing.T) *shell.Executor {
	t.Helper()
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Info(gomock.Any(), gomock.Any()).AnyTimes()
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	logger.EXPECT().Error(gomock.Any()).AnyTimes()
	return shell.NewExecutor(logger)
}

func TestExecutor_Execute_CapturesStdout(t *testing.T) {
	skipOnWindows(t)
	exec := newExecutor(t)

	var stdout bytes.Buffer
	err := exec.Execute(context.Background(), ports.Command{
		Argv:   []string{"sh", "-c", "echo hello"},
		Stdout: &stdout,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello\n", stdout.String())
}

func TestExecutor_Execute_LayersEnvironment(t *testing.T) {
	skipOnWindows(t)
	exec := newExecutor(t)

	var stdout bytes.Buffer
	err := exec.Execute(context.Background(), ports.Command{
		Argv:   []string{"sh", "-c", "printf '%s' \"$RELAY_OUTPUT\""},
		Env:    map[string]string{"RELAY_OUTPUT": "/tmp/staging/cli"},
		Stdout: &stdout,
	})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/staging/cli", stdout.String())
}

func TestExecutor_Execute_WorkingDirectory(t *testing.T) {
	skipOnWindows(t)
	exec := newExecutor(t)
	dir := t.TempDir()

	var stdout bytes.Buffer
	err := exec.Execute(context.Background(), ports.Command{
		Argv:   []string{"pwd"},
		Dir:    dir,
		Stdout: &stdout,
	})
	require.NoError(t, err)
	assert.Contains(t, strings.TrimSpace(stdout.String()), dir)
}

func TestExecutor_Execute_ExitCode(t *testing.T) {
	skipOnWindows(t)
	exec := newExecutor(t)

	err := exec.Execute(context.Background(), ports.Command{
		Argv:   []string{"sh", "-c", "exit 3"},
		Stdout: new(bytes.Buffer),
		Stderr: new(bytes.Buffer),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command failed")
}

func TestExecutor_Execute_EmptyArgv(t *testing.T) {
	exec := newExecutor(t)
	err := exec.Execute(context.Background(), ports.Command{})
	require.NoError(t, err)
}

func TestExecutor_Execute_ContextCancellation(t *testing.T) {
	skipOnWindows(t)
	exec := newExecutor(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := exec.Execute(ctx, ports.Command{
		Argv:   []string{"sleep", "60"},
		Stdout: new(bytes.Buffer),
		Stderr: new(bytes.Buffer),
	})
	require.Error(t, err)
}
