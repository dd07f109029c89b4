// Package shell provides the shell executor adapter.
package shell

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"

	"go.trai.ch/relay/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Executor = (*Executor)(nil)

// Executor implements ports.Executor using os/exec.
type Executor struct {
	logger ports.Logger
}

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{logger: logger}
}

// Execute runs the command and blocks until it exits. The command environment
// is the process environment with cmd.Env layered on top.
func (e *Executor) Execute(ctx context.Context, cmd ports.Command) error {
	if len(cmd.Argv) == 0 {
		return nil
	}

	proc := exec.CommandContext(ctx, cmd.Argv[0], cmd.Argv[1:]...) //nolint:gosec // Command comes from the pipeline config
	proc.Dir = cmd.Dir
	proc.Env = mergeEnvironment(os.Environ(), cmd.Env)
	proc.Stdout = e.writerOr(cmd.Stdout, "info")
	proc.Stderr = e.writerOr(cmd.Stderr, "error")

	if err := proc.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		err = zerr.With(zerr.Wrap(err, "command failed"), "command", strings.Join(cmd.Argv, " "))
		return zerr.With(err, "exit_code", exitCode)
	}

	return nil
}

func (e *Executor) writerOr(w io.Writer, level string) io.Writer {
	if w != nil {
		return w
	}
	return &logWriter{logger: e.logger, level: level}
}

// mergeEnvironment layers overrides on top of the base KEY=VALUE environment.
func mergeEnvironment(base []string, overrides map[string]string) []string {
	envMap := make(map[string]string, len(base)+len(overrides))
	var order []string
	for _, entry := range base {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if _, seen := envMap[k]; !seen {
			order = append(order, k)
		}
		envMap[k] = v
	}
	for k, v := range overrides {
		if _, seen := envMap[k]; !seen {
			order = append(order, k)
		}
		envMap[k] = v
	}

	result := make([]string, 0, len(order))
	for _, k := range order {
		result = append(result, k+"="+envMap[k])
	}
	return result
}

type logWriter struct {
	logger ports.Logger
	level  string
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	lines := strings.Split(strings.TrimSuffix(string(p), "\n"), "\n")
	for _, line := range lines {
		if w.level == "info" {
			w.logger.Info(line)
		} else {
			w.logger.Error(zerr.New(line))
		}
	}
	return len(p), nil
}
