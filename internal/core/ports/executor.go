// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"
)

// Command is a fully resolved external command invocation.
type Command struct {
	// Argv is the command and its arguments.
	Argv []string

	// Dir is the working directory for the command.
	Dir string

	// Env contains extra environment variables layered over the base
	// environment, highest priority last.
	Env map[string]string

	// Stdout and Stderr receive the command's output streams. Nil writers
	// fall back to the executor's logger.
	Stdout io.Writer
	Stderr io.Writer
}

// Executor defines the interface for invoking external build and test tools.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs the command and blocks until it exits.
	// It returns an error carrying the exit code if the command fails.
	Execute(ctx context.Context, cmd Command) error
}
