package core

import (
	"context"
	"io"
)

// LogSource starts an external, line-emitting log process.
type LogSource interface {
	// Start spawns the source with the given argv. args[0] is the command.
	Start(ctx context.Context, args []string) (Process, error)
}

// Process is a running log source.
type Process interface {
	Stdout() io.Reader
	Stderr() io.Reader

	// Wait blocks until the process exits and releases its streams.
	Wait() error

	// Kill terminates the process. It is safe to call after exit.
	Kill() error
}
