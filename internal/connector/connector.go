// Package connector defines the execution channel to the machine that
// hosts the SQL client: commands go out, captured output comes back, and
// files move in both directions. Implementations are thin transports; no
// retry or queueing logic lives here.
package connector

import (
	"context"
	"io"
)

// Result holds the captured output of one command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Connector executes commands and transfers files on a target machine.
type Connector interface {
	// Connect establishes the connection.
	Connect(ctx context.Context) error

	// Execute runs a shell command on the target and blocks until it
	// finishes or ctx is done.
	Execute(ctx context.Context, cmd string) (*Result, error)

	// Upload copies src to the remote path dst with the given mode.
	Upload(ctx context.Context, src io.Reader, dst string, mode uint32) error

	// Download copies the remote path src into dst.
	Download(ctx context.Context, src string, dst io.Writer) error

	// Close terminates the connection.
	Close() error

	// String describes the connection for log and error messages.
	String() string
}
