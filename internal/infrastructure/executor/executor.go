// Package executor runs commands in the session's shell backend and owns the
// process-free handling of cd.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/doeshing/matrixsh/internal/domain"
	"github.com/doeshing/matrixsh/internal/ports"
)

// LocalExecutor runs commands on the host through one Backend chosen per session.
type LocalExecutor struct {
	backend Backend
}

// NewLocalExecutor selects the backend for mode once.
func NewLocalExecutor(mode domain.ShellMode) *LocalExecutor {
	return &LocalExecutor{backend: BackendFor(mode)}
}

// NewWithBackend builds an executor around an explicit backend.
func NewWithBackend(backend Backend) *LocalExecutor {
	return &LocalExecutor{backend: backend}
}

// Mode reports the resolved backend.
func (e *LocalExecutor) Mode() domain.ShellMode {
	return e.backend.Mode()
}

// Binary names the program the backend launches.
func (e *LocalExecutor) Binary() string {
	return e.backend.Command("")[0]
}

// Execute implements ports.CommandExecutor. It blocks until the child exits.
// A process that cannot be started is reported as a result, never as an error.
func (e *LocalExecutor) Execute(ctx context.Context, command string, cwd string) domain.ExecResult {
	argv := e.backend.Command(command)
	c := exec.CommandContext(ctx, argv[0], argv[1:]...)
	c.Dir = cwd
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	start := time.Now()
	err := c.Run()
	result := domain.ExecResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.ExitCode = 0
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
		if result.ExitCode < 0 {
			// killed by a signal
			result.ExitCode = domain.ExitInterrupted
		}
	default:
		result.ExitCode = domain.ExitSpawnFailure
		result.Stderr = fmt.Sprintf("%s: cannot start %s: %v\n", e.backend.Mode(), argv[0], err) + result.Stderr
	}
	return result
}

// IsCommandNotFound implements ports.CommandExecutor.
func (e *LocalExecutor) IsCommandNotFound(result domain.ExecResult) bool {
	if result.Success() || result.ExitCode == domain.ExitSpawnFailure {
		return false
	}
	return e.backend.NotFound(result)
}

var _ ports.CommandExecutor = (*LocalExecutor)(nil)
