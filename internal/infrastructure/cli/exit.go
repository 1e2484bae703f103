package cli

import (
	"errors"
	"fmt"

	"github.com/doeshing/matrixsh/internal/domain"
)

// ExitError carries the process exit code of a finished session.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode maps an Execute error to the process exit code.
func ExitCode(err error) int {
	var exitErr *ExitError
	switch {
	case err == nil:
		return domain.ExitOK
	case errors.Is(err, domain.ErrStartupConfig):
		return domain.ExitStartupConfig
	case errors.Is(err, domain.ErrHealthCheck):
		return domain.ExitHealthCheck
	case errors.As(err, &exitErr):
		return exitErr.Code
	default:
		return domain.ExitFailure
	}
}

// Silent reports whether err needs no message on stderr.
func Silent(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Err == nil
}
