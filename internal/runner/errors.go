package runner

import (
	"errors"
	"fmt"
)

// ErrEmptyCommand is wrapped by the LaunchError returned for a Command with
// no tokens.
var ErrEmptyCommand = errors.New("empty command")

// LaunchError reports a command that could not be started at all: the
// binary is missing, not executable, or the argv was empty. There is no exit
// code and no captured output.
type LaunchError struct {
	Command Command
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("Invalid command specified '%s': %v", e.Command, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// ExitError reports a command that ran and terminated with an exit code
// outside the allowed set.
type ExitError struct {
	Command  Command
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("Failed running command '%s' [exit(%d)]. Message: %s", e.Command, e.ExitCode, e.Stderr)
}

// ExitCode returns the exit code carried by err and whether one exists.
// Only an ExitError carries a code.
func ExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode, true
	}
	return 0, false
}

// Output returns the stdout and stderr captured before err. Both are empty
// unless err is an ExitError.
func Output(err error) (stdout, stderr string) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Stdout, exitErr.Stderr
	}
	return "", ""
}
