// Package runner launches external programs from an argument vector and
// classifies the outcome as a Result, a LaunchError or an ExitError.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/text/encoding/unicode"
)

// Runner executes one command per Run call. It imposes no timeout and never
// retries.
type Runner struct {
	Log zerolog.Logger
}

// Run starts cmd, waits for it to exit and returns its decoded output.
// allowed lists the exit codes treated as success; when empty only 0 is.
//
// A command that cannot be started yields a *LaunchError. A command that
// exits with a code outside allowed yields an *ExitError carrying the code
// and everything it wrote.
func (r *Runner) Run(ctx context.Context, cmd Command, allowed ...int) (*Result, error) {
	if len(cmd) == 0 {
		return nil, &LaunchError{Command: cmd, Err: ErrEmptyCommand}
	}
	if len(allowed) == 0 {
		allowed = []int{0}
	}

	runID := uuid.New().String()
	log := r.Log.With().Str("run_id", runID).Stringer("cmd", cmd).Logger()

	c := exec.CommandContext(ctx, cmd[0], cmd[1:]...)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	start := time.Now()
	if err := c.Start(); err != nil {
		log.Debug().Err(err).Msg("launch failed")
		return nil, &LaunchError{Command: cmd, Err: err}
	}

	waitErr := c.Wait()
	elapsed := time.Since(start)

	exitCode := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			// Started but the output copy or wait itself failed.
			log.Debug().Err(waitErr).Msg("wait failed")
			return nil, &LaunchError{Command: cmd, Err: fmt.Errorf("waiting for %s: %w", cmd[0], waitErr)}
		}
		exitCode = exitStatus(exitErr)
	}

	out := decode(stdout.Bytes())
	errOut := decode(stderr.Bytes())

	log.Debug().Int("exit_code", exitCode).Dur("duration", elapsed).Msg("command exited")

	if !slices.Contains(allowed, exitCode) {
		return nil, &ExitError{Command: cmd, ExitCode: exitCode, Stdout: out, Stderr: errOut}
	}

	return &Result{
		RunID:    runID,
		Command:  cmd,
		ExitCode: exitCode,
		Stdout:   out,
		Stderr:   errOut,
		Duration: elapsed,
	}, nil
}

// exitStatus returns the exit code, or the negated signal number when the
// process was killed by a signal.
func exitStatus(exitErr *exec.ExitError) int {
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return -int(ws.Signal())
	}
	return exitErr.ExitCode()
}

// decode converts captured bytes to UTF-8 text, replacing ill-formed
// sequences with U+FFFD.
func decode(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "\uFFFD")
	}
	return string(out)
}

// Resolve reports the executable cmd would launch. A program containing a
// path separator is checked as given; anything else is looked up on PATH.
func Resolve(cmd Command) (string, error) {
	if len(cmd) == 0 {
		return "", ErrEmptyCommand
	}
	if strings.ContainsRune(cmd[0], os.PathSeparator) {
		info, err := os.Stat(cmd[0])
		if err != nil {
			return "", err
		}
		if info.IsDir() || info.Mode().Perm()&0o111 == 0 {
			return "", fmt.Errorf("%s: not an executable file", cmd[0])
		}
		return cmd[0], nil
	}
	return exec.LookPath(cmd[0])
}
