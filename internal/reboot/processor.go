// Package reboot replays deferred commands on boot.
//
// When the marker file exists, every configured command is run in order
// and the first failure stops the sequence. The marker is never created or
// removed here: its lifecycle belongs to whatever scheduled the work, so a
// second boot with the marker still present replays the whole list from the
// start. Commands are assumed to be safe to re-run; no partial progress is
// recorded between runs.
package reboot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/deixis/rebootcmds/internal/config"
	"github.com/deixis/rebootcmds/internal/report"
	"github.com/deixis/rebootcmds/internal/runner"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Exit statuses of the rebootcmds process.
const (
	ExitOK      = 0 // idle, or every deferred command succeeded
	ExitAborted = 1 // a deferred command failed; the rest were not run
	ExitConfig  = 2 // configuration, usage or setup error
)

// CommandRunner executes one command. Implemented by runner.Runner.
type CommandRunner interface {
	Run(ctx context.Context, cmd runner.Command, allowed ...int) (*runner.Result, error)
}

// Processor checks for the marker and replays Commands.
type Processor struct {
	Marker   string
	Commands []runner.Command
	Runner   CommandRunner
	Log      zerolog.Logger
}

// New builds a Processor from cfg using a runner.Runner that shares log.
func New(cfg *config.Config, log zerolog.Logger) *Processor {
	return &Processor{
		Marker:   cfg.Marker(),
		Commands: cfg.Commands(),
		Runner:   &runner.Runner{Log: log},
		Log:      log,
	}
}

// AbortError reports that the sequence stopped at Index because Command
// failed. Err is the *runner.LaunchError or *runner.ExitError.
type AbortError struct {
	Index   int
	Command runner.Command
	Err     error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("deferred command %d (%s) failed: %v", e.Index, e.Command, e.Err)
}

func (e *AbortError) Unwrap() error { return e.Err }

// ExitStatus maps the error returned by Process, or by CLI setup, to the
// process exit status.
func ExitStatus(err error) int {
	if err == nil {
		return ExitOK
	}
	var abort *AbortError
	if errors.As(err, &abort) {
		return ExitAborted
	}
	return ExitConfig
}

// Pending reports whether the marker exists.
func (p *Processor) Pending() (bool, error) {
	_, err := os.Stat(p.Marker)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Process runs the deferred commands if the marker is present. The
// returned run is always non-nil. The error is nil when idle or when every
// command succeeded, and an *AbortError otherwise.
func (p *Processor) Process(ctx context.Context) (*report.Run, error) {
	run := &report.Run{
		ID:        uuid.New().String(),
		Marker:    p.Marker,
		StartedAt: time.Now().UTC(),
		FailedIdx: -1,
	}
	log := p.Log.With().Str("run_id", run.ID).Str("marker", p.Marker).Logger()

	pending, err := p.Pending()
	if err != nil {
		log.Warn().Err(err).Msg("cannot stat marker, treating as absent")
	}
	if !pending {
		log.Debug().Msg("no deferred commands pending")
		return run, nil
	}

	run.Pending = true
	log.Debug().Int("commands", len(p.Commands)).Msg("running deferred commands on reboot")

	run.Steps = make([]report.Step, len(p.Commands))
	for i, cmd := range p.Commands {
		run.Steps[i] = report.Step{Command: cmd, Status: report.StatusSkipped}
	}

	for i, cmd := range p.Commands {
		res, err := p.Runner.Run(ctx, cmd)
		if err != nil {
			run.Steps[i] = failedStep(cmd, err)
			run.FailedIdx = i
			logFailure(log, &run.Steps[i], err)
			return run, &AbortError{Index: i, Command: cmd, Err: err}
		}

		code := res.ExitCode
		run.Steps[i] = report.Step{
			Command:  cmd,
			Status:   report.StatusPass,
			ExitCode: &code,
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
			Duration: res.Duration,
		}
		log.Info().Stringer("cmd", cmd).Msg("successfully executed cmd")
	}

	return run, nil
}

func failedStep(cmd runner.Command, err error) report.Step {
	step := report.Step{
		Command: cmd,
		Status:  report.StatusFail,
		Error:   err.Error(),
	}
	if code, ok := runner.ExitCode(err); ok {
		step.ExitCode = &code
	}
	step.Stdout, step.Stderr = runner.Output(err)
	return step
}

func logFailure(log zerolog.Logger, step *report.Step, err error) {
	ev := log.Error().Err(err).Stringer("cmd", step.Command)
	if step.ExitCode != nil {
		ev = ev.Int("exit_code", *step.ExitCode)
	} else {
		ev = ev.Str("exit_code", "none")
	}
	ev.Str("stderr", step.Stderr).
		Str("stdout", step.Stdout).
		Msg("failed running cmd")
}
