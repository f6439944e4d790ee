package runner

import (
	"strings"
	"time"
)

// Command is an argument vector: the program followed by its arguments.
// Tokens are passed to the process unmodified; nothing is shell-interpreted.
type Command []string

// String joins the tokens with single spaces. Diagnostics only.
func (c Command) String() string {
	return strings.Join(c, " ")
}

// Result holds the output of a command that exited with an allowed code.
type Result struct {
	RunID    string        // unique identifier for this invocation
	Command  Command       // argv that was executed
	ExitCode int           // process exit code, always in the allowed set
	Stdout   string        // decoded stdout
	Stderr   string        // decoded stderr
	Duration time.Duration // wall time between start and exit
}
