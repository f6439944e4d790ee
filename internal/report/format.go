package report

import (
	"fmt"
	"strings"
)

// Format renders a run as a human-readable summary. With verbose set, the
// captured output of every executed step is included; otherwise only the
// failed step's output is shown.
func Format(run *Run, verbose bool) string {
	var b strings.Builder

	switch {
	case !run.Pending:
		fmt.Fprintln(&b, "Status: IDLE")
	case run.Failed():
		fmt.Fprintln(&b, "Status: FAIL")
	default:
		fmt.Fprintln(&b, "Status: PASS")
	}
	fmt.Fprintf(&b, "Run: %s\n", run.ID)
	fmt.Fprintf(&b, "Marker: %s\n", run.Marker)

	if !run.Pending {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "No deferred commands pending.")
		return b.String()
	}

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "Steps:")
	for i, s := range run.Steps {
		fmt.Fprintf(&b, "  [%d] %-50s %s\n", i, s.Command, s.Status)
	}

	for i := range run.Steps {
		s := &run.Steps[i]
		switch {
		case s.Status == StatusFail:
			fmt.Fprintln(&b)
			b.WriteString(Failure(s))
		case verbose && s.Status == StatusPass:
			fmt.Fprintln(&b)
			fmt.Fprintf(&b, "Output of %s:\n", s.Command)
			writeIndented(&b, "Stdout", s.Stdout)
			writeIndented(&b, "Stderr", s.Stderr)
		}
	}

	return b.String()
}

// Failure renders the diagnostic block for a failed step.
func Failure(s *Step) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Failed running cmd: %s\n", s.Command)
	fmt.Fprintf(&b, "Return code: %s\n", s.ExitCodeText())
	if s.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", s.Error)
	}
	fmt.Fprintf(&b, "Stderr: %s\n", s.Stderr)
	fmt.Fprintf(&b, "Stdout: %s\n", s.Stdout)
	return b.String()
}

func writeIndented(b *strings.Builder, label, text string) {
	if text == "" {
		fmt.Fprintf(b, "  %s: (empty)\n", label)
		return
	}
	fmt.Fprintf(b, "  %s:\n", label)
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		fmt.Fprintf(b, "    %s\n", line)
	}
}
