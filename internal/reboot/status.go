package reboot

import (
	"fmt"
	"strings"

	"github.com/deixis/rebootcmds/internal/runner"
)

// Status describes the processor's configuration without running anything.
type Status struct {
	Marker    string          `json:"marker"`
	Pending   bool            `json:"pending"`
	MarkerErr string          `json:"marker_error,omitempty"`
	Commands  []CommandStatus `json:"commands"`
}

// CommandStatus reports where a deferred command's program resolves.
type CommandStatus struct {
	Command    runner.Command `json:"command"`
	Executable string         `json:"executable,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Status checks the marker and resolves every configured command.
func (p *Processor) Status() *Status {
	st := &Status{Marker: p.Marker, Commands: make([]CommandStatus, len(p.Commands))}
	pending, err := p.Pending()
	st.Pending = pending
	if err != nil {
		st.MarkerErr = err.Error()
	}
	for i, cmd := range p.Commands {
		cs := CommandStatus{Command: cmd}
		if path, err := runner.Resolve(cmd); err != nil {
			cs.Error = err.Error()
		} else {
			cs.Executable = path
		}
		st.Commands[i] = cs
	}
	return st
}

// Format renders the status as text.
func (st *Status) Format() string {
	var b strings.Builder
	state := "absent"
	if st.Pending {
		state = "present (deferred commands pending)"
	}
	fmt.Fprintf(&b, "Marker: %s\n", st.Marker)
	fmt.Fprintf(&b, "State: %s\n", state)
	if st.MarkerErr != "" {
		fmt.Fprintf(&b, "Marker error: %s\n", st.MarkerErr)
	}
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Commands (%d):\n", len(st.Commands))
	for i, cs := range st.Commands {
		if cs.Error != "" {
			fmt.Fprintf(&b, "  [%d] %s: not found (%s)\n", i, cs.Command, cs.Error)
		} else {
			fmt.Fprintf(&b, "  [%d] %s: %s\n", i, cs.Command, cs.Executable)
		}
	}
	return b.String()
}
