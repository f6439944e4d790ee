package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/deixis/rebootcmds/internal/report"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type statusParams struct{}

func (h *handler) statusHandler(ctx context.Context, req *mcp.CallToolRequest, _ statusParams) (*mcp.CallToolResult, any, error) {
	return textResult(h.processor().Status().Format())
}

type runParams struct{}

func (h *handler) runHandler(ctx context.Context, req *mcp.CallToolRequest, _ runParams) (*mcp.CallToolResult, any, error) {
	h.runMu.Lock()
	defer h.runMu.Unlock()

	// An abort is reported to the client through the run itself.
	run, err := h.processor().Process(ctx)
	if err != nil {
		h.log.Warn().Err(err).Str("run_id", run.ID).Msg("deferred commands aborted")
	}

	if err := h.store.Save(run); err != nil {
		h.log.Warn().Err(err).Str("run_id", run.ID).Msg("saving run failed")
	}

	return textResult(report.Format(run, false))
}

type inspectParams struct {
	RunID string `json:"run_id" jsonschema:"the run ID from a reboot_run result"`
	Step  *int   `json:"step,omitempty" jsonschema:"zero-based index of a single step to show; omit for the whole run"`
}

func (h *handler) inspectHandler(ctx context.Context, req *mcp.CallToolRequest, params inspectParams) (*mcp.CallToolResult, any, error) {
	if params.RunID == "" {
		return errorResult("run_id is required")
	}

	run, err := h.store.Load(params.RunID)
	if err != nil {
		return errorResult(fmt.Sprintf("Failed to load run %s: %v", params.RunID, err))
	}

	if params.Step == nil {
		return textResult(report.Format(run, true))
	}

	step, err := run.Step(*params.Step)
	if err != nil {
		return errorResult(err.Error())
	}
	return textResult(formatStep(run.ID, *params.Step, step))
}

func formatStep(runID string, idx int, s *report.Step) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run: %s\n", runID)
	fmt.Fprintf(&b, "Step %d: %s (%s)\n", idx, s.Command, s.Status)
	fmt.Fprintf(&b, "Return code: %s\n", s.ExitCodeText())
	if s.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", s.Error)
	}
	if s.Duration > 0 {
		fmt.Fprintf(&b, "Duration: %s\n", s.Duration)
	}
	fmt.Fprintln(&b)
	writeBlock(&b, "Stdout", s.Stdout)
	writeBlock(&b, "Stderr", s.Stderr)
	return b.String()
}

func writeBlock(b *strings.Builder, label, text string) {
	if text == "" {
		fmt.Fprintf(b, "%s: (empty)\n", label)
		return
	}
	fmt.Fprintf(b, "%s:\n", label)
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		fmt.Fprintf(b, "    %s\n", line)
	}
}
