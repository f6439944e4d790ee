// Package mcp provides the rebootcmds MCP server, exposing deferred-command
// status, replay and run inspection to a host-management agent.
package mcp

import (
	_ "embed"
	"sync"

	"github.com/deixis/rebootcmds"
	"github.com/deixis/rebootcmds/internal/config"
	"github.com/deixis/rebootcmds/internal/reboot"
	"github.com/deixis/rebootcmds/internal/report"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers.
type handler struct {
	cfg   *config.Config
	log   zerolog.Logger
	store report.Store

	// runMu keeps replays sequential when calls arrive concurrently.
	runMu sync.Mutex
}

// NewServer creates an MCP server with all rebootcmds tools registered.
func NewServer(cfg *config.Config, log zerolog.Logger, store report.Store) *mcp.Server {
	h := &handler{cfg: cfg, log: log, store: store}

	opts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "rebootcmds", Version: rebootcmds.Version}, opts)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "reboot_status",
		Description: "Show the marker path, whether deferred commands are pending, and where each configured command resolves. Runs nothing.",
	}, h.statusHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "reboot_run",
		Description: `Replay the deferred commands if the marker is present, stopping on first failure.

Each command runs to completion before the next starts. The marker is not removed.
Results are stored for drill-down via reboot_inspect.`,
	}, h.runHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "reboot_inspect",
		Description: `Show the captured output from a reboot_run result.

Pass the run_id from reboot_run. Pass step to show a single command's full stdout and stderr.`,
	}, h.inspectHandler)

	return s
}

// processor builds a fresh processor per call so no state is shared
// between invocations.
func (h *handler) processor() *reboot.Processor {
	return reboot.New(h.cfg, h.log)
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
