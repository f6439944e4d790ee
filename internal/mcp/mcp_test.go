package mcp

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/deixis/rebootcmds/internal/config"
	"github.com/deixis/rebootcmds/internal/report"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setup creates a rebootcmds MCP server + client over in-memory transports.
func setup(t *testing.T, cfg *config.Config) *mcp.ClientSession {
	t.Helper()
	return setupWithLogger(t, cfg, zerolog.Nop())
}

func setupWithLogger(t *testing.T, cfg *config.Config, log zerolog.Logger) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	store := report.NewDiskStore(t.TempDir())
	server := NewServer(cfg, log, store)

	ct, st := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, st, nil)
	require.NoError(t, err, "server.Connect")

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err, "client.Connect")

	t.Cleanup(func() {
		_ = cs.Close()
		_ = ss.Wait()
	})

	return cs
}

func pendingConfig(t *testing.T, cmds ...[]string) *config.Config {
	t.Helper()
	marker := filepath.Join(t.TempDir(), "reboot-cmds-needed")
	require.NoError(t, os.WriteFile(marker, nil, 0o644))
	return &config.Config{RawMarker: marker, RawCommands: cmds}
}

func callTool(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err, "CallTool(%s)", name)
	return res
}

func resultText(r *mcp.CallToolResult) string {
	var text string
	for _, c := range r.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			text += tc.Text
		}
	}
	return text
}

var runIDPattern = regexp.MustCompile(`Run: ([0-9a-f-]{36})`)

func runID(t *testing.T, text string) string {
	t.Helper()
	m := runIDPattern.FindStringSubmatch(text)
	require.Len(t, m, 2, "no run id in:\n%s", text)
	return m[1]
}

func TestListTools(t *testing.T) {
	cs := setup(t, &config.Config{})
	res, err := cs.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"reboot_status", "reboot_run", "reboot_inspect"}, names)
}

func TestRebootStatus(t *testing.T) {
	cfg := pendingConfig(t, []string{"sh", "-c", "true"}, []string{"/nonexistent/binary"})
	cs := setup(t, cfg)

	res := callTool(t, cs, "reboot_status", nil)
	text := resultText(res)
	require.False(t, res.IsError, text)
	assert.Contains(t, text, "State: present")
	assert.Contains(t, text, "/nonexistent/binary: not found")
}

func TestRebootRun_Idle(t *testing.T) {
	cfg := &config.Config{
		RawMarker:   filepath.Join(t.TempDir(), "absent"),
		RawCommands: [][]string{{"/nonexistent/binary"}},
	}
	cs := setup(t, cfg)

	text := resultText(callTool(t, cs, "reboot_run", nil))
	assert.Contains(t, text, "Status: IDLE")
}

func TestRebootRun_Pass(t *testing.T) {
	cs := setup(t, pendingConfig(t, []string{"true"}, []string{"echo", "done"}))

	text := resultText(callTool(t, cs, "reboot_run", nil))
	assert.Contains(t, text, "Status: PASS")
	assert.Contains(t, text, "[1] echo done")

	id := runID(t, text)
	res := callTool(t, cs, "reboot_inspect", map[string]any{"run_id": id, "step": 1})
	out := resultText(res)
	require.False(t, res.IsError, out)
	assert.Contains(t, out, "Step 1: echo done (pass)")
	assert.Contains(t, out, "    done")
}

func TestRebootRun_FailThenInspect(t *testing.T) {
	cs := setup(t, pendingConfig(t,
		[]string{"sh", "-c", "echo oops >&2; exit 5"},
		[]string{"true"},
	))

	text := resultText(callTool(t, cs, "reboot_run", nil))
	assert.Contains(t, text, "Status: FAIL")
	assert.Contains(t, text, "Return code: 5")
	assert.Regexp(t, `\[1\] true\s+skipped`, text)

	id := runID(t, text)
	out := resultText(callTool(t, cs, "reboot_inspect", map[string]any{"run_id": id}))
	assert.Contains(t, out, "Stderr: oops")
}

func TestRebootInspect_MissingRunID(t *testing.T) {
	cs := setup(t, &config.Config{})
	_, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "reboot_inspect",
		Arguments: map[string]any{},
	})
	assert.Error(t, err, "expected error for missing run_id")
}

func TestRebootInspect_InvalidRunID(t *testing.T) {
	cs := setup(t, &config.Config{})
	res := callTool(t, cs, "reboot_inspect", map[string]any{"run_id": "../../etc/passwd"})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(res), "invalid run id")
}

func TestRebootInspect_StepOutOfRange(t *testing.T) {
	cs := setup(t, pendingConfig(t, []string{"true"}))
	id := runID(t, resultText(callTool(t, cs, "reboot_run", nil)))

	res := callTool(t, cs, "reboot_inspect", map[string]any{"run_id": id, "step": 4})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(res), "has no step 4")
}

func TestRebootRun_AbortIsLogged(t *testing.T) {
	var buf bytes.Buffer
	cs := setupWithLogger(t, pendingConfig(t, []string{"false"}), zerolog.New(&buf))

	res := callTool(t, cs, "reboot_run", nil)
	id := runID(t, resultText(res))

	assert.Contains(t, buf.String(), `"message":"deferred commands aborted"`)
	assert.Contains(t, buf.String(), `"run_id":"`+id+`"`)
}
