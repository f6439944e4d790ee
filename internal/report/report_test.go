package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/deixis/rebootcmds/internal/runner"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func failedRun() *Run {
	return &Run{
		ID:        uuid.New().String(),
		Marker:    "/etc/ubuntu-advantage/reboot-cmds-needed",
		Pending:   true,
		StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Steps: []Step{
			{Command: runner.Command{"ua", "refresh"}, Status: StatusPass, ExitCode: intPtr(0), Stdout: "refreshed\n"},
			{Command: runner.Command{"false"}, Status: StatusFail, ExitCode: intPtr(1), Stderr: "bad things"},
			{Command: runner.Command{"true"}, Status: StatusSkipped},
		},
		FailedIdx: 1,
	}
}

func TestDiskStore_SaveLoad(t *testing.T) {
	store := NewDiskStore(t.TempDir())
	run := failedRun()

	require.NoError(t, store.Save(run))
	got, err := store.Load(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run, got)
}

func TestDiskStore_LazyTempDir(t *testing.T) {
	store := NewDiskStore("")
	run := failedRun()
	require.NoError(t, store.Save(run))
	t.Cleanup(func() { _ = os.RemoveAll(store.dir) })

	_, err := os.Stat(filepath.Join(store.dir, run.ID+".json"))
	assert.NoError(t, err)
}

func TestDiskStore_RejectsNonUUID(t *testing.T) {
	store := NewDiskStore(t.TempDir())
	_, err := store.Load("../../etc/passwd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid run id")
}

func TestDiskStore_LoadMissing(t *testing.T) {
	store := NewDiskStore(t.TempDir())
	_, err := store.Load(uuid.New().String())
	assert.Error(t, err)
}

func TestRunStep(t *testing.T) {
	run := failedRun()
	s, err := run.Step(1)
	require.NoError(t, err)
	assert.Equal(t, runner.Command{"false"}, s.Command)

	_, err = run.Step(3)
	assert.Error(t, err)
	_, err = run.Step(-1)
	assert.Error(t, err)
}

func TestFormat_Failed(t *testing.T) {
	run := failedRun()
	out := Format(run, false)

	assert.Contains(t, out, "Status: FAIL")
	assert.Contains(t, out, "Run: "+run.ID)
	assert.Contains(t, out, "Failed running cmd: false")
	assert.Contains(t, out, "Return code: 1")
	assert.Contains(t, out, "Stderr: bad things")
	assert.NotContains(t, out, "refreshed", "passing output only shown when verbose")
}

func TestFormat_Verbose(t *testing.T) {
	out := Format(failedRun(), true)
	assert.Contains(t, out, "Output of ua refresh:")
	assert.Contains(t, out, "    refreshed")
}

func TestFormat_Idle(t *testing.T) {
	out := Format(&Run{ID: "x", Marker: "/m", FailedIdx: -1}, false)
	assert.Contains(t, out, "Status: IDLE")
	assert.Contains(t, out, "No deferred commands pending.")
}

func TestFailure_NoExitCode(t *testing.T) {
	s := &Step{Command: runner.Command{"/nonexistent/binary"}, Status: StatusFail, Error: "no such file or directory"}
	out := Failure(s)
	assert.Contains(t, out, "Return code: none")
	assert.Contains(t, out, "Error: no such file or directory")
}
