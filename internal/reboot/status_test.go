package reboot

import (
	"path/filepath"
	"testing"

	"github.com/deixis/rebootcmds/internal/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	marker := writeMarker(t)
	p, _ := newProcessor(t, marker, runner.Command{"sh", "-c", "true"}, runner.Command{"/nonexistent/binary"})

	st := p.Status()
	assert.True(t, st.Pending)
	assert.Empty(t, st.MarkerErr)
	require.Len(t, st.Commands, 2)
	assert.NotEmpty(t, st.Commands[0].Executable)
	assert.Empty(t, st.Commands[0].Error)
	assert.Empty(t, st.Commands[1].Executable)
	assert.NotEmpty(t, st.Commands[1].Error)

	text := st.Format()
	assert.Contains(t, text, "Marker: "+marker)
	assert.Contains(t, text, "State: present")
	assert.Contains(t, text, "[1] /nonexistent/binary: not found")
}

func TestStatus_Absent(t *testing.T) {
	p, _ := newProcessor(t, filepath.Join(t.TempDir(), "absent"))
	st := p.Status()
	assert.False(t, st.Pending)
	assert.Contains(t, st.Format(), "State: absent")
	assert.Contains(t, st.Format(), "Commands (0):")
}
