package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/taskdeck/internal/core/auth"
	"github.com/colonyops/taskdeck/internal/core/task"
	"github.com/colonyops/taskdeck/pkg/iojson"
)

func decodeTasks(t *testing.T, out []byte) []task.Task {
	t.Helper()
	var tasks []task.Task
	dec := json.NewDecoder(bytes.NewReader(out))
	for {
		var tk task.Task
		err := dec.Decode(&tk)
		if errors.Is(err, io.EOF) {
			return tasks
		}
		require.NoError(t, err)
		tasks = append(tasks, tk)
	}
}

func titles(tasks []task.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, tk := range tasks {
		out = append(out, tk.Title)
	}
	return out
}

func seedAda(t *testing.T, h *cmdHarness) *auth.Session {
	t.Helper()
	s := h.signIn(t, "ada@example.com")
	base := time.Now().Add(-3 * time.Hour)
	h.srv.Seed(
		task.Task{UserID: s.User.ID, Title: "Write report", CreatedAt: base},
		task.Task{UserID: s.User.ID, Title: "Water plants", IsComplete: true, CreatedAt: base.Add(time.Hour)},
		task.Task{UserID: s.User.ID, Title: "Call bank", CreatedAt: base.Add(2 * time.Hour)},
	)
	return s
}

func TestLsCmd_JSONLinesNewestFirst(t *testing.T) {
	h := newCmdHarness(t)
	seedAda(t, h)

	require.NoError(t, h.run("", "ls", "--json"))

	got := decodeTasks(t, h.out.Bytes())
	assert.Equal(t, []string{"Call bank", "Water plants", "Write report"}, titles(got))
}

func TestLsCmd_NonTerminalDefaultsToJSON(t *testing.T) {
	h := newCmdHarness(t)
	seedAda(t, h)

	require.NoError(t, h.run("", "ls"))

	assert.Len(t, decodeTasks(t, h.out.Bytes()), 3)
	assert.NotContains(t, h.out.String(), "remaining")
}

func TestLsCmd_Filter(t *testing.T) {
	tests := []struct {
		filter string
		want   []string
	}{
		{filter: "all", want: []string{"Call bank", "Water plants", "Write report"}},
		{filter: "active", want: []string{"Call bank", "Write report"}},
		{filter: "completed", want: []string{"Water plants"}},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			h := newCmdHarness(t)
			seedAda(t, h)

			require.NoError(t, h.run("", "ls", "--filter", tt.filter, "--json"))
			assert.Equal(t, tt.want, titles(decodeTasks(t, h.out.Bytes())))
		})
	}
}

func TestLsCmd_UnknownFilter(t *testing.T) {
	h := newCmdHarness(t)

	err := h.run("", "ls", "--filter", "someday", "--json")
	require.Error(t, err)

	var out iojson.Error
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &out))
	assert.Contains(t, out.Message, "unknown filter")
}

func TestLsCmd_NotSignedIn(t *testing.T) {
	h := newCmdHarness(t)

	err := h.run("", "ls", "--json")
	require.ErrorIs(t, err, auth.ErrNoSession)

	var out iojson.Error
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &out))
	assert.Contains(t, out.Message, "not signed in")
	assert.Equal(t, "not_signed_in", out.Data["reason"])
	assert.Equal(t, "ls", out.Data["command"])
}

func TestLsCmd_RemoteFailure(t *testing.T) {
	h := newCmdHarness(t)
	seedAda(t, h)
	h.srv.FailNext(http.MethodGet, http.StatusInternalServerError, "XX000", "database unavailable")

	err := h.run("", "ls", "--json")

	var remoteErr *task.RemoteError
	require.ErrorAs(t, err, &remoteErr)

	var out iojson.Error
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &out))
	assert.Equal(t, "remote", out.Data["reason"])
	assert.Equal(t, remoteErr.Op, out.Data["op"])
}

func TestWriteTable(t *testing.T) {
	h := newCmdHarness(t)
	s := seedAda(t, h)

	list := h.app.NewTaskList()
	out := list.Run(context.Background(), list.SetOwner(&s.User))
	require.NoError(t, out.Err)

	var buf bytes.Buffer
	writeTable(&buf, list, task.FilterCompleted)

	table := buf.String()
	assert.Contains(t, table, "DONE")
	assert.Contains(t, table, "[x]")
	assert.Contains(t, table, "Water plants")
	assert.Contains(t, table, "hours ago")
	assert.NotContains(t, table, "Call bank")
	assert.Contains(t, table, "2 tasks remaining", "the counter ignores the filter")
}
