package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scheduler/internal/store"
)

// seedJournal writes a small session and returns the database path.
func seedJournal(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "journal.db")
	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	require.NoError(t, st.WriteSession(ctx, "monday", "Plan the week"))
	events := []store.EventRecord{
		{SessionID: "monday", Seq: 1, Event: "committed", EditID: "edit-1", EditName: "add_task", Description: "add Home", UndoDepth: 1},
		{SessionID: "monday", Seq: 2, Event: "undone", EditID: "edit-1", EditName: "add_task", Description: "add Home", RedoDepth: 1},
		{SessionID: "monday", Seq: 3, Event: "cleared"},
	}
	for _, ev := range events {
		require.NoError(t, st.WriteEvent(ctx, ev))
	}
	return db
}

func TestHistorySessionsText(t *testing.T) {
	db := seedJournal(t)

	cmd := NewHistoryCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "=== Sessions ===")
	assert.Contains(t, out, "monday  3 events, last seq 3  Plan the week")
}

func TestHistorySessionsJSON(t *testing.T) {
	db := seedJournal(t)

	cmd := NewHistoryCommand(&RootOptions{Format: "json"})
	out, _, err := execute(cmd, "--db", db)
	require.NoError(t, err)

	var resp struct {
		Data []store.SessionSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "monday", resp.Data[0].ID)
	assert.Equal(t, 3, resp.Data[0].Events)
}

func TestHistorySessionTimelineText(t *testing.T) {
	db := seedJournal(t)

	cmd := NewHistoryCommand(&RootOptions{Format: "text", Verbose: true})
	out, _, err := execute(cmd, "--db", db, "--session", "monday")
	require.NoError(t, err)

	assert.Contains(t, out, "History for Session: monday")
	assert.Contains(t, out, "[1] committed undo=1 redo=0  add Home")
	assert.Contains(t, out, "[2] undone    undo=0 redo=1  add Home")
	assert.Contains(t, out, "[3] cleared   undo=0 redo=0")
	assert.Contains(t, out, "ID: edit-1")
	assert.Contains(t, out, "Total Events: 3")
	assert.Contains(t, out, "Cleared:      1")
}

func TestHistoryEditLifecycle(t *testing.T) {
	db := seedJournal(t)

	cmd := NewHistoryCommand(&RootOptions{Format: "json"})
	out, _, err := execute(cmd, "--db", db, "--edit", "edit-1")
	require.NoError(t, err)

	var resp struct {
		Data HistoryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "edit-1", resp.Data.Edit)
	assert.Equal(t, HistoryStats{Total: 2, Committed: 1, Undone: 1}, resp.Data.Stats)
}

func TestHistoryUnknownSession(t *testing.T) {
	db := seedJournal(t)

	cmd := NewHistoryCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, "--db", db, "--session", "tuesday")
	require.NoError(t, err)
	assert.Contains(t, out, "(no events)")
}

func TestHistoryNoDatabase(t *testing.T) {
	cmd := NewHistoryCommand(&RootOptions{Format: "text"})
	_, _, err := execute(cmd)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no journal")
}

func TestHistorySessionAndEditExclusive(t *testing.T) {
	db := seedJournal(t)

	cmd := NewHistoryCommand(&RootOptions{Format: "text"})
	_, _, err := execute(cmd, "--db", db, "--session", "monday", "--edit", "edit-1")
	require.Error(t, err)
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "edit-1", truncateID("edit-1"))
	assert.Equal(t, "0192b3c4...89abcdef", truncateID("0192b3c4-0000-7000-8000-0123456789abcdef"))
}
