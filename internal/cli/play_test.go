package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayText(t *testing.T) {
	cmd := NewPlayCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, filepath.Join(scenarioDir, "bounded_history.yaml"))
	require.NoError(t, err)

	assert.Contains(t, out, "=== bounded_history ===")
	assert.Contains(t, out, "=== Steps ===")
	assert.Contains(t, out, "add C, add B, (nothing to undo)")
	assert.Contains(t, out, "- C [Unstarted]")
	assert.Contains(t, out, "EDIT LOG")
	assert.Contains(t, out, "✓ Scenario passed")
	assert.NotContains(t, out, "Session:")
}

func TestPlayJSONWithMetrics(t *testing.T) {
	cmd := NewPlayCommand(&RootOptions{Format: "json"})
	out, _, err := execute(cmd, filepath.Join(scenarioDir, "bounded_history.yaml"), "--metrics")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   PlayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Pass)
	assert.Len(t, resp.Data.Trace, 5)
	assert.Equal(t, 3.0, resp.Data.Metrics["scheduler_edit_events_total{event=committed}"])
	assert.Equal(t, 2.0, resp.Data.Metrics["scheduler_edit_events_total{event=undone}"])
	assert.Equal(t, 2.0, resp.Data.Metrics["scheduler_edit_events_total{event=redone}"])
	assert.Equal(t, 2.0, resp.Data.Metrics["scheduler_edit_undo_depth"])
	assert.Equal(t, 0.0, resp.Data.Metrics["scheduler_edit_redo_depth"])
	assert.Equal(t, 2.0, resp.Data.Metrics["scheduler_edit_playback_seconds_count{direction=undo}"])
	assert.Equal(t, 2.0, resp.Data.Metrics["scheduler_edit_playback_seconds_count{direction=redo}"])
}

func TestPlayJournalsToDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "journal.db")

	cmd := NewPlayCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, filepath.Join(scenarioDir, "bounded_history.yaml"), "--db", db, "--session", "monday")
	require.NoError(t, err)
	assert.Contains(t, out, "Session: monday")

	hist := NewHistoryCommand(&RootOptions{Format: "json"})
	out, _, err = execute(hist, "--db", db, "--session", "monday")
	require.NoError(t, err)

	var resp struct {
		Data HistoryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 3, resp.Data.Stats.Committed)
	assert.Equal(t, 2, resp.Data.Stats.Undone)
	assert.Equal(t, 2, resp.Data.Stats.Redone)
	require.NotEmpty(t, resp.Data.Timeline)
	assert.Equal(t, "committed", resp.Data.Timeline[0].Event)
	assert.Equal(t, "add A", resp.Data.Timeline[0].Description)
}

func TestPlayResumesSession(t *testing.T) {
	db := filepath.Join(t.TempDir(), "journal.db")
	scenario := filepath.Join(scenarioDir, "bounded_history.yaml")

	for range 2 {
		_, _, err := execute(NewPlayCommand(&RootOptions{Format: "text"}), scenario, "--db", db, "--session", "monday")
		require.NoError(t, err)
	}

	out, _, err := execute(NewHistoryCommand(&RootOptions{Format: "json"}), "--db", db, "--session", "monday")
	require.NoError(t, err)

	var resp struct {
		Data HistoryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 6, resp.Data.Stats.Committed)
	assert.Equal(t, 4, resp.Data.Stats.Undone)
	for i := 1; i < len(resp.Data.Timeline); i++ {
		assert.Greater(t, resp.Data.Timeline[i].Seq, resp.Data.Timeline[i-1].Seq)
	}
}

func TestPlaySessionNamedAfterScenario(t *testing.T) {
	db := filepath.Join(t.TempDir(), "journal.db")

	cmd := NewPlayCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, filepath.Join(scenarioDir, "bounded_history.yaml"), "--db", db, "--session", "bounded_history")
	require.NoError(t, err)
	assert.Contains(t, out, "Session: bounded_history")
	assert.Contains(t, out, "✓ Scenario passed")

	out, _, err = execute(NewHistoryCommand(&RootOptions{Format: "json"}), "--db", db, "--session", "bounded_history")
	require.NoError(t, err)
	var resp struct {
		Data HistoryResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 3, resp.Data.Stats.Committed)
}

func TestPlayJournalFromConfig(t *testing.T) {
	db := filepath.Join(t.TempDir(), "journal.db")
	opts := &RootOptions{Format: "text"}
	opts.Config.Journal.Path = db

	cmd := NewPlayCommand(opts)
	out, _, err := execute(cmd, filepath.Join(scenarioDir, "bounded_history.yaml"))
	require.NoError(t, err)
	// Generated session ids start with the scenario name.
	assert.Contains(t, out, "Session: bounded_history-")
}

func TestPlayFailingScenario(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "failing.yaml", failingScenario)

	cmd := NewPlayCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Scenario failed")
	assert.Contains(t, out, "undo_depth = 1, want 5")
}

func TestPlayMissingFile(t *testing.T) {
	cmd := NewPlayCommand(&RootOptions{Format: "json"})
	out, _, err := execute(cmd, "/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeLoadFailed)
}

func TestPlayMissingArgs(t *testing.T) {
	cmd := NewPlayCommand(&RootOptions{Format: "text"})
	_, _, err := execute(cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}
