package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestCommandMissingArgs(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	_, _, err := execute(cmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandAgainstGolden(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, scenarioDir, "--golden", goldenDir)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ bounded_history")
	assert.Contains(t, out, "✓ weekly_plan")
	assert.Contains(t, out, "Test Summary: 2 passed, 0 failed, 2 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandJSON(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "json"})
	out, _, err := execute(cmd, scenarioDir, "--golden", goldenDir, "--filter", "weekly*")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Total)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "weekly_plan", resp.Data.Scenarios[0].Name)
}

func TestTestCommandUpdateWritesGolden(t *testing.T) {
	dir := t.TempDir()

	cmd := NewTestCommand(&RootOptions{Format: "text"})
	_, _, err := execute(cmd, scenarioDir, "--golden", dir, "--update")
	require.NoError(t, err)

	for _, name := range []string{"bounded_history", "weekly_plan"} {
		got, err := os.ReadFile(filepath.Join(dir, name+".golden"))
		require.NoError(t, err)
		want, err := os.ReadFile(filepath.Join(goldenDir, name+".golden"))
		require.NoError(t, err)
		assert.Equal(t, string(want), string(got), name)
	}
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bounded_history.golden"), []byte("{}\n"), 0644))

	cmd := NewTestCommand(&RootOptions{Format: "text", Verbose: true})
	out, _, err := execute(cmd, scenarioDir, "--golden", dir, "--filter", "bounded*")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ bounded_history")
	assert.Contains(t, out, "does not match golden file")
	assert.Contains(t, out, "@@")
	assert.Contains(t, out, "Test Summary: 0 passed, 1 failed, 1 total")
}

func TestTestCommandNoGoldenUsesAssertions(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "failing.yaml", failingScenario)

	cmd := NewTestCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ failing")
	assert.Contains(t, out, "undo_depth = 1, want 5")
}

func TestTestCommandLoadErrorCountsAsFailure(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "broken.yaml", "name: broken\nsteps:\n  - op: bogus\n")

	cmd := NewTestCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, ErrCodeLoadFailed)
}

func TestTestCommandEmptyDir(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyDirJSON(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "json"})
	out, _, err := execute(cmd, t.TempDir())
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.Data.Total)
}

func TestTestCommandNonExistentDir(t *testing.T) {
	cmd := NewTestCommand(&RootOptions{Format: "text"})
	out, _, err := execute(cmd, "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNotFound)
}

func TestGoldenPath(t *testing.T) {
	opts := &TestOptions{}
	assert.Equal(t, filepath.Join("scenarios", "golden", "week.golden"),
		opts.goldenPath(filepath.Join("scenarios", "week_file.yaml"), "week"))

	opts.GoldenDir = "fixtures"
	assert.Equal(t, filepath.Join("fixtures", "week.golden"),
		opts.goldenPath(filepath.Join("scenarios", "week_file.yaml"), "week"))
}
