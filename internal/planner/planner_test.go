package planner

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/scheduler/internal/edit"
)

func setupManager(t *testing.T) (*Manager, *edit.Log) {
	t.Helper()
	log := edit.New(edit.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	ids := edit.NewFixedGenerator("i1", "i2", "i3", "i4")
	return NewManager(New(), log, ids), log
}

func itemNames(items []*Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func TestManager_AddAndRemove(t *testing.T) {
	m, log := setupManager(t)

	id, err := m.AddItem("2024-03-01", Item{Name: "write"}, -1)
	require.NoError(t, err)
	assert.Equal(t, "i1", id)
	_, err = m.AddItem("2024-03-01", Item{Name: "read"}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"read", "write"}, itemNames(m.Planner().Items("2024-03-01")))

	require.NoError(t, m.RemoveItem("2024-03-01", "i1"))
	assert.Equal(t, []string{"read"}, itemNames(m.Planner().Items("2024-03-01")))

	require.NoError(t, log.Undo())
	assert.Equal(t, []string{"read", "write"}, itemNames(m.Planner().Items("2024-03-01")))
	assert.Equal(t, 2, log.UndoLen())
	assert.Equal(t, 1, log.RedoLen())
}

func TestManager_Errors(t *testing.T) {
	m, log := setupManager(t)

	_, err := m.AddItem("03/01/2024", Item{Name: "x"}, -1)
	assert.ErrorIs(t, err, ErrInvalidDay)
	assert.ErrorIs(t, m.RemoveItem("2024-03-01", "nope"), ErrItemNotFound)

	_, err = m.AddItem("2024-03-01", Item{ID: "fixed", Name: "x"}, -1)
	require.NoError(t, err)
	_, err = m.AddItem("2024-03-01", Item{ID: "fixed", Name: "y"}, -1)
	assert.ErrorIs(t, err, ErrDuplicateItem)
	assert.Equal(t, 1, log.UndoLen())
}

func TestManager_MoveItemAcrossDays(t *testing.T) {
	m, log := setupManager(t)
	_, err := m.AddItem("2024-03-01", Item{Name: "gym"}, -1)
	require.NoError(t, err)
	_, err = m.AddItem("2024-03-02", Item{Name: "shop"}, -1)
	require.NoError(t, err)

	require.NoError(t, m.MoveItem("2024-03-01", "i1", "2024-03-02", 0))
	assert.Empty(t, m.Planner().Items("2024-03-01"))
	assert.Equal(t, []string{"gym", "shop"}, itemNames(m.Planner().Items("2024-03-02")))
	assert.Equal(t, 3, log.UndoLen(), "a move is one edit")

	require.NoError(t, log.Undo())
	assert.Equal(t, []string{"gym"}, itemNames(m.Planner().Items("2024-03-01")))
	assert.Equal(t, []string{"shop"}, itemNames(m.Planner().Items("2024-03-02")))
	assert.Equal(t, []string{"2024-03-01", "2024-03-02"}, m.Planner().Days())
}

func TestManager_MoveItemSameDay(t *testing.T) {
	m, log := setupManager(t)
	for _, n := range []string{"a", "b", "c"} {
		_, err := m.AddItem("2024-03-01", Item{Name: n}, -1)
		require.NoError(t, err)
	}

	require.NoError(t, m.MoveItem("2024-03-01", "i1", "2024-03-01", 2))
	assert.Equal(t, []string{"b", "c", "a"}, itemNames(m.Planner().Items("2024-03-01")))

	require.NoError(t, log.Undo())
	assert.Equal(t, []string{"a", "b", "c"}, itemNames(m.Planner().Items("2024-03-01")))
}

func TestManager_MoveItemNegativeIndexAppends(t *testing.T) {
	m, log := setupManager(t)
	for _, n := range []string{"a", "b", "c"} {
		_, err := m.AddItem("2024-03-01", Item{Name: n}, -1)
		require.NoError(t, err)
	}

	require.NoError(t, m.MoveItem("2024-03-01", "i1", "2024-03-01", -1))
	assert.Equal(t, []string{"b", "c", "a"}, itemNames(m.Planner().Items("2024-03-01")))
	assert.Equal(t, 4, log.UndoLen())

	// Already last: nothing to record.
	require.NoError(t, m.MoveItem("2024-03-01", "i1", "2024-03-01", -1))
	assert.Equal(t, 4, log.UndoLen())

	require.NoError(t, log.Undo())
	assert.Equal(t, []string{"a", "b", "c"}, itemNames(m.Planner().Items("2024-03-01")))
}

func TestManager_SortDay(t *testing.T) {
	m, log := setupManager(t)
	for _, n := range []string{"pears", "apples", "figs"} {
		_, err := m.AddItem("2024-03-01", Item{Name: n}, -1)
		require.NoError(t, err)
	}

	require.NoError(t, m.SortDay("2024-03-01"))
	assert.Equal(t, []string{"apples", "figs", "pears"}, itemNames(m.Planner().Items("2024-03-01")))

	require.NoError(t, log.Undo())
	assert.Equal(t, []string{"pears", "apples", "figs"}, itemNames(m.Planner().Items("2024-03-01")))

	require.NoError(t, log.Redo())
	assert.Equal(t, []string{"apples", "figs", "pears"}, itemNames(m.Planner().Items("2024-03-01")))
}

func TestPlanner_Render(t *testing.T) {
	m, _ := setupManager(t)
	_, err := m.AddItem("2024-03-02", Item{Name: "review", TaskPath: "Work/Reports"}, -1)
	require.NoError(t, err)
	_, err = m.AddItem("2024-03-01", Item{Name: "gym"}, -1)
	require.NoError(t, err)

	want := "2024-03-01:\n  - gym\n2024-03-02:\n  - review -> Work/Reports\n"
	assert.Equal(t, want, m.Planner().Render())
}
