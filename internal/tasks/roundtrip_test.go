package tasks

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestManager_UndoRedoRoundTrip plays random edit sequences and checks that
// every undo restores the previous committed tree and every redo the next.
func TestManager_UndoRedoRoundTrip(t *testing.T) {
	for seed := uint64(1); seed <= 40; seed++ {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			rng := rand.New(rand.NewPCG(seed, 0))
			m, log := setupManager(t)

			states := []string{m.Tree().Render()}
			for range 25 {
				before := log.UndoLen()
				randomTaskEdit(rng, m)
				if log.UndoLen() > before {
					states = append(states, m.Tree().Render())
				}
			}
			n := len(states) - 1
			require.Equal(t, n, log.UndoLen())

			// K undos then K redos lands back on the final state.
			k := rng.IntN(n + 1)
			for range k {
				require.NoError(t, log.Undo())
			}
			require.Equal(t, states[n-k], m.Tree().Render())
			for range k {
				require.NoError(t, log.Redo())
			}
			require.Equal(t, states[n], m.Tree().Render())

			for i := n; i > 0; i-- {
				require.NoError(t, log.Undo())
				require.Equal(t, states[i-1], m.Tree().Render(), "after undo of edit %d", i)
			}
			require.False(t, log.CanUndo())
			for i := 1; i <= n; i++ {
				require.NoError(t, log.Redo())
				require.Equal(t, states[i], m.Tree().Render(), "after redo of edit %d", i)
			}
		})
	}
}

func randomTaskEdit(rng *rand.Rand, m *Manager) {
	var paths []string
	for _, r := range m.Tree().Roots() {
		r.walk(func(t *Task) { paths = append(paths, t.Path()) })
	}
	pick := func() string {
		if len(paths) == 0 {
			return ""
		}
		return paths[rng.IntN(len(paths))]
	}
	pickParent := func() string {
		if rng.IntN(3) == 0 {
			return ""
		}
		return pick()
	}
	names := []string{"alpha", "beta", "gamma", "delta"}
	statuses := []Status{StatusUnstarted, StatusInProgress, StatusComplete}
	importances := []Importance{ImportanceNone, ImportanceMinor, ImportanceMajor}

	// Rejected edits are expected; only committed ones matter here.
	switch rng.IntN(7) {
	case 0, 1:
		_ = m.AddTask(pickParent(), names[rng.IntN(len(names))])
	case 2:
		_ = m.RemoveTask(pick())
	case 3:
		_ = m.RenameTask(pick(), names[rng.IntN(len(names))])
	case 4:
		_ = m.SetStatus(pick(), statuses[rng.IntN(len(statuses))])
	case 5:
		_ = m.UpdateInfo(pick(), Info{Importance: importances[rng.IntN(len(importances))]})
	case 6:
		if rng.IntN(2) == 0 {
			_ = m.MoveTask(pick(), pickParent(), rng.IntN(3))
		} else {
			_ = m.CompleteSubtree(pick())
		}
	}
}
