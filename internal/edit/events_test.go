package edit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribe_ReceivesEventsInOrder(t *testing.T) {
	l := setupLog(t)
	c := &counter{}

	var got []EventType
	var depths [][2]int
	require.NoError(t, l.Subscribe("watcher", func(ev Event) {
		got = append(got, ev.Type)
		depths = append(depths, [2]int{ev.UndoDepth, ev.RedoDepth})
	}))

	setCounter(t, l, c, 1)
	require.NoError(t, l.Undo())
	require.NoError(t, l.Redo())
	tx := l.Begin("noop", Action{Name: "set", Fn: c.set, Args: NewArgs(2)})
	tx.Discard()
	l.Clear()

	assert.Equal(t, []EventType{EventCommitted, EventUndone, EventRedone, EventDiscarded, EventCleared}, got)
	assert.Equal(t, [][2]int{{1, 0}, {0, 1}, {1, 0}, {1, 0}, {0, 0}}, depths)
}

func TestSubscribe_DuplicateID(t *testing.T) {
	l := setupLog(t)
	require.NoError(t, l.Subscribe("a", func(Event) {}))

	err := l.Subscribe("a", func(Event) {})
	assert.True(t, HasCode(err, ErrCodeDuplicateSubscriber))

	l.Unsubscribe("a")
	assert.NoError(t, l.Subscribe("a", func(Event) {}))
}

func TestSubscribe_PanicIsContained(t *testing.T) {
	l := setupLog(t)
	c := &counter{}

	var after int
	require.NoError(t, l.Subscribe("bad", func(Event) { panic("subscriber bug") }))
	require.NoError(t, l.Subscribe("good", func(Event) { after++ }))

	setCounter(t, l, c, 1)
	assert.Equal(t, 1, after)
	assert.Equal(t, 1, l.UndoLen())
}

func TestSubscribe_SeqMatchesRecord(t *testing.T) {
	l := setupLog(t)
	c := &counter{}

	var seqs []int64
	require.NoError(t, l.Subscribe("seq", func(ev Event) { seqs = append(seqs, ev.Seq) }))

	setCounter(t, l, c, 1)
	require.NoError(t, l.Undo())

	require.Len(t, seqs, 2)
	assert.Equal(t, l.UndoneRecords()[0].Seq(), seqs[0])
	assert.Greater(t, seqs[1], seqs[0])
}

func TestSubscribe_PreChangeEvents(t *testing.T) {
	l := setupLog(t)
	c := &counter{}

	type seen struct {
		typ   EventType
		value int
		seq   int64
		undo  int
	}
	var got []seen
	record := func(ev Event) {
		got = append(got, seen{ev.Type, c.value, ev.Seq, ev.UndoDepth})
	}
	require.NoError(t, l.Subscribe("before", record, ForEvents(EventRunning, EventUndoing, EventRedoing)))

	var defaults []EventType
	require.NoError(t, l.Subscribe("after", func(ev Event) { defaults = append(defaults, ev.Type) }))

	setCounter(t, l, c, 3)
	require.NoError(t, l.Undo())
	require.NoError(t, l.Redo())

	assert.Equal(t, []seen{
		{EventRunning, 0, 0, 0},
		{EventUndoing, 3, 0, 1},
		{EventRedoing, 0, 0, 0},
	}, got, "pre-change events see the state before the change")
	assert.Equal(t, []EventType{EventCommitted, EventUndone, EventRedone}, defaults)
}

func TestSubscribe_PreChangeEventsDoNotAdvanceSeq(t *testing.T) {
	l := New(WithLogger(discardLogger()), WithClock(NewClockAt(10)))
	c := &counter{}

	var seqs []int64
	require.NoError(t, l.Subscribe("pre", func(Event) {}, ForEvents(EventRunning, EventUndoing)))
	require.NoError(t, l.Subscribe("post", func(ev Event) { seqs = append(seqs, ev.Seq) }))

	setCounter(t, l, c, 1)
	require.NoError(t, l.Undo())
	assert.Equal(t, []int64{11, 12}, seqs)
}

func TestSubscribe_ForEditsFiltersByName(t *testing.T) {
	l := setupLog(t)
	c := &counter{}
	set := registerSet(l, c)

	var names []string
	var types []EventType
	require.NoError(t, l.Subscribe("sets", func(ev Event) {
		names = append(names, ev.Record.Name())
		types = append(types, ev.Type)
	}, ForEdits(set.Name()), ForEvents(EventUndoing, EventCommitted)))

	require.NoError(t, set.Call(NewArgs(1)))
	tx := l.Begin("reset", Action{Name: "set", Fn: c.set, Args: NewArgs(0)})
	require.NoError(t, tx.Run())
	require.NoError(t, tx.Commit(Action{Name: "set", Fn: c.set, Args: NewArgs(1)}))
	require.NoError(t, l.Undo())
	require.NoError(t, l.Undo())
	l.Clear()

	assert.Equal(t, []string{set.Name(), set.Name()}, names)
	assert.Equal(t, []EventType{EventCommitted, EventUndoing}, types)
}
