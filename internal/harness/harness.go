package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/scheduler/internal/edit"
	"github.com/roach88/scheduler/internal/planner"
	"github.com/roach88/scheduler/internal/schedule"
	"github.com/roach88/scheduler/internal/store"
	"github.com/roach88/scheduler/internal/tasks"
	"github.com/roach88/scheduler/internal/testutil"
)

// Harness executes one scenario against a fresh tree, planner, calendar and
// log.
type Harness struct {
	log      *edit.Log
	tasks    *tasks.Manager
	planner  *planner.Manager
	calendar *schedule.Manager
}

// Option configures Run.
type Option func(*options)

type options struct {
	logger *slog.Logger
	clock  edit.Sequencer
	attach []func(*edit.Log) error
}

// WithLogger sets the logger handed to the edit log. Defaults to a discard
// logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithClock sets the clock that stamps event seqs. Defaults to a fresh
// edit.Clock starting at 0.
func WithClock(clock edit.Sequencer) Option {
	return func(o *options) { o.clock = clock }
}

// WithAttach calls fn with the scenario's log before the first step, e.g.
// to subscribe a journal recorder or a metrics collector.
func WithAttach(fn func(*edit.Log) error) Option {
	return func(o *options) { o.attach = append(o.attach, fn) }
}

// Run executes a scenario and returns the result.
//
// Each scenario runs with an in-memory journal for isolation, a
// deterministic clock and sequential record, item and block IDs ("edit-N",
// "item-N", "block-N"), so traces are reproducible.
//
// Execution flow:
// 1. Create fresh in-memory journal and log
// 2. Execute steps, checking expectations as they come
// 3. Evaluate assertions against the trace, journal and final state
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	o := options{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		clock:  edit.NewClock(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	log := edit.New(
		edit.WithMaxDepth(scenario.MaxDepth),
		edit.WithLogger(o.logger),
		edit.WithIDGenerator(testutil.NewSequentialGenerator("edit")),
		edit.WithClock(o.clock),
	)

	recorder := store.NewRecorder(st, scenario.Name)
	if err := recorder.Attach(ctx, log, scenario.Description); err != nil {
		return nil, fmt.Errorf("failed to attach journal: %w", err)
	}
	for _, fn := range o.attach {
		if err := fn(log); err != nil {
			return nil, fmt.Errorf("failed to attach subscriber: %w", err)
		}
	}

	h := &Harness{
		log:      log,
		tasks:    tasks.NewManager(tasks.NewTree(), log),
		planner:  planner.NewManager(planner.New(), log, testutil.NewSequentialGenerator("item")),
		calendar: schedule.NewManager(schedule.New(), log, testutil.NewSequentialGenerator("block")),
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		h.executeStep(i, step, result)
	}
	if err := recorder.Err(); err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}

	result.Tree = h.tasks.Tree().Render()
	result.Planner = h.planner.Planner().Render()
	result.Calendar = h.calendar.Calendar().Render()
	result.Log = log.Text(true)
	result.UndoDepth = log.UndoLen()
	result.RedoDepth = log.RedoLen()

	actx := &AssertionContext{
		Store:   st,
		Ctx:     ctx,
		Session: scenario.Name,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// executeStep runs one step and records its outcome.
func (h *Harness) executeStep(i int, step Step, result *Result) {
	if step.Op == OpExpect {
		for _, msg := range h.checkExpect(step) {
			result.AddError(fmt.Sprintf("steps[%d] expect: %s", i, msg))
		}
		return
	}

	detail, err := h.apply(step)

	ev := TraceEvent{
		Step:      i,
		Op:        step.Op,
		Detail:    detail,
		UndoDepth: h.log.UndoLen(),
		RedoDepth: h.log.RedoLen(),
	}
	switch {
	case err != nil && step.Error != "" && strings.Contains(err.Error(), step.Error):
		ev.Error = err.Error()
	case err != nil:
		ev.Error = err.Error()
		result.AddError(fmt.Sprintf("steps[%d] %s: %v", i, step.Op, err))
	case step.Error != "":
		result.AddError(fmt.Sprintf("steps[%d] %s: expected error containing %q, got none", i, step.Op, step.Error))
	}
	result.AddTrace(ev)
}

// apply performs a step and returns a short description of what it did.
func (h *Harness) apply(step Step) (string, error) {
	switch step.Op {
	case OpUndo:
		return h.repeat(step.Count, h.undoOnce)
	case OpRedo:
		return h.repeat(step.Count, h.redoOnce)
	case OpClear:
		h.log.Clear()
		return "", nil
	}

	before := h.log.Latest()
	if err := h.mutate(step); err != nil {
		return "", err
	}
	after := h.log.Latest()
	if after == nil || after == before {
		return "(no change)", nil
	}
	return describe(after), nil
}

// mutate dispatches a tree, planner or calendar operation.
func (h *Harness) mutate(step Step) error {
	switch step.Op {
	case OpAdd:
		return h.tasks.AddTask(step.Parent, step.Name)
	case OpRemove:
		return h.tasks.RemoveTask(step.Path)
	case OpRename:
		return h.tasks.RenameTask(step.Path, step.Name)
	case OpStatus:
		status, err := tasks.ParseStatus(step.Status)
		if err != nil {
			return err
		}
		return h.tasks.SetStatus(step.Path, status)
	case OpInfo:
		imp := tasks.ImportanceNone
		if step.Importance != "" && step.Importance != "none" {
			var err error
			if imp, err = tasks.ParseImportance(step.Importance); err != nil {
				return err
			}
		}
		return h.tasks.UpdateInfo(step.Path, tasks.Info{Importance: imp, Notes: step.Notes})
	case OpMove:
		return h.tasks.MoveTask(step.Path, step.Parent, indexOr(step.Index, 0))
	case OpComplete:
		return h.tasks.CompleteSubtree(step.Path)
	case OpPlan:
		item := planner.Item{ID: step.ID, Name: step.Name, TaskPath: step.Task}
		_, err := h.planner.AddItem(step.Day, item, indexOr(step.Index, -1))
		return err
	case OpUnplan:
		return h.planner.RemoveItem(step.Day, step.ID)
	case OpReschedule:
		return h.planner.MoveItem(step.Day, step.ID, step.To, indexOr(step.Index, -1))
	case OpSort:
		return h.planner.SortDay(step.Day)
	case OpBook:
		return h.book(step)
	case OpCancel:
		return h.calendar.RemoveItem(step.ID)
	case OpRetime:
		ch, err := retime(step)
		if err != nil {
			return err
		}
		return h.calendar.ModifyItem(step.ID, ch)
	case OpShift:
		return h.calendar.ShiftDay(step.Day, schedule.Minute(step.Minutes))
	case OpMark:
		status, err := tasks.ParseStatus(step.Status)
		if err != nil {
			return err
		}
		return h.calendar.SetStatus(step.ID, status)
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
}

func (h *Harness) book(step Step) error {
	start, err := schedule.ParseMinute(step.Start)
	if err != nil {
		return err
	}
	end, err := schedule.ParseMinute(step.End)
	if err != nil {
		return err
	}
	_, err = h.calendar.AddItem(schedule.Item{
		ID:       step.ID,
		Name:     step.Name,
		Day:      step.Day,
		Start:    start,
		End:      end,
		Category: step.Category,
		TaskPath: step.Task,
		Status:   tasks.Status(step.Status),
	})
	return err
}

// retime turns the set fields of a retime step into a change.
func retime(step Step) (schedule.Change, error) {
	ch := schedule.Change{
		Name:     optional(step.Name),
		Day:      optional(step.Day),
		Category: optional(step.Category),
		TaskPath: optional(step.Task),
	}
	if step.Start != "" {
		m, err := schedule.ParseMinute(step.Start)
		if err != nil {
			return ch, err
		}
		ch.Start = &m
	}
	if step.End != "" {
		m, err := schedule.ParseMinute(step.End)
		if err != nil {
			return ch, err
		}
		ch.End = &m
	}
	return ch, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (h *Harness) undoOnce() (string, error) {
	rec := h.log.Latest()
	if rec == nil {
		return "(nothing to undo)", nil
	}
	return describe(rec), h.log.Undo()
}

func (h *Harness) redoOnce() (string, error) {
	undone := h.log.UndoneRecords()
	if len(undone) == 0 {
		return "(nothing to redo)", nil
	}
	return describe(undone[len(undone)-1]), h.log.Redo()
}

// repeat runs fn count times (at least once), joining the details.
func (h *Harness) repeat(count int, fn func() (string, error)) (string, error) {
	var details []string
	for range max(count, 1) {
		d, err := fn()
		details = append(details, d)
		if err != nil {
			return strings.Join(details, ", "), err
		}
	}
	return strings.Join(details, ", "), nil
}

// checkExpect compares the current session against an expect step.
func (h *Harness) checkExpect(step Step) []string {
	var msgs []string
	if step.UndoDepth != nil && *step.UndoDepth != h.log.UndoLen() {
		msgs = append(msgs, fmt.Sprintf("undo_depth = %d, want %d", h.log.UndoLen(), *step.UndoDepth))
	}
	if step.RedoDepth != nil && *step.RedoDepth != h.log.RedoLen() {
		msgs = append(msgs, fmt.Sprintf("redo_depth = %d, want %d", h.log.RedoLen(), *step.RedoDepth))
	}
	if step.CanUndo != nil && *step.CanUndo != h.log.CanUndo() {
		msgs = append(msgs, fmt.Sprintf("can_undo = %t, want %t", h.log.CanUndo(), *step.CanUndo))
	}
	if step.CanRedo != nil && *step.CanRedo != h.log.CanRedo() {
		msgs = append(msgs, fmt.Sprintf("can_redo = %t, want %t", h.log.CanRedo(), *step.CanRedo))
	}
	if step.Tree != nil {
		if msg, ok := sameText("tree", h.tasks.Tree().Render(), *step.Tree); !ok {
			msgs = append(msgs, msg)
		}
	}
	if step.Planner != nil {
		if msg, ok := sameText("planner", h.planner.Planner().Render(), *step.Planner); !ok {
			msgs = append(msgs, msg)
		}
	}
	if step.Calendar != nil {
		if msg, ok := sameText("calendar", h.calendar.Calendar().Render(), *step.Calendar); !ok {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

// sameText compares renderings, ignoring trailing newlines.
func sameText(what, got, want string) (string, bool) {
	g := strings.TrimRight(got, "\n")
	w := strings.TrimRight(want, "\n")
	if g == w {
		return "", true
	}
	return fmt.Sprintf("%s mismatch\n--- want\n%s\n--- got\n%s", what, w, g), false
}

func describe(rec *edit.Record) string {
	if d := rec.Description(); d != "" {
		return d
	}
	return rec.Name()
}

func indexOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
