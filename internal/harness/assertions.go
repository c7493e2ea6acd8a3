package harness

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/scheduler/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s\n", event.Step, event.Op, event.Detail)
		}
	}

	return buf.String()
}

// assertTraceContains checks that a step with the op ran, and when detail
// is set, that its detail contains it.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Op == assertion.Op && strings.Contains(event.Detail, assertion.Detail) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("op %s with detail %q", assertion.Op, assertion.Detail),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if ops appear in the specified order.
// Ops don't need to be consecutive, and each expected op is matched after
// the previous match, so repeated ops ("undo", "undo") are allowed.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	pos := 0
	for _, want := range assertion.Ops {
		found := false
		for pos < len(trace) {
			op := trace[pos].Op
			pos++
			if op == want {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("ops in order: %v", assertion.Ops),
				Actual:   fmt.Sprintf("missing %s after position %d", want, pos),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks if the op appears exactly the specified number of times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Op == assertion.Op {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Op),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertJournalCount counts journaled events of one type for the session.
// Values are always bound as parameters.
func assertJournalCount(ctx context.Context, st *store.Store, session string, assertion Assertion) error {
	rows, err := st.Query(ctx,
		"SELECT COUNT(*) FROM edit_events WHERE session_id = ? AND event = ?",
		session, assertion.Event)
	if err != nil {
		return &AssertionError{
			Type:     AssertJournalCount,
			Expected: fmt.Sprintf("query journal for %s events", assertion.Event),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	defer rows.Close()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return fmt.Errorf("scan journal count: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate journal count: %w", err)
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertJournalCount,
			Expected: fmt.Sprintf("%d %s events", assertion.Count, assertion.Event),
			Actual:   fmt.Sprintf("%d events", count),
		}
	}
	return nil
}

// assertFinalState compares the renderings and depths of the finished
// session.
func assertFinalState(result *Result, assertion Assertion) error {
	var diffs []string
	if assertion.Tree != nil {
		if msg, ok := sameText("tree", result.Tree, *assertion.Tree); !ok {
			diffs = append(diffs, msg)
		}
	}
	if assertion.Planner != nil {
		if msg, ok := sameText("planner", result.Planner, *assertion.Planner); !ok {
			diffs = append(diffs, msg)
		}
	}
	if assertion.Calendar != nil {
		if msg, ok := sameText("calendar", result.Calendar, *assertion.Calendar); !ok {
			diffs = append(diffs, msg)
		}
	}
	if assertion.UndoDepth != nil && *assertion.UndoDepth != result.UndoDepth {
		diffs = append(diffs, fmt.Sprintf("undo_depth = %d, want %d", result.UndoDepth, *assertion.UndoDepth))
	}
	if assertion.RedoDepth != nil && *assertion.RedoDepth != result.RedoDepth {
		diffs = append(diffs, fmt.Sprintf("redo_depth = %d, want %d", result.RedoDepth, *assertion.RedoDepth))
	}

	if len(diffs) > 0 {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: "final state to match",
			Actual:   strings.Join(diffs, "; "),
		}
	}
	return nil
}

// AssertionContext provides journal access for journal_count assertions.
type AssertionContext struct {
	Store   *store.Store
	Ctx     context.Context
	Session string
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertJournalCount:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: journal_count requires a journal", i)
			} else {
				err = assertJournalCount(actx.Ctx, actx.Store, actx.Session, assertion)
			}
		case AssertFinalState:
			err = assertFinalState(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
