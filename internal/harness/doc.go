// Package harness replays scripted editing sessions against the task tree,
// planner and calendar and checks the outcome.
//
// # Scenario Format
//
// Scenarios are YAML files validated by an embedded CUE schema:
//
//	name: weekly_plan
//	description: "Plan a chore and take it back"
//	max_depth: 0
//	steps:
//	  - op: add
//	    name: Home
//	  - op: plan
//	    day: "2024-03-04"
//	    name: Laundry
//	  - op: undo
//	  - op: expect
//	    undo_depth: 1
//	    redo_depth: 1
//	  - op: status
//	    path: Missing
//	    status: complete
//	    error: not found
//	assertions:
//	  - type: journal_count
//	    event: undone
//	    count: 1
//
// Step ops: add, remove, rename, status, info, move, complete (tasks);
// plan, unplan, reschedule, sort (planner); book, cancel, retime, shift,
// mark (calendar, times as "15:04"); undo, redo, clear (history);
// expect (mid-session checks). A step with error set must fail with a
// message containing that text.
//
// # Assertion Types
//
//   - trace_contains: a step with the op (and detail substring) ran
//   - trace_order: ops appear in the given order
//   - trace_count: an op ran exactly N times
//   - journal_count: the session journal holds N events of a type
//   - final_state: tree/planner/calendar renderings and stack depths at the end
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory journal, a fresh edit.Clock
// for event seq numbers and sequential IDs ("edit-N" for records, "item-N"
// for planned items, "block-N" for calendar items), so the same scenario always produces the same trace
// and golden snapshot.
package harness
