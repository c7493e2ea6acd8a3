package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted editing session.
// Steps drive the task tree, planner and calendar through the edit log, interleaved
// with undo/redo and expectations. Assertions check the finished session.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file
	// and the journal session.
	Name string `yaml:"name"`

	// Description explains what this scenario exercises.
	Description string `yaml:"description,omitempty"`

	// MaxDepth bounds the undo history. 0 keeps everything.
	MaxDepth int `yaml:"max_depth,omitempty"`

	// Steps run in order against a fresh tree, planner, calendar and log.
	Steps []Step `yaml:"steps"`

	// Assertions validate the trace, the journal and the final state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one scripted operation. Op selects which of the other fields are
// read; the schema rejects fields that do not belong to the op.
type Step struct {
	Op string `yaml:"op"`

	// Task fields.
	Path       string `yaml:"path,omitempty"`
	Parent     string `yaml:"parent,omitempty"`
	Name       string `yaml:"name,omitempty"`
	Status     string `yaml:"status,omitempty"`
	Importance string `yaml:"importance,omitempty"`
	Notes      string `yaml:"notes,omitempty"`

	// Planner fields.
	Day  string `yaml:"day,omitempty"`
	To   string `yaml:"to,omitempty"`
	ID   string `yaml:"id,omitempty"`
	Task string `yaml:"task,omitempty"`

	// Calendar fields. Times are "15:04"; Minutes shifts a whole day.
	Start    string `yaml:"start,omitempty"`
	End      string `yaml:"end,omitempty"`
	Category string `yaml:"category,omitempty"`
	Minutes  int    `yaml:"minutes,omitempty"`

	// Index positions a task or item. Omitted means 0 for tasks and append
	// for planned items.
	Index *int `yaml:"index,omitempty"`

	// Count repeats undo/redo. Omitted means 1.
	Count int `yaml:"count,omitempty"`

	// Error, when set, expects the step to fail with a message containing
	// this text. The failure is then part of the script, not a test error.
	Error string `yaml:"error,omitempty"`

	// Expectation fields (op: expect).
	UndoDepth *int    `yaml:"undo_depth,omitempty"`
	RedoDepth *int    `yaml:"redo_depth,omitempty"`
	CanUndo   *bool   `yaml:"can_undo,omitempty"`
	CanRedo   *bool   `yaml:"can_redo,omitempty"`
	Tree      *string `yaml:"tree,omitempty"`
	Planner   *string `yaml:"planner,omitempty"`
	Calendar  *string `yaml:"calendar,omitempty"`
}

// Step ops.
const (
	OpAdd        = "add"
	OpRemove     = "remove"
	OpRename     = "rename"
	OpStatus     = "status"
	OpInfo       = "info"
	OpMove       = "move"
	OpComplete   = "complete"
	OpPlan       = "plan"
	OpUnplan     = "unplan"
	OpReschedule = "reschedule"
	OpSort       = "sort"
	OpBook       = "book"
	OpCancel     = "cancel"
	OpRetime     = "retime"
	OpShift      = "shift"
	OpMark       = "mark"
	OpUndo       = "undo"
	OpRedo       = "redo"
	OpClear      = "clear"
	OpExpect     = "expect"
)

// Assertion validates the finished session.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": a step with op (and detail substring) ran
	// - "trace_order": ops appear in order
	// - "trace_count": op appears exactly count times
	// - "journal_count": the journal holds count events of a type
	// - "final_state": tree/planner/calendar renderings and stack depths
	Type string `yaml:"type"`

	Op     string   `yaml:"op,omitempty"`
	Ops    []string `yaml:"ops,omitempty"`
	Detail string   `yaml:"detail,omitempty"`
	Event  string   `yaml:"event,omitempty"`
	Count  int      `yaml:"count,omitempty"`

	Tree      *string `yaml:"tree,omitempty"`
	Planner   *string `yaml:"planner,omitempty"`
	Calendar  *string `yaml:"calendar,omitempty"`
	UndoDepth *int    `yaml:"undo_depth,omitempty"`
	RedoDepth *int    `yaml:"redo_depth,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertJournalCount  = "journal_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, does not match
// the scenario schema, or contains unknown fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML. The document is checked against the
// embedded CUE schema before it is decoded.
func ParseScenario(data []byte) (*Scenario, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := checkSchema(doc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	// Strict decoding catches anything the schema let through as open.
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to decode scenario: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks what the schema cannot express.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Op == OpExpect && step.UndoDepth == nil && step.RedoDepth == nil &&
			step.CanUndo == nil && step.CanRedo == nil && step.Tree == nil && step.Planner == nil &&
			step.Calendar == nil {
			return fmt.Errorf("steps[%d]: expect needs at least one field", i)
		}
		if step.Op == OpReschedule && step.To == "" {
			return fmt.Errorf("steps[%d]: reschedule requires to", i)
		}
		if step.Op == OpRetime && step.Day == "" && step.Start == "" && step.End == "" &&
			step.Name == "" && step.Category == "" && step.Task == "" {
			return fmt.Errorf("steps[%d]: retime needs at least one field", i)
		}
	}

	for i, a := range s.Assertions {
		if a.Type == AssertFinalState && a.Tree == nil && a.Planner == nil && a.Calendar == nil &&
			a.UndoDepth == nil && a.RedoDepth == nil {
			return fmt.Errorf("assertions[%d]: final_state needs at least one field", i)
		}
	}
	return nil
}
