package harness

// TraceEvent records one executed step and the stack depths after it.
type TraceEvent struct {
	Step      int    `json:"step"`
	Op        string `json:"op"`
	Detail    string `json:"detail,omitempty"`
	Error     string `json:"error,omitempty"`
	UndoDepth int    `json:"undo_depth"`
	RedoDepth int    `json:"redo_depth"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: no unexpected step errors, no failed
	// expectations or assertions.
	Pass bool `json:"pass"`

	// Trace contains every executed step except expectations, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Tree is the final task tree rendering.
	Tree string `json:"tree"`

	// Planner is the final planner rendering.
	Planner string `json:"planner"`

	// Calendar is the final calendar rendering, empty if nothing is
	// booked.
	Calendar string `json:"calendar,omitempty"`

	// Log is the final edit log text (long form).
	Log string `json:"log"`

	// UndoDepth and RedoDepth are the final stack sizes.
	UndoDepth int `json:"undo_depth"`
	RedoDepth int `json:"redo_depth"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step to the trace.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
