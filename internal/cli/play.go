package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/scheduler/internal/edit"
	"github.com/roach88/scheduler/internal/harness"
	"github.com/roach88/scheduler/internal/store"
	"github.com/roach88/scheduler/internal/telemetry"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	Database string // journal path; defaults to journal.path from config
	Session  string // journal session id; generated when empty
	Metrics  bool   // include edit log metrics in the output
}

// PlayResult is the outcome of one played scenario.
type PlayResult struct {
	Scenario string               `json:"scenario"`
	Pass     bool                 `json:"pass"`
	Session  string               `json:"session,omitempty"`
	Trace    []harness.TraceEvent `json:"trace"`
	Errors   []string             `json:"errors,omitempty"`
	Tree     string               `json:"tree"`
	Planner  string               `json:"planner"`
	Calendar string               `json:"calendar,omitempty"`
	Log      string               `json:"log"`
	Metrics  map[string]float64   `json:"metrics,omitempty"`
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play <scenario.yaml>",
		Short: "Play a scripted editing session",
		Long: `Play a scenario script against a fresh task tree and planner.

Prints every step with the undo/redo depths after it, then the final
tree, planner and edit log. With --db (or journal.path in the config
file) every edit event is journaled to SQLite under a session id.

Exit codes:
  0 - Scenario passed
  1 - A step, expectation or assertion failed
  2 - Command error (unreadable scenario, journal failure, etc.)

Examples:
  scheduler play week.yaml
  scheduler play week.yaml --db journal.db --session monday
  scheduler play week.yaml --metrics --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "journal database path")
	cmd.Flags().StringVar(&opts.Session, "session", "", "journal session id (default: <scenario>-<uuid>)")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "report edit log metrics")

	return cmd
}

func runPlay(opts *PlayOptions, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := opts.formatter(cmd)

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeLoadFailed, err.Error(), map[string]string{"file": path})
	}
	if scenario.MaxDepth == 0 {
		scenario.MaxDepth = opts.Config.History.MaxDepth
	}
	formatter.VerboseLog("Playing %s (%d steps)", scenario.Name, len(scenario.Steps))

	runOpts := []harness.Option{harness.WithLogger(slog.Default())}

	dbPath := opts.Database
	if dbPath == "" {
		dbPath = opts.Config.Journal.Path
	}
	var recorder *store.Recorder
	session := ""
	if dbPath != "" {
		st, err := store.Open(dbPath)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeJournal, fmt.Sprintf("failed to open journal: %v", err), nil)
		}
		defer st.Close()

		session = opts.Session
		if session == "" {
			session = scenario.Name + "-" + edit.UUIDv7Generator{}.Generate()
		}
		last, err := st.LastSeq(ctx, session)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeJournal, fmt.Sprintf("failed to read journal: %v", err), nil)
		}
		if last > 0 {
			formatter.VerboseLog("Resuming session %s after seq %d", session, last)
			runOpts = append(runOpts, harness.WithClock(edit.NewClockAt(last)))
		}

		recorder = store.NewRecorder(st, session)
		runOpts = append(runOpts, harness.WithAttach(func(l *edit.Log) error {
			return recorder.Attach(ctx, l, scenario.Description)
		}))
		formatter.VerboseLog("Journaling to %s as session %s", dbPath, session)
	}

	var reg *prometheus.Registry
	if opts.Metrics {
		reg = prometheus.NewRegistry()
		collector := telemetry.New(reg)
		runOpts = append(runOpts, harness.WithAttach(collector.Attach))
	}

	result, err := harness.Run(ctx, scenario, runOpts...)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeRunFailed, err.Error(), nil)
	}
	if recorder != nil {
		if err := recorder.Err(); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeJournal, fmt.Sprintf("journal write failed: %v", err), nil)
		}
		formatter.VerboseLog("Journaled %d events", recorder.Written())
	}

	out := PlayResult{
		Scenario: scenario.Name,
		Pass:     result.Pass,
		Session:  session,
		Trace:    result.Trace,
		Errors:   result.Errors,
		Tree:     result.Tree,
		Planner:  result.Planner,
		Calendar: result.Calendar,
		Log:      result.Log,
	}
	if reg != nil {
		if out.Metrics, err = gatherMetrics(reg); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("gather metrics: %v", err), nil)
		}
	}

	resp := CLIResponse{Status: playStatus(out.Pass), Data: out}
	if err := formatter.Report(resp, func(w io.Writer) { writePlayText(w, out) }); err != nil {
		return err
	}

	if !out.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return nil
}

// gatherMetrics flattens the registry into "name{label=value}" keys.
// Histograms contribute their sample count under "name_count{...}".
func gatherMetrics(reg *prometheus.Registry) (map[string]float64, error) {
	families, err := reg.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := ""
			if pairs := m.GetLabel(); len(pairs) > 0 {
				parts := make([]string, 0, len(pairs))
				for _, lp := range pairs {
					parts = append(parts, lp.GetName()+"="+lp.GetValue())
				}
				labels = "{" + strings.Join(parts, ",") + "}"
			}
			switch {
			case m.GetCounter() != nil:
				out[mf.GetName()+labels] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[mf.GetName()+labels] = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				out[mf.GetName()+"_count"+labels] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out, nil
}

// writePlayText renders a play result for humans.
func writePlayText(w io.Writer, r PlayResult) {
	fmt.Fprintf(w, "=== %s ===\n", r.Scenario)
	if r.Session != "" {
		fmt.Fprintf(w, "Session: %s\n", r.Session)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Steps ===")
	for _, ev := range r.Trace {
		fmt.Fprintf(w, "  [%d] %-10s undo=%d redo=%d", ev.Step, ev.Op, ev.UndoDepth, ev.RedoDepth)
		if ev.Detail != "" {
			fmt.Fprintf(w, "  %s", ev.Detail)
		}
		fmt.Fprintln(w)
		if ev.Error != "" {
			fmt.Fprintf(w, "       error: %s\n", ev.Error)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Tree ===")
	writeBlock(w, r.Tree)
	fmt.Fprintln(w, "=== Planner ===")
	writeBlock(w, r.Planner)
	if r.Calendar != "" {
		fmt.Fprintln(w, "=== Calendar ===")
		writeBlock(w, r.Calendar)
	}
	fmt.Fprint(w, r.Log)
	fmt.Fprintln(w)

	if len(r.Metrics) > 0 {
		fmt.Fprintln(w, "=== Metrics ===")
		keys := make([]string, 0, len(r.Metrics))
		for k := range r.Metrics {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %s %g\n", k, r.Metrics[k])
		}
		fmt.Fprintln(w)
	}

	if r.Pass {
		fmt.Fprintln(w, "✓ Scenario passed")
		return
	}
	fmt.Fprintln(w, "✗ Scenario failed")
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

func writeBlock(w io.Writer, text string) {
	if text == "" {
		fmt.Fprintln(w, "  (empty)")
	} else {
		fmt.Fprint(w, text)
	}
	fmt.Fprintln(w)
}

func playStatus(pass bool) string {
	if pass {
		return "ok"
	}
	return "error"
}
