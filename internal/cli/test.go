package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"github.com/roach88/scheduler/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update    bool   // regenerate golden files
	Filter    string // scenario filter (glob pattern)
	GoldenDir string // golden directory; defaults to <scenario dir>/golden
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios>",
		Short: "Run scenarios against golden snapshots",
		Long: `Run every scenario in a file or directory.

A scenario passes when all its steps, expectations and assertions hold
and, if a golden snapshot exists for it, the snapshot matches. Golden
files are named <scenario name>.golden.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  scheduler test ./scenarios
  scheduler test ./scenarios --filter "weekly*"
  scheduler test ./scenarios --update
  scheduler test ./scenarios --golden ./testdata/golden --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden", "", "golden file directory (default: <scenario dir>/golden)")

	return cmd
}

func runTests(opts *TestOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	loaded, errs := LoadScenarios(path, opts.Filter)
	if loaded == nil && len(errs) == 1 {
		var le *LoadError
		if errors.As(errs[0], &le) && le.Code != ErrCodeLoadFailed {
			if le.Code == ErrCodeNoFiles {
				resp := CLIResponse{Status: "ok", Data: TestResult{Scenarios: []ScenarioResult{}}}
				return formatter.Report(resp, func(w io.Writer) { fmt.Fprintln(w, "No scenarios found.") })
			}
			return formatter.Fail(ExitCommandError, le.Code, le.Message, nil)
		}
	}

	result := TestResult{Scenarios: make([]ScenarioResult, 0, len(loaded)+len(errs))}
	for _, err := range errs {
		sr := ScenarioResult{Pass: false, Errors: []string{err.Error()}}
		var le *LoadError
		if errors.As(err, &le) {
			sr.File = le.File
			sr.Name = filepath.Base(le.File)
		}
		result.add(sr)
	}
	for _, ls := range loaded {
		sr := runScenario(opts, ls, cmd)
		result.add(sr)
	}

	resp := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		resp.Status = "error"
		resp.Error = &CLIError{
			Code:    ErrCodeScenarioFail,
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}
	if err := formatter.Report(resp, func(w io.Writer) { writeTestText(w, result) }); err != nil {
		return err
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

func writeTestText(w io.Writer, result TestResult) {
	for _, sr := range result.Scenarios {
		writeScenarioText(w, sr)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if result.Failed == 0 {
		fmt.Fprintln(w, "✓ All scenarios passed")
	}
}

func (r *TestResult) add(sr ScenarioResult) {
	r.Scenarios = append(r.Scenarios, sr)
	r.Total++
	if sr.Pass {
		r.Passed++
	} else {
		r.Failed++
	}
}

// runScenario executes one scenario and checks or updates its golden file.
func runScenario(opts *TestOptions, ls LoadedScenario, cmd *cobra.Command) ScenarioResult {
	sc := ls.Scenario
	sr := ScenarioResult{Name: sc.Name, File: ls.File}

	if sc.MaxDepth == 0 {
		sc.MaxDepth = opts.Config.History.MaxDepth
	}
	result, err := harness.Run(cmd.Context(), sc)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return sr
	}
	sr.Errors = result.Errors

	data, err := harness.MarshalSnapshot(harness.Snapshot(sc.Name, result))
	if err != nil {
		sr.Errors = append(sr.Errors, fmt.Sprintf("marshal snapshot: %v", err))
		return sr
	}

	goldenPath := opts.goldenPath(ls.File, sc.Name)
	if opts.Update {
		if err := writeGolden(goldenPath, data); err != nil {
			sr.Errors = append(sr.Errors, err.Error())
			return sr
		}
		opts.formatter(cmd).VerboseLog("Updated %s", goldenPath)
		sr.Pass = result.Pass
		return sr
	}

	want, err := os.ReadFile(goldenPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// No golden file: assertions decide alone.
	case err != nil:
		sr.Errors = append(sr.Errors, fmt.Sprintf("failed to read golden file: %v", err))
		return sr
	case !bytes.Equal(want, data):
		msg := "snapshot does not match golden file (run with --update to regenerate)"
		if opts.Verbose {
			msg += "\n" + goldenDiff(goldenPath, want, data)
		}
		sr.Errors = append(sr.Errors, msg)
		return sr
	}

	sr.Pass = result.Pass
	return sr
}

func (o *TestOptions) goldenPath(scenarioFile, name string) string {
	dir := o.GoldenDir
	if dir == "" {
		dir = filepath.Join(filepath.Dir(scenarioFile), "golden")
	}
	return filepath.Join(dir, name+".golden")
}

func writeGolden(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// goldenDiff renders a unified diff between the golden file and the
// current snapshot.
func goldenDiff(path string, want, got []byte) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(want)),
		B:        difflib.SplitLines(string(got)),
		FromFile: path,
		ToFile:   "current",
		Context:  2,
	})
	if err != nil {
		return fmt.Sprintf("diff failed: %v", err)
	}
	return diff
}

func writeScenarioText(w io.Writer, sr ScenarioResult) {
	if sr.Pass {
		fmt.Fprintf(w, "✓ %s\n", sr.Name)
		return
	}
	fmt.Fprintf(w, "✗ %s\n", sr.Name)
	for _, e := range sr.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}
