package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// ValidationError is one scenario file that failed to load.
type ValidationError struct {
	File    string `json:"file"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Files  int               `json:"files"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "validate <scenarios>",
		Short: "Check scenario files without running them",
		Long: `Parse scenario files and check them against the scenario schema.

Reports unknown fields, missing required fields, malformed days and
negative indexes for every file, without running any step.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], filter, cmd)
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runValidate(opts *RootOptions, path, filter string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	loaded, errs := LoadScenarios(path, filter)
	if loaded == nil && len(errs) == 1 {
		var le *LoadError
		if errors.As(errs[0], &le) && le.Code != ErrCodeLoadFailed {
			return formatter.Fail(ExitCommandError, le.Code, le.Message, nil)
		}
	}

	result := ValidationResult{Valid: len(errs) == 0, Files: len(loaded) + len(errs)}
	for _, ls := range loaded {
		formatter.VerboseLog("%s: %s (%d steps)", ls.File, ls.Scenario.Name, len(ls.Scenario.Steps))
	}
	for _, err := range errs {
		ve := ValidationError{Code: ErrCodeGeneric, Message: err.Error()}
		var le *LoadError
		if errors.As(err, &le) {
			ve = ValidationError{File: le.File, Code: le.Code, Message: le.Message}
		}
		result.Errors = append(result.Errors, ve)
	}

	if result.Valid {
		return formatter.Report(CLIResponse{Status: "ok", Data: result}, func(w io.Writer) {
			fmt.Fprintf(w, "✓ %d scenario file(s) valid\n", result.Files)
		})
	}

	resp := CLIResponse{
		Status: "error",
		Data:   result,
		Error:  &CLIError{Code: result.Errors[0].Code, Message: result.Errors[0].Message},
	}
	err := formatter.Report(resp, func(w io.Writer) {
		fmt.Fprintln(w, "✗ Validation failed")
		fmt.Fprintln(w)
		for _, ve := range result.Errors {
			fmt.Fprintf(w, "%s\n  %s: %s\n\n", ve.File, ve.Code, ve.Message)
		}
	})
	if err != nil {
		return err
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}
