package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/scheduler/internal/harness"
)

// LoadError represents an error that occurred while loading scenarios.
type LoadError struct {
	Code    string
	Message string
	File    string // scenario file, if the error is about one
}

func (e *LoadError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadedScenario pairs a parsed scenario with its source file.
type LoadedScenario struct {
	File     string
	Scenario *harness.Scenario
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeScanError    = "E002" // Directory scan error
	ErrCodeNoFiles      = "E003" // No scenario files found
	ErrCodeLoadFailed   = "E004" // Scenario parse or schema failure
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeJournal      = "E006" // Journal open/read/write failure
	ErrCodeWriteFailed  = "E007" // File write error
	ErrCodeRunFailed    = "E008" // Scenario execution error
	ErrCodeScenarioFail = "E009" // Scenario ran but did not pass
)

// findScenarioFiles returns path itself if it is a file, or every .yaml/.yml
// file below it. filter is a glob matched against file names without
// extension.
func findScenarioFiles(path, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		ext := filepath.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(p), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, p)
		return nil
	})
	return files, err
}

// LoadScenarios loads every scenario at path (a file or a directory).
// Scenario parse failures are collected; a missing path or an empty
// directory is returned as the only error with a nil result.
func LoadScenarios(path, filter string) ([]LoadedScenario, []error) {
	files, err := findScenarioFiles(path, filter)
	if errors.Is(err, os.ErrNotExist) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("path not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: err.Error()}}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no scenario files found in %s", path)}}
	}

	var loaded []LoadedScenario
	var errs []error
	for _, f := range files {
		sc, err := harness.LoadScenario(f)
		if err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error(), File: f})
			continue
		}
		loaded = append(loaded, LoadedScenario{File: f, Scenario: sc})
	}
	return loaded, errs
}
