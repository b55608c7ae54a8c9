// Package errors implements the analyzer's error taxonomy: recoverable
// per-file failures that are logged and swallowed, and fatal errors
// that propagate to the driver.
package errors

import (
	"fmt"
	"time"
)

// ErrorType classifies an AnalysisError for logging and triage.
type ErrorType string

const (
	ErrorTypeParse     ErrorType = "parse"
	ErrorTypeQuery     ErrorType = "query"
	ErrorTypeResolve   ErrorType = "resolve"
	ErrorTypeInference ErrorType = "inference"
	ErrorTypeManifest  ErrorType = "manifest"
	ErrorTypeIngest    ErrorType = "ingest"
	ErrorTypeConfig    ErrorType = "config"
	ErrorTypeInternal  ErrorType = "internal"
)

// AnalysisError wraps a failure with the file and operation it
// occurred in, so a single malformed file never aborts a repo scan.
type AnalysisError struct {
	Type        ErrorType
	Operation   string
	FilePath    string
	Underlying  error
	Timestamp   time.Time
	Recoverable bool
}

// New creates an AnalysisError for op, marked recoverable by default
// since §7 treats most analyzer failures (parse, query, resolve,
// inference) as recoverable-and-swallowed.
func New(errType ErrorType, op string, err error) *AnalysisError {
	return &AnalysisError{
		Type:        errType,
		Operation:   op,
		Underlying:  err,
		Timestamp:   time.Now(),
		Recoverable: true,
	}
}

// WithFile attaches the offending path.
func (e *AnalysisError) WithFile(path string) *AnalysisError {
	e.FilePath = path
	return e
}

// Fatal marks the error as non-recoverable (ingestor I/O failure,
// cancellation, missing parsers).
func (e *AnalysisError) Fatal() *AnalysisError {
	e.Recoverable = false
	return e
}

func (e *AnalysisError) Error() string {
	if e.FilePath != "" {
		return fmt.Sprintf("%s: %s failed for %s: %v", e.Type, e.Operation, e.FilePath, e.Underlying)
	}
	return fmt.Sprintf("%s: %s failed: %v", e.Type, e.Operation, e.Underlying)
}

func (e *AnalysisError) Unwrap() error {
	return e.Underlying
}

// IsRecoverable reports whether processing should continue past e.
func (e *AnalysisError) IsRecoverable() bool {
	return e.Recoverable
}

// MultiError aggregates independent per-file failures collected over
// the course of a pass, without aborting the pass itself.
type MultiError struct {
	Errors []error
}

func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return &MultiError{Errors: filtered}
}

func (e *MultiError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors occurred, first: %v", len(e.Errors), e.Errors[0])
}

func (e *MultiError) Unwrap() []error {
	return e.Errors
}
