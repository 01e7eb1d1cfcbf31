package ingest

import (
	"errors"
	"fmt"
)

// Sentinel errors for the input boundary.
var (
	ErrMissingInput      = errors.New("input not found")
	ErrMissingColumn     = errors.New("required column not found")
	ErrUnsupportedFormat = errors.New("unsupported input format")
	ErrEmptyTable        = errors.New("table has no header row")
)

// InputError describes a failure to read one input table.
type InputError struct {
	Op     string // load, read, query
	Table  string // cdr, ipdr, tdr, towers, carriers
	Path   string
	Column string
	Cause  error
}

// Error implements the error interface.
func (e *InputError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s %s %s (column %s): %v", e.Op, e.Table, e.Path, e.Column, e.Cause)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s %s %s: %v", e.Op, e.Table, e.Path, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *InputError) Unwrap() error {
	return e.Cause
}

// IsMissing reports whether err means an input or one of its required
// columns is absent. Such failures are not fatal to a run.
func IsMissing(err error) bool {
	return errors.Is(err, ErrMissingInput) || errors.Is(err, ErrMissingColumn) || errors.Is(err, ErrEmptyTable)
}
