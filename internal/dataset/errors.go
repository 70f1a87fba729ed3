package dataset

import (
	"errors"
	"fmt"
)

// Validation failure reasons for a source row.
var (
	ErrFieldCount       = errors.New("unexpected field count")
	ErrPairMismatch     = errors.New("weight and height component counts differ")
	ErrMixedWidths      = errors.New("measurement components have mixed widths")
	ErrEmptyMeasurement = errors.New("empty first measurement component")
	ErrEmptyLocation    = errors.New("empty location field")
	ErrBadNumber        = errors.New("measurement component is not an integer")
)

// ErrFatalIO marks file failures that abort a run. Every other error in this
// package is row-scoped and recoverable.
var ErrFatalIO = errors.New("dataset file failure")

// RowError reports why one source row was rejected. Rejected rows are logged
// and skipped; they never abort the run.
type RowError struct {
	Line int   // 1-based line number in the source file
	Err  error // one of the validation sentinels, possibly wrapped
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }
