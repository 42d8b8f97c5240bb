package overlay

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
)

// Common error variables
var (
	ErrUnknownKind      = errors.New("unknown field type")
	ErrMalformedLine    = errors.New("malformed position line")
	ErrNameCollision    = errors.New("field name already used by another kind")
	ErrOptionOutOfRange = errors.New("option index out of range")
	ErrInvalidSelection = errors.New("invalid selection value")
	ErrPageOutOfRange   = errors.New("page out of range")
)

// Severity indicates how a diagnostic affects a run
type Severity int

const (
	// SeverityWarning marks a skipped line, option or token; the run continues
	SeverityWarning Severity = iota
	// SeverityError marks a problem that prevents rendering
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is a single problem found while parsing or resolving
type Diagnostic struct {
	Severity Severity
	Line     int    // 1-based line in the positions file, 0 when not line related
	Field    string // field name, empty when not known
	Err      error
}

func (d Diagnostic) Error() string {
	switch {
	case d.Line > 0 && d.Field != "":
		return fmt.Sprintf("line %d: field %q: %v", d.Line, d.Field, d.Err)
	case d.Line > 0:
		return fmt.Sprintf("line %d: %v", d.Line, d.Err)
	case d.Field != "":
		return fmt.Sprintf("field %q: %v", d.Field, d.Err)
	default:
		return d.Err.Error()
	}
}

func (d Diagnostic) Unwrap() error {
	return d.Err
}

// Report collects diagnostics from one run. A nil *Report is empty.
type Report struct {
	Diagnostics []Diagnostic
}

func (r *Report) warn(line int, field string, err error) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{Severity: SeverityWarning, Line: line, Field: field, Err: err})
}

func (r *Report) fail(line int, field string, err error) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{Severity: SeverityError, Line: line, Field: field, Err: err})
}

// Merge appends the diagnostics of other
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.Diagnostics = append(r.Diagnostics, other.Diagnostics...)
}

// Len returns the number of diagnostics
func (r *Report) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Diagnostics)
}

// HasErrors reports whether any diagnostic has error severity
func (r *Report) HasErrors() bool {
	if r == nil {
		return false
	}
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Err combines every diagnostic into one error, nil when there are none
func (r *Report) Err() error {
	if r == nil {
		return nil
	}
	var err error
	for _, d := range r.Diagnostics {
		err = multierr.Append(err, d)
	}
	return err
}

// Errors combines only error severity diagnostics
func (r *Report) Errors() error {
	if r == nil {
		return nil
	}
	var err error
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			err = multierr.Append(err, d)
		}
	}
	return err
}
