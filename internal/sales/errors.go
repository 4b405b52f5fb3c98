package sales

// Error kinds for the analysis pipeline
// Each stage wraps its failure in a StageError tagged with one of the kinds below,
// so callers can tell where a run stopped with errors.Is

import (
	"errors"
	"fmt"
)

var (
	ErrFileNotFound = errors.New("file not found")
	ErrParse        = errors.New("parse error")
	ErrRender       = errors.New("render error")
	ErrGeneric      = errors.New("analysis failed")
)

// Stage names used in StageError.
const (
	StageLoad      = "load"
	StageClean     = "clean"
	StageSummarize = "summarize"
	StageRender    = "render"
	StageReport    = "report"
	StagePublish   = "publish"
)

// StageError ties a failure to the stage it came from and its kind.
type StageError struct {
	Stage string
	Kind  error
	Err   error
}

func (e *StageError) Error() string {
	if e == nil {
		return "stage error: <nil>"
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// NewStageError wraps err unless it already carries a kind.
func NewStageError(stage string, kind error, err error) error {
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

// ParseError describes a cell or row that could not be coerced.
type ParseError struct {
	Row    int // 1-based line in the source, header is row 1
	Column string
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
	}
	return fmt.Sprintf("row %d, column %q: cannot parse %q: %s", e.Row, e.Column, e.Value, e.Reason)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// KindOf returns the tag carried by err, ErrGeneric for untagged errors and nil for nil.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{ErrFileNotFound, ErrParse, ErrRender} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return ErrGeneric
}
