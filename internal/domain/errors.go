package domain

import (
	"fmt"
	"time"
)

// MalformedRecordError marks a raw record that lacks required fields or
// carries unparseable values. Skippable: the loader counts it and moves on.
type MalformedRecordError struct {
	Source string // file path or feed name
	Line   int    // 1-based line or record index, 0 if unknown
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed record %s:%d: %s", e.Source, e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed record %s: %s", e.Source, e.Reason)
}

// AlignmentError marks duplicate raw keys whose values disagree. The later
// record wins; the conflict is reported, not fatal.
type AlignmentError struct {
	City      string
	Timestamp time.Time
	Field     string
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("alignment conflict for %s at %s on %s: duplicate values differ, keeping the later record",
		e.City, e.Timestamp.Format(time.RFC3339), e.Field)
}

// GapUnfillableError marks a merged record dropped because neither
// interpolation nor prior-day carry-forward could resolve a missing field.
type GapUnfillableError struct {
	City      string
	Timestamp time.Time
	Field     string
}

func (e *GapUnfillableError) Error() string {
	return fmt.Sprintf("unfillable gap for %s at %s: no valid neighbor for %s",
		e.City, e.Timestamp.Format(time.RFC3339), e.Field)
}

// WriteError wraps a failure to produce the output artifact. Fatal: the run
// aborts and no partial artifact is left behind.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write artifact %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
