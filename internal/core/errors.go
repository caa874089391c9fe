package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyFile is returned when a file has no header row.
	ErrEmptyFile = errors.New("empty file: no header row found")

	// ErrTooManyRows is returned when a file exceeds the configured row cap.
	ErrTooManyRows = errors.New("too many rows in file")

	// ErrUnknownProfile is returned for an unregistered profile key.
	ErrUnknownProfile = errors.New("unknown import profile")

	// ErrNoRoster is returned when an entry point is called without a
	// roster capability.
	ErrNoRoster = errors.New("roster capability is required")
)

// ValidationError reports required columns absent from the header row.
// Nothing is read or written when it is returned.
type ValidationError struct {
	Profile string
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required column(s) for %s import: %s",
		e.Profile, strings.Join(e.Missing, ", "))
}

// ConflictError aborts an import because rows sharing an identity key
// disagree. No row from the call is applied.
type ConflictError struct {
	Conflicts []DuplicateConflicting
}

func (e *ConflictError) Error() string {
	if len(e.Conflicts) == 0 {
		return "conflicting duplicate rows"
	}
	first := e.Conflicts[0]
	msg := fmt.Sprintf("conflicting duplicate rows for %s (lines %s): %s differ",
		first.Key, joinInts(first.Lines), strings.Join(first.Fields, ", "))
	if n := len(e.Conflicts) - 1; n > 0 {
		msg += fmt.Sprintf(" and %d more conflicting key(s)", n)
	}
	return msg
}

// BlockingError refuses a commit because matched rows failed a structural
// precondition. The preview carrying the same warnings still succeeds.
type BlockingError struct {
	Warnings []Warning
}

func (e *BlockingError) Error() string {
	subjects := make([]string, 0, len(e.Warnings))
	for _, w := range e.Warnings {
		subjects = append(subjects, fmt.Sprintf("%s (%s)", DescribeWarning(w).Subject, w.Kind()))
	}
	return fmt.Sprintf("import blocked by %d warning(s): %s", len(e.Warnings), strings.Join(subjects, "; "))
}

// RowError describes a cell that could not be parsed. It never aborts the
// call; the row is reported as unmatched.
type RowError struct {
	Line   int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %s: %v", e.Line, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}
