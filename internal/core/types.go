package core

import (
	"context"
	"strconv"
	"time"
)

// Mode selects whether an import only reports what it would do or applies it.
type Mode string

const (
	ModePreview Mode = "preview"
	ModeCommit  Mode = "commit"
)

// ParseMode converts a user-supplied mode string.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModePreview, ModeCommit:
		return Mode(s), true
	}
	return "", false
}

// Stage is a step of the per-import state machine.
type Stage string

const (
	StageValidating    Stage = "validating"
	StageDeduping      Stage = "deduping"
	StageMatching      Stage = "matching"
	StageWarningCheck  Stage = "warning_check"
	StagePreviewReturn Stage = "preview_return"
	StageBlocked       Stage = "blocked"
	StageCommitting    Stage = "committing"
	StageLogging       Stage = "logging"
	StageDone          Stage = "done"
)

// RosterRecord is a persisted participant. PID is assigned outside this
// system and never changes.
type RosterRecord struct {
	PID       string
	FirstName string
	LastName  string
	Nickname  string
	TeamID    string
	TeamName  string

	Email    *string
	Phone    *string
	Lane     *int
	Average  *int
	Handicap *int
	Scores   []int
	Events   []string

	DoublesPartnerPID string
	UpdatedAt         time.Time
}

// DisplayName returns "First Last" for messages.
func (r RosterRecord) DisplayName() string {
	return joinName(r.FirstName, r.LastName)
}

// clone returns a copy that shares no slices or pointers with r.
func (r RosterRecord) clone() RosterRecord {
	c := r
	c.Email = cloneString(r.Email)
	c.Phone = cloneString(r.Phone)
	c.Lane = cloneInt(r.Lane)
	c.Average = cloneInt(r.Average)
	c.Handicap = cloneInt(r.Handicap)
	if r.Scores != nil {
		c.Scores = append([]int(nil), r.Scores...)
	}
	if r.Events != nil {
		c.Events = append([]string(nil), r.Events...)
	}
	return c
}

// RawRow is one CSV data line keyed by the header text as it appeared in
// the file. Line is 1-based and counts the header.
type RawRow struct {
	Line   int
	Values map[string]string
}

// Input is everything one import call consumes.
type Input struct {
	Profile Profile
	Headers []string
	Rows    []RawRow
	Actor   string
}

// RosterReader loads the roster an import reconciles against.
type RosterReader interface {
	Snapshot(ctx context.Context) ([]RosterRecord, error)
}

// RosterWriter persists merged records. Only the listed fields are written.
type RosterWriter interface {
	UpdateRecord(ctx context.Context, rec RosterRecord, fields []Field) error
}

// AuditWriter appends audit entries as a single batch.
type AuditWriter interface {
	AppendAudit(ctx context.Context, entries []AuditEntry) error
}

// Store is the full capability a commit needs. Implementations are usually
// bound to a transaction owned by the caller.
type Store interface {
	RosterReader
	RosterWriter
	AuditWriter
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

func intString(i *int) *string {
	if i == nil {
		return nil
	}
	s := strconv.Itoa(*i)
	return &s
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	}
	return first + " " + last
}
