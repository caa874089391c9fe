package core

import "fmt"

// WarningKind is the wire name of a warning variant.
type WarningKind string

const (
	KindTeamMismatch         WarningKind = "team_mismatch"
	KindLaneMismatch         WarningKind = "lane_mismatch"
	KindNoDoublesPartner     WarningKind = "no_doubles_partner"
	KindDuplicateIdentical   WarningKind = "duplicate_identical"
	KindDuplicateConflicting WarningKind = "duplicate_conflicting"
	KindMissingIdentity      WarningKind = "missing_identity"
)

// Warning is a closed set of variants; only this package implements it.
// Blocking warnings refuse a commit and are reported normally in a preview.
type Warning interface {
	Kind() WarningKind
	Blocking() bool
	warning()
}

// TeamMismatch: the file names a different team than the roster holds.
type TeamMismatch struct {
	Line     int
	PID      string
	Name     string
	Expected string
	Actual   string
}

// LaneMismatch: the file assigns a different lane than the roster holds.
// The incoming lane is still applied on commit.
type LaneMismatch struct {
	Line     int
	PID      string
	Name     string
	Expected string
	Actual   string
}

// NoDoublesPartner: a doubles entry for someone with no partner on record.
type NoDoublesPartner struct {
	Line int
	PID  string
	Name string
}

// DuplicateIdentical: a later row repeated an earlier one and was dropped.
type DuplicateIdentical struct {
	Key       string
	Line      int
	FirstLine int
}

// DuplicateConflicting: rows sharing Key disagree on Fields.
type DuplicateConflicting struct {
	Key    string
	Lines  []int
	Fields []string
}

// MissingIdentity: the row carried neither an id nor a usable name and was
// dropped.
type MissingIdentity struct {
	Line int
}

func (TeamMismatch) Kind() WarningKind         { return KindTeamMismatch }
func (LaneMismatch) Kind() WarningKind         { return KindLaneMismatch }
func (NoDoublesPartner) Kind() WarningKind     { return KindNoDoublesPartner }
func (DuplicateIdentical) Kind() WarningKind   { return KindDuplicateIdentical }
func (DuplicateConflicting) Kind() WarningKind { return KindDuplicateConflicting }
func (MissingIdentity) Kind() WarningKind      { return KindMissingIdentity }

func (TeamMismatch) Blocking() bool         { return false }
func (LaneMismatch) Blocking() bool         { return false }
func (NoDoublesPartner) Blocking() bool     { return true }
func (DuplicateIdentical) Blocking() bool   { return false }
func (DuplicateConflicting) Blocking() bool { return true }
func (MissingIdentity) Blocking() bool      { return false }

func (TeamMismatch) warning()         {}
func (LaneMismatch) warning()         {}
func (NoDoublesPartner) warning()     {}
func (DuplicateIdentical) warning()   {}
func (DuplicateConflicting) warning() {}
func (MissingIdentity) warning()      {}

// WarningView is the flat, serializable shape shared by every variant.
type WarningView struct {
	Type     WarningKind `json:"type"`
	Blocking bool        `json:"blocking"`
	Subject  string      `json:"subject"`
	PID      string      `json:"pid,omitempty"`
	Line     int         `json:"line,omitempty"`
	Lines    []int       `json:"lines,omitempty"`
	Fields   []string    `json:"fields,omitempty"`
	Expected string      `json:"expected,omitempty"`
	Actual   string      `json:"actual,omitempty"`
	Message  string      `json:"message"`
}

// DescribeWarning flattens a warning for display or JSON.
func DescribeWarning(w Warning) WarningView {
	v := WarningView{Type: w.Kind(), Blocking: w.Blocking()}

	switch w := w.(type) {
	case TeamMismatch:
		v.Subject, v.PID, v.Line = w.Name, w.PID, w.Line
		v.Expected, v.Actual = w.Expected, w.Actual
		v.Message = fmt.Sprintf("team in file %q does not match roster team %q", w.Actual, w.Expected)
	case LaneMismatch:
		v.Subject, v.PID, v.Line = w.Name, w.PID, w.Line
		v.Expected, v.Actual = w.Expected, w.Actual
		v.Message = fmt.Sprintf("lane %s replaces roster lane %s", w.Actual, w.Expected)
	case NoDoublesPartner:
		v.Subject, v.PID, v.Line = w.Name, w.PID, w.Line
		v.Message = "doubles entry has no partner on record"
	case DuplicateIdentical:
		v.Subject, v.Line = w.Key, w.Line
		v.Lines = []int{w.FirstLine, w.Line}
		v.Message = fmt.Sprintf("duplicate identical rows; deduped (kept line %d)", w.FirstLine)
	case DuplicateConflicting:
		v.Subject, v.Lines, v.Fields = w.Key, w.Lines, w.Fields
		if len(w.Lines) > 0 {
			v.Line = w.Lines[0]
		}
		v.Message = fmt.Sprintf("rows for %s disagree on %v", w.Key, w.Fields)
	case MissingIdentity:
		v.Subject = fmt.Sprintf("line %d", w.Line)
		v.Line = w.Line
		v.Message = "missing row identity; dropped"
	default:
		panic(fmt.Sprintf("unhandled warning variant %T", w))
	}
	return v
}

// DescribeWarnings flattens a slice, never returning nil.
func DescribeWarnings(ws []Warning) []WarningView {
	out := make([]WarningView, 0, len(ws))
	for _, w := range ws {
		out = append(out, DescribeWarning(w))
	}
	return out
}

// BlockingWarnings returns the subset of ws that refuses a commit.
func BlockingWarnings(ws []Warning) []Warning {
	var out []Warning
	for _, w := range ws {
		if w.Blocking() {
			out = append(out, w)
		}
	}
	return out
}

// crossReference compares a matched row against the record it resolved to.
func crossReference(rec NormalizedRecord, roster RosterRecord, ix *RosterIndex, teams TeamMatchPolicy) []Warning {
	var out []Warning
	name := roster.DisplayName()

	if rec.Team != "" && roster.TeamName != "" && !teams.Matches(rec.Team, roster.TeamName) {
		out = append(out, TeamMismatch{
			Line:     rec.Line,
			PID:      roster.PID,
			Name:     name,
			Expected: roster.TeamName,
			Actual:   rec.Team,
		})
	}

	if incoming := rec.Values[FieldLane]; incoming != nil && roster.Lane != nil {
		if current := roster.Value(FieldLane); !sameValue(incoming, current) {
			out = append(out, LaneMismatch{
				Line:     rec.Line,
				PID:      roster.PID,
				Name:     name,
				Expected: *current,
				Actual:   *incoming,
			})
		}
	}

	if tagsContain(rec.Values[FieldEvents], doublesTag) && !ix.hasPartner(roster) {
		out = append(out, NoDoublesPartner{Line: rec.Line, PID: roster.PID, Name: name})
	}

	return out
}

const doublesTag = "doubles"
