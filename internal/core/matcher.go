package core

import (
	"slices"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

const (
	ReasonNotFound  = "not found"
	ReasonAmbiguous = "multiple matches; disambiguation failed"
)

// MatchVia records which signal resolved a row.
type MatchVia string

const (
	ViaID   MatchVia = "id"
	ViaName MatchVia = "name"
	ViaTeam MatchVia = "team"
)

// MatchResult is either Matched or Unmatched.
type MatchResult interface {
	matchResult()
}

// CandidateMeta describes how a match was reached.
type CandidateMeta struct {
	Via        MatchVia
	Candidates int
}

type Matched struct {
	PID  string
	Meta CandidateMeta
}

type Unmatched struct {
	Reason string
}

func (Matched) matchResult()   {}
func (Unmatched) matchResult() {}

// TeamMatchPolicy decides whether two team names refer to the same team.
// Exports often truncate team names, so a name that is a prefix of the
// other counts as equal once it is at least MinPrefix characters long.
// MaxDistance > 0 additionally tolerates that many single-character edits.
type TeamMatchPolicy struct {
	MinPrefix   int
	MaxDistance int
}

// DefaultTeamMatchPolicy accepts any non-empty prefix and no edits.
func DefaultTeamMatchPolicy() TeamMatchPolicy {
	return TeamMatchPolicy{MinPrefix: 1}
}

// Matches compares two team names after normalization. Blank never matches.
func (p TeamMatchPolicy) Matches(a, b string) bool {
	na, nb := NormalizeName(a), NormalizeName(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}

	short, long := na, nb
	if len(short) > len(long) {
		short, long = long, short
	}
	if len([]rune(short)) >= max(p.MinPrefix, 1) && strings.HasPrefix(long, short) {
		return true
	}
	return p.MaxDistance > 0 && levenshtein.ComputeDistance(na, nb) <= p.MaxDistance
}

// RosterIndex is built once per call from a roster snapshot and never
// modified afterwards. Lookups return positions into the records slice,
// which is sorted by PID so candidate order is stable across runs.
type RosterIndex struct {
	records []RosterRecord
	byPID   map[string]int
	byName  map[string][]int
}

// NewRosterIndex indexes records by PID, by normalized first+last name and
// by nickname+last name.
func NewRosterIndex(records []RosterRecord) *RosterIndex {
	sorted := make([]RosterRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].PID < sorted[j].PID })

	ix := &RosterIndex{
		records: sorted,
		byPID:   make(map[string]int, len(sorted)),
		byName:  make(map[string][]int, len(sorted)),
	}
	for i, r := range sorted {
		if _, dup := ix.byPID[r.PID]; !dup {
			ix.byPID[r.PID] = i
		}
		full := nameKey(r.FirstName, r.LastName)
		if full != "" {
			ix.byName[full] = append(ix.byName[full], i)
		}
		if r.Nickname != "" {
			if nick := nameKey(r.Nickname, r.LastName); nick != "" && nick != full {
				ix.byName[nick] = append(ix.byName[nick], i)
			}
		}
	}
	return ix
}

// Len returns the number of indexed records.
func (ix *RosterIndex) Len() int { return len(ix.records) }

// Record returns the record with the given PID.
func (ix *RosterIndex) Record(pid string) (RosterRecord, bool) {
	i, ok := ix.byPID[pid]
	if !ok {
		return RosterRecord{}, false
	}
	return ix.records[i], true
}

func (ix *RosterIndex) hasPartner(r RosterRecord) bool {
	if r.DoublesPartnerPID == "" {
		return false
	}
	_, ok := ix.byPID[r.DoublesPartnerPID]
	return ok
}

// candidates returns positions whose name or nickname key equals the
// row's, in PID order without repeats.
func (ix *RosterIndex) candidates(rec NormalizedRecord) []int {
	out := slices.Clone(ix.byName[rec.NameKey])
	if rec.Nickname != "" {
		if nick := nameKey(rec.Nickname, rec.LastName); nick != rec.NameKey {
			out = append(out, ix.byName[nick]...)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Matcher resolves normalized rows against a RosterIndex.
type Matcher struct {
	index *RosterIndex
	teams TeamMatchPolicy
}

func NewMatcher(index *RosterIndex, teams TeamMatchPolicy) *Matcher {
	return &Matcher{index: index, teams: teams}
}

// Match resolves rec to at most one roster record. An explicit id wins;
// an id that is not on the roster falls back to the name when the row has
// one. Several name candidates are narrowed by team.
func (m *Matcher) Match(rec NormalizedRecord) MatchResult {
	if rec.ID != "" {
		if _, ok := m.index.byPID[rec.ID]; ok {
			return Matched{PID: rec.ID, Meta: CandidateMeta{Via: ViaID, Candidates: 1}}
		}
		if rec.NameKey == "" {
			return Unmatched{Reason: ReasonNotFound}
		}
	}

	cands := m.index.candidates(rec)
	switch len(cands) {
	case 0:
		return Unmatched{Reason: ReasonNotFound}
	case 1:
		return Matched{
			PID:  m.index.records[cands[0]].PID,
			Meta: CandidateMeta{Via: ViaName, Candidates: 1},
		}
	}

	if rec.Team == "" {
		return Unmatched{Reason: ReasonAmbiguous}
	}
	var survivor = -1
	for _, i := range cands {
		if !m.teams.Matches(rec.Team, m.index.records[i].TeamName) {
			continue
		}
		if survivor >= 0 {
			return Unmatched{Reason: ReasonAmbiguous}
		}
		survivor = i
	}
	if survivor < 0 {
		return Unmatched{Reason: ReasonAmbiguous}
	}
	return Matched{
		PID:  m.index.records[survivor].PID,
		Meta: CandidateMeta{Via: ViaTeam, Candidates: len(cands)},
	}
}
