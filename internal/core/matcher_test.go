package core

import (
	"testing"
)

func testRoster() []RosterRecord {
	return []RosterRecord{
		{PID: "300", FirstName: "John", LastName: "Smith", TeamName: "Team Beta"},
		{PID: "100", FirstName: "John", LastName: "Smith", TeamName: "Team Alpha"},
		{PID: "200", FirstName: "Robert", LastName: "Jones", Nickname: "Bob", TeamName: "Strikers"},
		{PID: "400", FirstName: "Ana", LastName: "Núñez", TeamName: "Gutter Gang"},
	}
}

func TestTeamMatchPolicy(t *testing.T) {
	tests := []struct {
		name   string
		policy TeamMatchPolicy
		a, b   string
		want   bool
	}{
		{"equal ignoring case", DefaultTeamMatchPolicy(), "team beta", "Team Beta", true},
		{"csv truncated", DefaultTeamMatchPolicy(), "Team Be", "Team Beta", true},
		{"roster truncated", DefaultTeamMatchPolicy(), "Team Beta Bowlers", "Team Beta", true},
		{"different", DefaultTeamMatchPolicy(), "Unknown Team", "Team Beta", false},
		{"blank never matches", DefaultTeamMatchPolicy(), "", "Team Beta", false},
		{"prefix too short", TeamMatchPolicy{MinPrefix: 5}, "Team", "Team Beta", false},
		{"prefix long enough", TeamMatchPolicy{MinPrefix: 5}, "Team B", "Team Beta", true},
		{"typo without tolerance", DefaultTeamMatchPolicy(), "Taem Beta", "Team Beta", false},
		{"typo within distance", TeamMatchPolicy{MinPrefix: 1, MaxDistance: 2}, "Taem Beta", "Team Beta", true},
		{"typo beyond distance", TeamMatchPolicy{MinPrefix: 1, MaxDistance: 1}, "Taem Beta", "Team Beta", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.Matches(tt.a, tt.b); got != tt.want {
				t.Errorf("Matches(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestMatcher(t *testing.T) {
	m := NewMatcher(NewRosterIndex(testRoster()), DefaultTeamMatchPolicy())

	tests := []struct {
		name string
		rec  NormalizedRecord
		want MatchResult
	}{
		{
			name: "explicit id",
			rec:  NormalizedRecord{ID: "200"},
			want: Matched{PID: "200", Meta: CandidateMeta{Via: ViaID, Candidates: 1}},
		},
		{
			name: "unknown id without name",
			rec:  NormalizedRecord{ID: "999"},
			want: Unmatched{Reason: ReasonNotFound},
		},
		{
			name: "unknown id falls back to name",
			rec:  NormalizedRecord{ID: "999", FirstName: "Ana", LastName: "Nunez", NameKey: nameKey("Ana", "Nunez")},
			want: Matched{PID: "400", Meta: CandidateMeta{Via: ViaName, Candidates: 1}},
		},
		{
			name: "nickname",
			rec:  NormalizedRecord{FirstName: "Bob", LastName: "Jones", NameKey: nameKey("Bob", "Jones")},
			want: Matched{PID: "200", Meta: CandidateMeta{Via: ViaName, Candidates: 1}},
		},
		{
			name: "not found",
			rec:  NormalizedRecord{FirstName: "Jane", LastName: "Doe", NameKey: nameKey("Jane", "Doe")},
			want: Unmatched{Reason: ReasonNotFound},
		},
		{
			name: "team breaks tie",
			rec:  NormalizedRecord{FirstName: "John", LastName: "Smith", NameKey: "john smith", Team: "Team Beta"},
			want: Matched{PID: "300", Meta: CandidateMeta{Via: ViaTeam, Candidates: 2}},
		},
		{
			name: "truncated team breaks tie",
			rec:  NormalizedRecord{FirstName: "John", LastName: "Smith", NameKey: "john smith", Team: "TEAM ALP"},
			want: Matched{PID: "100", Meta: CandidateMeta{Via: ViaTeam, Candidates: 2}},
		},
		{
			name: "unknown team",
			rec:  NormalizedRecord{FirstName: "John", LastName: "Smith", NameKey: "john smith", Team: "Unknown Team"},
			want: Unmatched{Reason: ReasonAmbiguous},
		},
		{
			name: "prefix shared by both teams",
			rec:  NormalizedRecord{FirstName: "John", LastName: "Smith", NameKey: "john smith", Team: "Team"},
			want: Unmatched{Reason: ReasonAmbiguous},
		},
		{
			name: "no team",
			rec:  NormalizedRecord{FirstName: "John", LastName: "Smith", NameKey: "john smith"},
			want: Unmatched{Reason: ReasonAmbiguous},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Match(tt.rec); got != tt.want {
				t.Errorf("Match() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestMatcherDeterministic(t *testing.T) {
	roster := testRoster()
	reversed := make([]RosterRecord, len(roster))
	for i, r := range roster {
		reversed[len(roster)-1-i] = r
	}

	rec := NormalizedRecord{FirstName: "John", LastName: "Smith", NameKey: "john smith", Team: "Team Alpha"}
	a := NewMatcher(NewRosterIndex(roster), DefaultTeamMatchPolicy()).Match(rec)
	b := NewMatcher(NewRosterIndex(reversed), DefaultTeamMatchPolicy()).Match(rec)
	if a != b {
		t.Errorf("match depends on roster order: %#v vs %#v", a, b)
	}
}

func TestRosterIndexDoesNotAliasInput(t *testing.T) {
	roster := testRoster()
	ix := NewRosterIndex(roster)
	roster[0].PID = "changed"

	if _, ok := ix.Record("300"); !ok {
		t.Error("index should keep its own copy of the snapshot")
	}
	if ix.Len() != 4 {
		t.Errorf("Len() = %d, want 4", ix.Len())
	}
}
