package core

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDescribeWarning(t *testing.T) {
	tests := []struct {
		w        Warning
		blocking bool
		subject  string
		contains string
	}{
		{TeamMismatch{Line: 2, PID: "1", Name: "Pat Lee", Expected: "Strikers", Actual: "Spares"}, false, "Pat Lee", `"Spares"`},
		{LaneMismatch{Line: 2, PID: "1", Name: "Pat Lee", Expected: "3", Actual: "4"}, false, "Pat Lee", "lane 4 replaces roster lane 3"},
		{NoDoublesPartner{Line: 5, PID: "9", Name: "Kim Roe"}, true, "Kim Roe", "no partner"},
		{DuplicateIdentical{Key: "id:7", Line: 6, FirstLine: 3}, false, "id:7", "kept line 3"},
		{DuplicateConflicting{Key: "id:7", Lines: []int{3, 6}, Fields: []string{"lane"}}, true, "id:7", "disagree"},
		{MissingIdentity{Line: 8}, false, "line 8", "missing row identity"},
	}

	for _, tt := range tests {
		t.Run(string(tt.w.Kind()), func(t *testing.T) {
			v := DescribeWarning(tt.w)
			if v.Type != tt.w.Kind() {
				t.Errorf("Type = %q, want %q", v.Type, tt.w.Kind())
			}
			if v.Blocking != tt.blocking {
				t.Errorf("Blocking = %v, want %v", v.Blocking, tt.blocking)
			}
			if v.Subject != tt.subject {
				t.Errorf("Subject = %q, want %q", v.Subject, tt.subject)
			}
			if !strings.Contains(v.Message, tt.contains) {
				t.Errorf("Message = %q, want it to contain %q", v.Message, tt.contains)
			}
		})
	}
}

func TestWarningViewJSON(t *testing.T) {
	b, err := json.Marshal(DescribeWarning(LaneMismatch{Line: 4, PID: "12", Name: "Ana", Expected: "3", Actual: "9"}))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"type":"lane_mismatch"`, `"blocking":false`, `"pid":"12"`, `"expected":"3"`, `"actual":"9"`} {
		if !strings.Contains(string(b), want) {
			t.Errorf("json %s missing %s", b, want)
		}
	}
}

func TestBlockingWarnings(t *testing.T) {
	ws := []Warning{
		LaneMismatch{PID: "1"},
		NoDoublesPartner{PID: "2"},
		MissingIdentity{Line: 3},
	}
	got := BlockingWarnings(ws)
	if len(got) != 1 || got[0].Kind() != KindNoDoublesPartner {
		t.Errorf("BlockingWarnings() = %v", got)
	}
	if BlockingWarnings(nil) != nil {
		t.Error("BlockingWarnings(nil) should be nil")
	}
	if views := DescribeWarnings(nil); views == nil || len(views) != 0 {
		t.Errorf("DescribeWarnings(nil) = %#v, want empty slice", views)
	}
}

func TestCrossReference(t *testing.T) {
	roster := []RosterRecord{
		{PID: "1", FirstName: "Pat", LastName: "Lee", TeamName: "Pin Pals", Lane: intp(3), DoublesPartnerPID: "2"},
		{PID: "2", FirstName: "Sam", LastName: "Lee", TeamName: "Pin Pals"},
		{PID: "3", FirstName: "Kim", LastName: "Roe", DoublesPartnerPID: "99"},
	}
	ix := NewRosterIndex(roster)
	teams := DefaultTeamMatchPolicy()

	tests := []struct {
		name string
		pid  string
		rec  NormalizedRecord
		want []WarningKind
	}{
		{
			name: "clean row",
			pid:  "1",
			rec:  NormalizedRecord{Line: 2, Team: "Pin Pals", Values: map[Field]*string{FieldLane: strp("3")}},
		},
		{
			name: "truncated team still matches",
			pid:  "1",
			rec:  NormalizedRecord{Line: 2, Team: "pin", Values: map[Field]*string{}},
		},
		{
			name: "team and lane differ",
			pid:  "1",
			rec:  NormalizedRecord{Line: 2, Team: "Gutter Gang", Values: map[Field]*string{FieldLane: strp("4")}},
			want: []WarningKind{KindTeamMismatch, KindLaneMismatch},
		},
		{
			name: "blank lane is not a mismatch",
			pid:  "1",
			rec:  NormalizedRecord{Line: 2, Values: map[Field]*string{FieldLane: nil}},
		},
		{
			name: "roster without team is not a mismatch",
			pid:  "3",
			rec:  NormalizedRecord{Line: 2, Team: "Anything", Values: map[Field]*string{}},
		},
		{
			name: "doubles with partner",
			pid:  "1",
			rec:  NormalizedRecord{Line: 2, Values: map[Field]*string{FieldEvents: strp(`["doubles"]`)}},
		},
		{
			name: "doubles without partner",
			pid:  "2",
			rec:  NormalizedRecord{Line: 2, Values: map[Field]*string{FieldEvents: strp(`["doubles","singles"]`)}},
			want: []WarningKind{KindNoDoublesPartner},
		},
		{
			name: "partner not on roster",
			pid:  "3",
			rec:  NormalizedRecord{Line: 2, Values: map[Field]*string{FieldEvents: strp(`["doubles"]`)}},
			want: []WarningKind{KindNoDoublesPartner},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current, ok := ix.Record(tt.pid)
			if !ok {
				t.Fatalf("pid %s not indexed", tt.pid)
			}
			got := kinds(crossReference(tt.rec, current, ix, teams))
			if len(got) != len(tt.want) {
				t.Fatalf("warnings = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("warnings = %v, want %v", got, tt.want)
				}
			}
		})
	}
}
