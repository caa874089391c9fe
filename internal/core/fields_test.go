package core

import "testing"

func strp(s string) *string { return &s }
func intp(i int) *int       { return &i }

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name    string
		field   Field
		raw     string
		want    *string
		wantErr bool
	}{
		{"blank", FieldLane, "   ", nil, false},
		{"int", FieldLane, "27", strp("27"), false},
		{"int with decimal zero", FieldLane, "27.0", strp("27"), false},
		{"excel guarded int", FieldLane, `="07"`, strp("7"), false},
		{"fractional int", FieldLane, "2.5", nil, true},
		{"negative", FieldLane, "-1", nil, true},
		{"word", FieldLane, "abc", nil, true},
		{"int with zeros after point", FieldLane, "27.00", strp("27"), false},
		{"trailing point", FieldLane, "27.", nil, true},
		{"exponent", FieldLane, "1e300", nil, true},
		{"small exponent", FieldLane, "1e2", nil, true},
		{"hex float", FieldLane, "0x1p4", nil, true},
		{"hex int", FieldLane, "0x10", nil, true},
		{"int32 max", FieldLane, "2147483647", strp("2147483647"), false},
		{"beyond int32", FieldLane, "3000000000", nil, true},
		{"far negative", FieldLane, "-3000000000", nil, true},
		{"score list beyond int32", FieldScores, "200,3000000000", nil, true},
		{"average over max", FieldAverage, "301", nil, true},
		{"email lower-cased", FieldEmail, " Pat@Example.COM ", strp("pat@example.com"), false},
		{"phone kept", FieldPhone, "555-0100", strp("555-0100"), false},
		{"scores keep order", FieldScores, "201, 189;245", strp("[201,189,245]"), false},
		{"scores space separated", FieldScores, "180 190", strp("[180,190]"), false},
		{"score over 300", FieldScores, "200,301", nil, true},
		{"events sorted and deduped", FieldEvents, "Singles, dbl; doubles", strp(`["doubles","singles"]`), false},
		{"events with spaces", FieldEvents, "All Events", strp(`["all_events"]`), false},
		{"events only separators", FieldEvents, ",;|", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, _ := LookupField(tt.field)
			got, err := spec.Canonicalize(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Canonicalize(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if !sameValue(got, tt.want) {
				t.Errorf("Canonicalize(%q) = %v, want %v", tt.raw, show(got), show(tt.want))
			}
		})
	}
}

func TestRecordValueRoundTrip(t *testing.T) {
	rec := RosterRecord{
		PID:      "100",
		Email:    strp("a@b.c"),
		Lane:     intp(12),
		Average:  intp(190),
		Scores:   []int{200, 180},
		Events:   []string{"singles", "doubles", "singles"},
		Handicap: nil,
	}

	if got := rec.Value(FieldEvents); *got != `["doubles","singles"]` {
		t.Errorf("Value(events) = %s", *got)
	}
	if got := rec.Value(FieldHandicap); got != nil {
		t.Errorf("Value(handicap) = %s, want nil", *got)
	}

	var copyRec RosterRecord
	for _, spec := range Catalogue() {
		if err := copyRec.SetValue(spec.Field, rec.Value(spec.Field)); err != nil {
			t.Fatalf("SetValue(%s) error = %v", spec.Field, err)
		}
		if !sameValue(copyRec.Value(spec.Field), rec.Value(spec.Field)) {
			t.Errorf("%s: got %v, want %v", spec.Field, show(copyRec.Value(spec.Field)), show(rec.Value(spec.Field)))
		}
	}
}

func TestEmptyListsAreNil(t *testing.T) {
	rec := RosterRecord{Scores: []int{}, Events: []string{}}
	if rec.Value(FieldScores) != nil || rec.Value(FieldEvents) != nil {
		t.Error("empty lists should canonicalize to nil")
	}
}

func show(s *string) string {
	if s == nil {
		return "<nil>"
	}
	return *s
}
