package core

import (
	"errors"
	"slices"
	"testing"
)

func clearRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Profile)
}

func TestRegistry(t *testing.T) {
	saved := All()
	t.Cleanup(func() {
		clearRegistry()
		for _, p := range saved {
			Register(p)
		}
	})
	clearRegistry()

	Register(Profile{Key: "scores", Required: []Field{FieldScores}})
	Register(Profile{Key: "lanes", Required: []Field{FieldLane}})

	if got := All(); len(got) != 2 || got[0].Key != "lanes" || got[1].Key != "scores" {
		t.Errorf("All() = %v, want lanes, scores", got)
	}
	if _, ok := Get("lanes"); !ok {
		t.Error("Get(lanes) not found")
	}
	if _, err := Lookup("bogus"); !errors.Is(err, ErrUnknownProfile) {
		t.Errorf("Lookup(bogus) error = %v, want ErrUnknownProfile", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("duplicate Register did not panic")
		}
	}()
	Register(Profile{Key: "lanes"})
}

func TestProfileFields(t *testing.T) {
	p := Profile{Key: "scores", Required: []Field{FieldScores}, Accepts: []Field{FieldLane, FieldAverage}}
	want := []Field{FieldLane, FieldAverage, FieldScores}
	if got := p.Fields(); !slices.Equal(got, want) {
		t.Errorf("Fields() = %v, want %v", got, want)
	}

	all := Profile{Key: "roster"}.Fields()
	if slices.Contains(all, FieldHandicap) {
		t.Error("derived handicap must not be an accepted field")
	}
	if !slices.Contains(all, FieldEmail) || !slices.Contains(all, FieldEvents) {
		t.Errorf("Fields() = %v, want every input field", all)
	}
}

func TestProfileRules(t *testing.T) {
	rules := Profile{Key: "lanes", Required: []Field{FieldLane}}.Rules(map[string][]string{
		ColumnID: {"member no"},
	})
	if !slices.Equal(rules.Required, []string{"lane"}) {
		t.Errorf("Required = %v", rules.Required)
	}
	if slices.Contains(rules.Optional, "lane") {
		t.Error("required field listed as optional")
	}
	if !slices.Contains(rules.Aliases[ColumnID], "member no") || !slices.Contains(rules.Aliases[ColumnID], "pid") {
		t.Errorf("id aliases = %v", rules.Aliases[ColumnID])
	}

	check := ValidateColumns([]string{"Member No", "Lane"}, rules)
	if !check.Valid {
		t.Errorf("extra alias not honoured: missing %v", check.Missing)
	}
}
