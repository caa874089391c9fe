package core

import (
	"fmt"
	"slices"
	"sort"
	"sync"
)

// Profile describes one kind of spreadsheet the portal accepts: which
// fields it may carry and which of them must be present.
type Profile struct {
	Key         string
	Label       string
	Description string

	// Required fields must have a column in the header row.
	Required []Field

	// Accepts lists fields written when a column is present. Empty means
	// every non-derived catalogue field.
	Accepts []Field
}

// identityGroups are the column sets that can identify a participant. Every
// profile needs at least one of them complete.
var identityGroups = [][]string{
	{ColumnID},
	{ColumnName},
	{ColumnFirstName, ColumnLastName},
}

// Fields returns the fields the profile writes, in catalogue order.
func (p Profile) Fields() []Field {
	var out []Field
	for _, spec := range catalogue {
		if spec.Derived {
			continue
		}
		if len(p.Accepts) == 0 || slices.Contains(p.Accepts, spec.Field) || slices.Contains(p.Required, spec.Field) {
			out = append(out, spec.Field)
		}
	}
	return out
}

// Rules builds the column rules for this profile. extra adds aliases on top
// of the built-in spellings, keyed by canonical column name.
func (p Profile) Rules(extra map[string][]string) ColumnRules {
	aliases := builtinAliases()
	for col, more := range extra {
		aliases[col] = append(aliases[col], more...)
	}

	rules := ColumnRules{
		AnyOf:   identityGroups,
		Aliases: aliases,
		Optional: []string{
			ColumnNickname,
			ColumnTeam,
		},
	}
	for _, f := range p.Required {
		rules.Required = append(rules.Required, string(f))
	}
	for _, f := range p.Fields() {
		if !slices.Contains(p.Required, f) {
			rules.Optional = append(rules.Optional, string(f))
		}
	}
	return rules
}

var (
	registry   = make(map[string]Profile)
	registryMu sync.RWMutex
)

// Register adds a profile. It panics on a duplicate key.
func Register(p Profile) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[p.Key]; exists {
		panic(fmt.Sprintf("import profile already registered: %s", p.Key))
	}
	registry[p.Key] = p
}

// Get returns a profile by key.
func Get(key string) (Profile, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	p, ok := registry[key]
	return p, ok
}

// Lookup is Get returning ErrUnknownProfile for a missing key.
func Lookup(key string) (Profile, error) {
	p, ok := Get(key)
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, key)
	}
	return p, nil
}

// All returns every registered profile sorted by key.
func All() []Profile {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]Profile, 0, len(registry))
	for _, p := range registry {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
