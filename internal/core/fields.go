package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Field names a mutable roster attribute an import can carry.
type Field string

const (
	FieldEmail    Field = "email"
	FieldPhone    Field = "phone"
	FieldLane     Field = "lane"
	FieldAverage  Field = "average"
	FieldHandicap Field = "handicap"
	FieldScores   Field = "scores"
	FieldEvents   Field = "events"
)

// Identity and cross-reference columns. They are read from the file but
// never written back to the roster.
const (
	ColumnID        = "id"
	ColumnName      = "name"
	ColumnFirstName = "first_name"
	ColumnLastName  = "last_name"
	ColumnNickname  = "nickname"
	ColumnTeam      = "team"
)

// FieldType determines how a cell is parsed and compared.
type FieldType int

const (
	FieldText FieldType = iota
	FieldInt
	FieldIntList
	FieldTagList
)

func (t FieldType) String() string {
	switch t {
	case FieldText:
		return "text"
	case FieldInt:
		return "integer"
	case FieldIntList:
		return "integer list"
	case FieldTagList:
		return "tag list"
	default:
		return "unknown"
	}
}

// FieldSpec describes one catalogue field.
type FieldSpec struct {
	Field   Field
	Type    FieldType
	Aliases []string

	// Lower folds text values to lower case before comparison.
	Lower bool

	// Max bounds integer values (and every element of an integer list).
	// Zero leaves only the int32 range.
	Max int

	// Derived fields are computed from other fields and never read from a file.
	Derived bool
}

var catalogue = []FieldSpec{
	{Field: FieldEmail, Type: FieldText, Lower: true, Aliases: []string{"e-mail", "email address"}},
	{Field: FieldPhone, Type: FieldText, Aliases: []string{"phone number", "mobile", "cell"}},
	{Field: FieldLane, Type: FieldInt, Aliases: []string{"lane #", "lane no", "lane number", "lane assignment"}},
	{Field: FieldAverage, Type: FieldInt, Max: 300, Aliases: []string{"avg", "entering average", "book average"}},
	{Field: FieldHandicap, Type: FieldInt, Derived: true},
	{Field: FieldScores, Type: FieldIntList, Max: 300, Aliases: []string{"games", "game scores", "score"}},
	{Field: FieldEvents, Type: FieldTagList, Aliases: []string{"event", "eligibility", "eligible events"}},
}

var identityAliases = map[string][]string{
	ColumnID:        {"pid", "bowler id", "member id", "usbc id"},
	ColumnName:      {"full name", "bowler", "bowler name", "player"},
	ColumnFirstName: {"first name", "first", "given name"},
	ColumnLastName:  {"last name", "last", "surname", "family name"},
	ColumnNickname:  {"nick", "preferred name"},
	ColumnTeam:      {"team name", "squad"},
}

// Catalogue returns every known field in canonical order.
func Catalogue() []FieldSpec {
	return slices.Clone(catalogue)
}

// LookupField returns the catalogue entry for f.
func LookupField(f Field) (FieldSpec, bool) {
	for _, spec := range catalogue {
		if spec.Field == f {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// builtinAliases returns canonical column -> accepted spellings for every
// identity column and every importable field.
func builtinAliases() map[string][]string {
	out := make(map[string][]string, len(identityAliases)+len(catalogue))
	for col, aliases := range identityAliases {
		out[col] = slices.Clone(aliases)
	}
	for _, spec := range catalogue {
		if spec.Derived {
			continue
		}
		out[string(spec.Field)] = slices.Clone(spec.Aliases)
	}
	return out
}

// Canonicalize parses a raw cell into the canonical string used for
// comparison, storage and auditing. A blank cell yields nil.
func (s FieldSpec) Canonicalize(raw string) (*string, error) {
	raw = CleanCell(raw)
	if raw == "" {
		return nil, nil
	}

	switch s.Type {
	case FieldText:
		if s.Lower {
			raw = strings.ToLower(raw)
		}
		return &raw, nil

	case FieldInt:
		n, err := s.parseInt(raw)
		if err != nil {
			return nil, err
		}
		v := strconv.Itoa(n)
		return &v, nil

	case FieldIntList:
		parts := strings.FieldsFunc(raw, func(r rune) bool {
			return r == ',' || r == ';' || r == '|' || r == ' ' || r == '\t'
		})
		if len(parts) == 0 {
			return nil, nil
		}
		list := make([]int, 0, len(parts))
		for _, p := range parts {
			n, err := s.parseInt(p)
			if err != nil {
				return nil, err
			}
			list = append(list, n)
		}
		return canonicalInts(list), nil

	case FieldTagList:
		parts := strings.FieldsFunc(raw, func(r rune) bool {
			return r == ',' || r == ';' || r == '|'
		})
		return canonicalTags(parts), nil
	}

	return nil, fmt.Errorf("unsupported field type %s", s.Type)
}

// parseInt accepts base-10 integers in the int32 range. A fractional part
// of zeros, as spreadsheets write "27.0", is dropped.
func (s FieldSpec) parseInt(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	digits := raw
	if i := strings.IndexByte(digits, '.'); i >= 0 {
		frac := digits[i+1:]
		if frac == "" || strings.Trim(frac, "0") != "" {
			return 0, fmt.Errorf("invalid number %q", raw)
		}
		digits = digits[:i]
	}
	n, err := strconv.ParseInt(digits, 10, 32)
	if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(digits, "-") {
		return 0, fmt.Errorf("invalid number %q: exceeds %d", raw, math.MaxInt32)
	}
	if errors.Is(err, strconv.ErrRange) || n < 0 {
		return 0, fmt.Errorf("invalid number %q: must not be negative", raw)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", raw)
	}
	if s.Max > 0 && n > int64(s.Max) {
		return 0, fmt.Errorf("invalid number %q: exceeds %d", raw, s.Max)
	}
	return int(n), nil
}

var tagSynonyms = map[string]string{
	"double": "doubles",
	"dbl":    "doubles",
	"dbls":   "doubles",
	"single": "singles",
	"sgl":    "singles",
	"aae":    "all_events",
	"all":    "all_events",
}

func canonicalTag(t string) string {
	t = strings.Join(strings.Fields(strings.ToLower(t)), "_")
	if syn, ok := tagSynonyms[t]; ok {
		return syn
	}
	return t
}

// canonicalInts serializes a score list as stable JSON; order is significant.
func canonicalInts(list []int) *string {
	if len(list) == 0 {
		return nil
	}
	b, _ := json.Marshal(list)
	s := string(b)
	return &s
}

// canonicalTags sorts and de-duplicates tags before serializing them, so two
// spellings of the same set compare equal.
func canonicalTags(tags []string) *string {
	set := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = canonicalTag(t); t != "" {
			set = append(set, t)
		}
	}
	if len(set) == 0 {
		return nil
	}
	slices.Sort(set)
	set = slices.Compact(set)
	b, _ := json.Marshal(set)
	s := string(b)
	return &s
}

// tagsContain reports whether a canonical tag list includes tag.
func tagsContain(canonical *string, tag string) bool {
	if canonical == nil {
		return false
	}
	var tags []string
	if err := json.Unmarshal([]byte(*canonical), &tags); err != nil {
		return false
	}
	return slices.Contains(tags, tag)
}

// Value returns the canonical form of f on the record, nil when unset.
func (r RosterRecord) Value(f Field) *string {
	switch f {
	case FieldEmail:
		return cloneString(r.Email)
	case FieldPhone:
		return cloneString(r.Phone)
	case FieldLane:
		return intString(r.Lane)
	case FieldAverage:
		return intString(r.Average)
	case FieldHandicap:
		return intString(r.Handicap)
	case FieldScores:
		return canonicalInts(r.Scores)
	case FieldEvents:
		return canonicalTags(r.Events)
	}
	return nil
}

// SetValue stores a canonical value produced by Canonicalize or Value.
func (r *RosterRecord) SetValue(f Field, v *string) error {
	switch f {
	case FieldEmail:
		r.Email = cloneString(v)
		return nil
	case FieldPhone:
		r.Phone = cloneString(v)
		return nil
	case FieldLane, FieldAverage, FieldHandicap:
		var n *int
		if v != nil {
			i, err := strconv.Atoi(*v)
			if err != nil {
				return fmt.Errorf("set %s: %w", f, err)
			}
			n = &i
		}
		switch f {
		case FieldLane:
			r.Lane = n
		case FieldAverage:
			r.Average = n
		default:
			r.Handicap = n
		}
		return nil
	case FieldScores:
		r.Scores = nil
		if v == nil {
			return nil
		}
		if err := json.Unmarshal([]byte(*v), &r.Scores); err != nil {
			return fmt.Errorf("set %s: %w", f, err)
		}
		return nil
	case FieldEvents:
		r.Events = nil
		if v == nil {
			return nil
		}
		if err := json.Unmarshal([]byte(*v), &r.Events); err != nil {
			return fmt.Errorf("set %s: %w", f, err)
		}
		return nil
	}
	return fmt.Errorf("unknown field %q", f)
}

// sameValue compares two canonical values; nil equals only nil.
func sameValue(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
