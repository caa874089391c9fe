package core

import (
	"sort"
	"strings"
)

// ColumnRules tells ValidateColumns what a header row must and may carry.
// All names are canonical column names (see the Column* and Field* constants).
type ColumnRules struct {
	Required []string

	// AnyOf is satisfied when every column of at least one group is present.
	AnyOf [][]string

	// Optional columns are mapped when present and ignored otherwise.
	Optional []string

	// Aliases lists extra header spellings per canonical column.
	Aliases map[string][]string
}

// ColumnCheck is the result of validating a header row.
type ColumnCheck struct {
	Valid   bool
	Missing []string

	// HeaderMap maps canonical column -> header text exactly as it appeared,
	// so RawRow.Values can be read without re-normalizing.
	HeaderMap map[string]string
}

// Has reports whether col was found.
func (c ColumnCheck) Has(col string) bool {
	_, ok := c.HeaderMap[col]
	return ok
}

// Cell returns the raw value of col in row, or "" when the column is absent.
func (c ColumnCheck) Cell(row RawRow, col string) string {
	h, ok := c.HeaderMap[col]
	if !ok {
		return ""
	}
	return row.Values[h]
}

// ValidateColumns matches headers against rules. Header comparison ignores
// case, a leading byte-order mark, Excel ="..." wrapping, and the
// difference between spaces, underscores and hyphens. When two headers
// resolve to the same column the first one wins.
func ValidateColumns(headers []string, rules ColumnRules) ColumnCheck {
	wanted := make(map[string]struct{})
	for _, col := range rules.Required {
		wanted[col] = struct{}{}
	}
	for _, col := range rules.Optional {
		wanted[col] = struct{}{}
	}
	for _, group := range rules.AnyOf {
		for _, col := range group {
			wanted[col] = struct{}{}
		}
	}

	cols := make([]string, 0, len(wanted))
	for col := range wanted {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	// spelling -> canonical column; canonical names claim their own spelling
	// before any alias does.
	spellings := make(map[string]string)
	for _, col := range cols {
		spellings[normalizeHeader(col)] = col
	}
	for _, col := range cols {
		for _, alias := range rules.Aliases[col] {
			key := normalizeHeader(alias)
			if _, taken := spellings[key]; !taken && key != "" {
				spellings[key] = col
			}
		}
	}

	check := ColumnCheck{HeaderMap: make(map[string]string)}
	for _, h := range headers {
		col, ok := spellings[normalizeHeader(h)]
		if !ok {
			continue
		}
		if _, seen := check.HeaderMap[col]; !seen {
			check.HeaderMap[col] = h
		}
	}

	for _, col := range rules.Required {
		if !check.Has(col) {
			check.Missing = append(check.Missing, col)
		}
	}
	if len(rules.AnyOf) > 0 && !anyGroupPresent(check, rules.AnyOf) {
		check.Missing = append(check.Missing, describeGroups(rules.AnyOf))
	}

	check.Valid = len(check.Missing) == 0
	return check
}

func anyGroupPresent(check ColumnCheck, groups [][]string) bool {
	for _, group := range groups {
		complete := true
		for _, col := range group {
			if !check.Has(col) {
				complete = false
				break
			}
		}
		if complete {
			return true
		}
	}
	return false
}

// describeGroups renders identity groups as "id | name | first_name+last_name".
func describeGroups(groups [][]string) string {
	parts := make([]string, len(groups))
	for i, g := range groups {
		parts[i] = strings.Join(g, "+")
	}
	return strings.Join(parts, " | ")
}
