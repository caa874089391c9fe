package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName folds a person or team name to the form used for index
// lookups: accents stripped, case folded, punctuation dropped and whitespace
// collapsed. "José  O'Neil-Smith" becomes "jose oneil smith".
func NormalizeName(s string) string {
	// transform.Chain and cases.Caser keep state, so build them per call.
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = cases.Fold().String(folded)

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		case r == '\'' || r == '\u2019' || r == '.':
			// O'Neil and J.R. collapse instead of splitting.
		default:
			pendingSpace = true
		}
	}
	return b.String()
}

// nameKey is the index key for a first/last pair.
func nameKey(first, last string) string {
	return strings.TrimSpace(NormalizeName(first) + " " + NormalizeName(last))
}

// splitFullName accepts "Last, First" or "First Middle Last".
func splitFullName(full string) (first, last string) {
	full = strings.TrimSpace(full)
	if i := strings.Index(full, ","); i >= 0 {
		return strings.TrimSpace(full[i+1:]), strings.TrimSpace(full[:i])
	}
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	}
	return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
}

// normalizeHeader reduces a header cell to the form aliases are compared in.
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = CleanCell(h)
	h = strings.ToLower(h)
	h = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(h)
	return strings.Join(strings.Fields(h), " ")
}
