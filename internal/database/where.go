package database

import (
	"fmt"
	"strings"
	"time"
)

// WhereBuilder assembles a parameterized WHERE clause. Empty filter values
// are skipped, so callers can add every optional filter unconditionally.
type WhereBuilder struct {
	conds []string
	args  []any
}

func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{}
}

// Add filters column = value when value is non-empty.
func (w *WhereBuilder) Add(column, value string) {
	if value == "" {
		return
	}
	w.args = append(w.args, value)
	w.conds = append(w.conds, fmt.Sprintf("%s = $%d", column, len(w.args)))
}

// AddTimestampRange filters start <= column < end. A zero bound is left open.
func (w *WhereBuilder) AddTimestampRange(column string, start, end time.Time) {
	if !start.IsZero() {
		w.args = append(w.args, start)
		w.conds = append(w.conds, fmt.Sprintf("%s >= $%d", column, len(w.args)))
	}
	if !end.IsZero() {
		w.args = append(w.args, end)
		w.conds = append(w.conds, fmt.Sprintf("%s < $%d", column, len(w.args)))
	}
}

// Build returns " WHERE ..." (or "") and the arguments in placeholder order.
func (w *WhereBuilder) Build() (string, []any) {
	if len(w.conds) == 0 {
		return "", w.args
	}
	return " WHERE " + strings.Join(w.conds, " AND "), w.args
}

// NextArgIndex is the placeholder number for the next argument appended
// after Build.
func (w *WhereBuilder) NextArgIndex() int {
	return len(w.args) + 1
}
