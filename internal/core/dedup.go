package core

import "slices"

// NormalizedRecord is the typed view of one surviving row. Values holds the
// canonical value of every field whose column is present; nil means blank.
type NormalizedRecord struct {
	Key       string
	Line      int
	ID        string
	FirstName string
	LastName  string
	Nickname  string
	NameKey   string
	Team      string
	Values    map[Field]*string
}

// DisplayName returns the name as written in the file, or the id.
func (r NormalizedRecord) DisplayName() string {
	if n := joinName(r.FirstName, r.LastName); n != "" {
		return n
	}
	return r.ID
}

// differingFields lists columns on which two rows with the same key disagree.
func (r NormalizedRecord) differingFields(o NormalizedRecord) []string {
	var out []string
	if NormalizeName(r.Team) != NormalizeName(o.Team) {
		out = append(out, ColumnTeam)
	}
	if r.NameKey != o.NameKey {
		out = append(out, ColumnName)
	}
	return append(out, r.differingValues(o)...)
}

// differingValues lists catalogue fields on which two rows disagree.
func (r NormalizedRecord) differingValues(o NormalizedRecord) []string {
	var out []string
	for _, spec := range catalogue {
		a, aok := r.Values[spec.Field]
		b, bok := o.Values[spec.Field]
		if aok != bok || !sameValue(a, b) {
			out = append(out, string(spec.Field))
		}
	}
	return out
}

// dedupResult is what survives the Deduping stage.
type dedupResult struct {
	Records  []NormalizedRecord
	Invalid  []UnmatchedRow
	Warnings []Warning
}

// conflictSet gathers one DuplicateConflicting per key.
type conflictSet struct {
	list  []DuplicateConflicting
	index map[string]int
}

func (s *conflictSet) add(key string, first, line int, fields []string) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[key]; ok {
		c := &s.list[i]
		if !slices.Contains(c.Lines, line) {
			c.Lines = append(c.Lines, line)
		}
		for _, f := range fields {
			if !slices.Contains(c.Fields, f) {
				c.Fields = append(c.Fields, f)
			}
		}
		return
	}
	s.index[key] = len(s.list)
	s.list = append(s.list, DuplicateConflicting{
		Key:    key,
		Lines:  []int{first, line},
		Fields: fields,
	})
}

func (s *conflictSet) err() error {
	if len(s.list) == 0 {
		return nil
	}
	return &ConflictError{Conflicts: s.list}
}

// invalidRow remembers where a key first failed to parse.
type invalidRow struct {
	line   int
	column string
}

// Dedup normalizes rows and collapses those sharing an identity key. The
// first occurrence of a key is kept; later identical rows become
// DuplicateIdentical warnings. Any disagreement aborts with a *ConflictError
// naming every conflicting key. Rows whose cells cannot be parsed are
// returned in Invalid; another row with the same key, valid or not, is a
// conflict on the column that failed.
func Dedup(rows []RawRow, check ColumnCheck, fields []Field) (dedupResult, error) {
	var (
		res       dedupResult
		firstSeen = make(map[string]int) // key -> index into res.Records
		badSeen   = make(map[string]invalidRow)
		conflicts conflictSet
	)

	for _, row := range rows {
		rec, rowErr := normalizeRow(row, check, fields)
		if rowErr != nil {
			res.Invalid = append(res.Invalid, UnmatchedRow{
				Line:   row.Line,
				Key:    rec.Key,
				Name:   rec.DisplayName(),
				Reason: rowErr.Error(),
			})
			if rec.Key == "" {
				continue
			}
			if i, ok := firstSeen[rec.Key]; ok {
				conflicts.add(rec.Key, res.Records[i].Line, rec.Line, []string{rowErr.Column})
			} else if bad, ok := badSeen[rec.Key]; ok {
				cols := []string{bad.column}
				if rowErr.Column != bad.column {
					cols = append(cols, rowErr.Column)
				}
				conflicts.add(rec.Key, bad.line, rec.Line, cols)
			} else {
				badSeen[rec.Key] = invalidRow{line: row.Line, column: rowErr.Column}
			}
			continue
		}
		if rec.Key == "" {
			res.Warnings = append(res.Warnings, MissingIdentity{Line: row.Line})
			continue
		}
		if bad, ok := badSeen[rec.Key]; ok {
			conflicts.add(rec.Key, bad.line, rec.Line, []string{bad.column})
			continue
		}

		i, seen := firstSeen[rec.Key]
		if !seen {
			firstSeen[rec.Key] = len(res.Records)
			res.Records = append(res.Records, rec)
			continue
		}

		first := res.Records[i]
		diff := first.differingFields(rec)
		if len(diff) == 0 {
			res.Warnings = append(res.Warnings, DuplicateIdentical{
				Key:       rec.Key,
				Line:      rec.Line,
				FirstLine: first.Line,
			})
			continue
		}
		conflicts.add(rec.Key, first.Line, rec.Line, diff)
	}

	if err := conflicts.err(); err != nil {
		return dedupResult{}, err
	}
	return res, nil
}

// normalizeRow builds the typed record for one row. The identity key is
// "id:<id>" when an id is present, otherwise "name:<first last>" with
// "|team:<team>" appended when the row names a team. The key is filled in
// even when a cell fails to parse so the caller can report it.
func normalizeRow(row RawRow, check ColumnCheck, fields []Field) (NormalizedRecord, *RowError) {
	rec := NormalizedRecord{
		Line:     row.Line,
		ID:       CleanCell(check.Cell(row, ColumnID)),
		Nickname: CleanCell(check.Cell(row, ColumnNickname)),
		Team:     CleanCell(check.Cell(row, ColumnTeam)),
		Values:   make(map[Field]*string, len(fields)),
	}

	rec.FirstName = CleanCell(check.Cell(row, ColumnFirstName))
	rec.LastName = CleanCell(check.Cell(row, ColumnLastName))
	if rec.FirstName == "" && rec.LastName == "" {
		rec.FirstName, rec.LastName = splitFullName(CleanCell(check.Cell(row, ColumnName)))
	}
	rec.NameKey = nameKey(rec.FirstName, rec.LastName)

	switch {
	case rec.ID != "":
		rec.Key = "id:" + rec.ID
	case rec.NameKey != "":
		rec.Key = "name:" + rec.NameKey
		if team := NormalizeName(rec.Team); team != "" {
			rec.Key += "|team:" + team
		}
	}

	for _, f := range fields {
		col := string(f)
		if !check.Has(col) {
			continue
		}
		spec, ok := LookupField(f)
		if !ok || spec.Derived {
			continue
		}
		v, err := spec.Canonicalize(check.Cell(row, col))
		if err != nil {
			return rec, &RowError{Line: row.Line, Column: col, Err: err}
		}
		rec.Values[f] = v
	}
	return rec, nil
}
