package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CleanCell strips the wrappers spreadsheet exports put around values:
// surrounding whitespace, Excel's ="..." text guard, a bare leading '='
// and stray quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"`))
}

// ReadCSV parses an import file. The first non-blank record is the header;
// blank records are skipped. Each RawRow carries the 1-based line it
// started on. maxRows <= 0 disables the row cap.
func ReadCSV(r io.Reader, maxRows int) ([]string, []RawRow, error) {
	cr := csv.NewReader(NewImportReader(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var (
		headers []string
		rows    []RawRow
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("invalid csv: %w", err)
		}
		if blankRecord(rec) {
			continue
		}

		if headers == nil {
			headers = make([]string, len(rec))
			for i, h := range rec {
				headers[i] = strings.TrimSpace(h)
			}
			continue
		}

		if maxRows > 0 && len(rows) >= maxRows {
			return nil, nil, fmt.Errorf("%w: limit is %d", ErrTooManyRows, maxRows)
		}

		line, _ := cr.FieldPos(0)
		values := make(map[string]string, len(headers))
		for i, h := range headers {
			if i >= len(rec) {
				break
			}
			if _, dup := values[h]; !dup {
				values[h] = rec[i]
			}
		}
		rows = append(rows, RawRow{Line: line, Values: values})
	}

	if headers == nil {
		return nil, nil, ErrEmptyFile
	}
	return headers, rows, nil
}

func blankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
