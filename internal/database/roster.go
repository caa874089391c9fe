package database

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/lanes/internal/core"
)

// ErrRecordNotFound is returned when an update targets a pid that is not
// on the roster.
var ErrRecordNotFound = errors.New("roster record not found")

// ErrOutOfRange is returned when an integer does not fit an int4 column.
var ErrOutOfRange = errors.New("integer out of int4 range")

const snapshotSQL = `SELECT r.pid, r.first_name, r.last_name, r.nickname,
	COALESCE(r.team_id::text, ''), COALESCE(t.name, ''),
	r.email, r.phone, r.lane, r.average, r.handicap, r.scores, r.events,
	COALESCE(r.doubles_partner_pid, ''), r.updated_at
	FROM roster r
	LEFT JOIN teams t ON t.id = r.team_id
	ORDER BY r.pid`

// Snapshot reads the whole roster ordered by pid.
func (q *Queries) Snapshot(ctx context.Context) ([]core.RosterRecord, error) {
	rows, err := q.db.Query(ctx, snapshotSQL)
	if err != nil {
		return nil, fmt.Errorf("query roster: %w", err)
	}
	defer rows.Close()

	var out []core.RosterRecord
	for rows.Next() {
		var (
			rec                     core.RosterRecord
			email, phone            pgtype.Text
			lane, average, handicap pgtype.Int4
			scores                  []int32
			events                  []string
			updatedAt               pgtype.Timestamptz
		)
		if err := rows.Scan(
			&rec.PID, &rec.FirstName, &rec.LastName, &rec.Nickname,
			&rec.TeamID, &rec.TeamName,
			&email, &phone, &lane, &average, &handicap, &scores, &events,
			&rec.DoublesPartnerPID, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan roster: %w", err)
		}
		rec.Email = fromText(email)
		rec.Phone = fromText(phone)
		rec.Lane = fromInt4(lane)
		rec.Average = fromInt4(average)
		rec.Handicap = fromInt4(handicap)
		rec.Scores = fromInt32s(scores)
		if len(events) > 0 {
			rec.Events = events
		}
		rec.UpdatedAt = updatedAt.Time
		out = append(out, rec)
	}
	return out, rows.Err()
}

var fieldColumns = map[core.Field]string{
	core.FieldEmail:    "email",
	core.FieldPhone:    "phone",
	core.FieldLane:     "lane",
	core.FieldAverage:  "average",
	core.FieldHandicap: "handicap",
	core.FieldScores:   "scores",
	core.FieldEvents:   "events",
}

// UpdateRecord writes the listed fields of rec and bumps updated_at.
// Fields not listed are left untouched.
func (q *Queries) UpdateRecord(ctx context.Context, rec core.RosterRecord, fields []core.Field) error {
	if len(fields) == 0 {
		return nil
	}

	sets := make([]string, 0, len(fields)+1)
	args := make([]any, 0, len(fields)+1)
	for _, f := range fields {
		col, ok := fieldColumns[f]
		if !ok {
			return fmt.Errorf("no column for field %q", f)
		}
		v, err := columnValue(rec, f)
		if err != nil {
			return fmt.Errorf("%s for %s: %w", f, rec.PID, err)
		}
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", pgx.Identifier{col}.Sanitize(), len(args)))
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, rec.PID)

	sql := fmt.Sprintf("UPDATE roster SET %s WHERE pid = $%d", strings.Join(sets, ", "), len(args))
	tag, err := q.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, rec.PID)
	}
	return nil
}

// columnValue converts one field of rec to its pgx parameter.
func columnValue(rec core.RosterRecord, f core.Field) (any, error) {
	switch f {
	case core.FieldEmail:
		return toText(rec.Email), nil
	case core.FieldPhone:
		return toText(rec.Phone), nil
	case core.FieldLane:
		return toInt4(rec.Lane)
	case core.FieldAverage:
		return toInt4(rec.Average)
	case core.FieldHandicap:
		return toInt4(rec.Handicap)
	case core.FieldScores:
		return toInt32s(rec.Scores)
	case core.FieldEvents:
		if len(rec.Events) == 0 {
			return nil, nil
		}
		return rec.Events, nil
	}
	return nil, nil
}

func toText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func fromText(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

func toInt4(i *int) (pgtype.Int4, error) {
	if i == nil {
		return pgtype.Int4{}, nil
	}
	n, err := toInt32(*i)
	if err != nil {
		return pgtype.Int4{}, err
	}
	return pgtype.Int4{Int32: n, Valid: true}, nil
}

func fromInt4(v pgtype.Int4) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int32)
	return &i
}

func toInt32s(list []int) ([]int32, error) {
	if len(list) == 0 {
		return nil, nil
	}
	out := make([]int32, len(list))
	for i, n := range list {
		v, err := toInt32(n)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func toInt32(n int) (int32, error) {
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %d", ErrOutOfRange, n)
	}
	return int32(n), nil
}

func fromInt32s(list []int32) []int {
	if len(list) == 0 {
		return nil
	}
	out := make([]int, len(list))
	for i, n := range list {
		out[i] = int(n)
	}
	return out
}
