package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/lanes/internal/core"
)

// fakeDB records Exec and CopyFrom calls.
type fakeDB struct {
	affected  int64
	execCalls int
	execSQL   string
	execArgs  []any
	copyTable pgx.Identifier
	copyCols  []string
	copied    [][]any
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execCalls++
	f.execSQL, f.execArgs = sql, args
	return pgconn.NewCommandTag(fmt.Sprintf("UPDATE %d", f.affected)), nil
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row { return nil }

func (f *fakeDB) CopyFrom(_ context.Context, table pgx.Identifier, cols []string, src pgx.CopyFromSource) (int64, error) {
	f.copyTable, f.copyCols = table, cols
	for src.Next() {
		v, err := src.Values()
		if err != nil {
			return 0, err
		}
		f.copied = append(f.copied, v)
	}
	return int64(len(f.copied)), src.Err()
}

func strp(s string) *string { return &s }
func intp(i int) *int       { return &i }

func TestUpdateRecord(t *testing.T) {
	db := &fakeDB{affected: 1}
	rec := core.RosterRecord{PID: "100", Lane: intp(27), Scores: []int{190, 210}}

	if err := New(db).UpdateRecord(context.Background(), rec, []core.Field{core.FieldLane, core.FieldScores, core.FieldHandicap}); err != nil {
		t.Fatal(err)
	}

	wantSQL := `UPDATE roster SET "lane" = $1, "scores" = $2, "handicap" = $3, updated_at = now() WHERE pid = $4`
	if db.execSQL != wantSQL {
		t.Errorf("sql = %s\nwant  %s", db.execSQL, wantSQL)
	}
	wantArgs := []any{pgtype.Int4{Int32: 27, Valid: true}, []int32{190, 210}, pgtype.Int4{}, "100"}
	if !reflect.DeepEqual(db.execArgs, wantArgs) {
		t.Errorf("args = %#v, want %#v", db.execArgs, wantArgs)
	}
}

func TestUpdateRecordNoFields(t *testing.T) {
	db := &fakeDB{affected: 1}
	if err := New(db).UpdateRecord(context.Background(), core.RosterRecord{PID: "1"}, nil); err != nil {
		t.Fatal(err)
	}
	if db.execCalls != 0 {
		t.Errorf("execCalls = %d, want 0", db.execCalls)
	}
}

func TestUpdateRecordMissingPID(t *testing.T) {
	db := &fakeDB{affected: 0}
	err := New(db).UpdateRecord(context.Background(), core.RosterRecord{PID: "404", Phone: strp("555")}, []core.Field{core.FieldPhone})
	if !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("err = %v, want ErrRecordNotFound", err)
	}
}

func TestColumnValueNulls(t *testing.T) {
	rec := core.RosterRecord{PID: "1"}
	for _, f := range []core.Field{core.FieldEmail, core.FieldPhone} {
		if v, err := columnValue(rec, f); err != nil || v != (pgtype.Text{}) {
			t.Errorf("columnValue(%s) = %#v, %v, want NULL text", f, v, err)
		}
	}
	if v, err := columnValue(rec, core.FieldScores); err != nil || v.([]int32) != nil {
		t.Errorf("columnValue(scores) = %#v, %v, want nil", v, err)
	}
	if v, err := columnValue(rec, core.FieldEvents); err != nil || v != nil {
		t.Errorf("columnValue(events) = %#v, %v, want nil", v, err)
	}
}

func TestPgConversionsRoundTrip(t *testing.T) {
	if got := fromText(toText(strp("a@b.c"))); got == nil || *got != "a@b.c" {
		t.Errorf("text round trip = %v", got)
	}
	if fromText(toText(nil)) != nil {
		t.Error("nil text should stay nil")
	}
	v, err := toInt4(intp(-3))
	if got := fromInt4(v); err != nil || got == nil || *got != -3 {
		t.Errorf("int4 round trip = %v, %v", got, err)
	}
	list, err := toInt32s([]int{1, 300})
	if got := fromInt32s(list); err != nil || !reflect.DeepEqual(got, []int{1, 300}) {
		t.Errorf("int list round trip = %v, %v", got, err)
	}
	if fromInt32s([]int32{}) != nil {
		t.Error("empty list should become nil")
	}
}

func TestInt4Overflow(t *testing.T) {
	tests := []struct {
		name string
		rec  core.RosterRecord
		f    core.Field
	}{
		{"lane above int4", core.RosterRecord{PID: "1", Lane: intp(math.MaxInt32 + 1)}, core.FieldLane},
		{"average below int4", core.RosterRecord{PID: "1", Average: intp(math.MinInt32 - 1)}, core.FieldAverage},
		{"score above int4", core.RosterRecord{PID: "1", Scores: []int{200, 3000000000}}, core.FieldScores},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := columnValue(tt.rec, tt.f); !errors.Is(err, ErrOutOfRange) {
				t.Errorf("columnValue() error = %v, want ErrOutOfRange", err)
			}
			db := &fakeDB{affected: 1}
			err := New(db).UpdateRecord(context.Background(), tt.rec, []core.Field{tt.f})
			if !errors.Is(err, ErrOutOfRange) {
				t.Errorf("UpdateRecord() error = %v, want ErrOutOfRange", err)
			}
			if db.execCalls != 0 {
				t.Errorf("execCalls = %d, want 0", db.execCalls)
			}
		})
	}
	if v, err := toInt4(intp(math.MaxInt32)); err != nil || v.Int32 != math.MaxInt32 {
		t.Errorf("toInt4(MaxInt32) = %v, %v", v, err)
	}
}

func TestAppendAudit(t *testing.T) {
	at := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	entries := []core.AuditEntry{
		{ID: "6f1c1b9e-3b2a-4f5e-9d3c-1a2b3c4d5e6f", Actor: "alice", SubjectPID: "100", Field: core.FieldLane, NewValue: strp("27"), ChangedAt: at},
		{ID: "0d9a7e52-8c41-4b6f-a0e3-2f4b6c8d0e1a", Actor: "alice", SubjectPID: "100", Field: core.FieldHandicap, OldValue: strp("10"), NewValue: strp("31"), ChangedAt: at},
	}

	db := &fakeDB{}
	if err := New(db).AppendAudit(context.Background(), entries); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(db.copyTable, pgx.Identifier{"roster_audit"}) {
		t.Errorf("table = %v", db.copyTable)
	}
	if !reflect.DeepEqual(db.copyCols, auditColumns) {
		t.Errorf("columns = %v", db.copyCols)
	}
	if len(db.copied) != 2 {
		t.Fatalf("copied %d rows, want 2", len(db.copied))
	}
	first := db.copied[0]
	if first[1] != "alice" || first[2] != "100" || first[3] != "lane" {
		t.Errorf("row = %v", first)
	}
	if first[4] != (pgtype.Text{}) || first[5] != (pgtype.Text{String: "27", Valid: true}) {
		t.Errorf("old/new = %v / %v", first[4], first[5])
	}
}

func TestAppendAuditRejectsBadID(t *testing.T) {
	db := &fakeDB{}
	err := New(db).AppendAudit(context.Background(), []core.AuditEntry{{ID: "not-a-uuid"}})
	if err == nil {
		t.Fatal("expected error for malformed id")
	}
	if len(db.copied) != 0 {
		t.Error("nothing should be copied")
	}
}

func TestAppendAuditEmpty(t *testing.T) {
	db := &fakeDB{}
	if err := New(db).AppendAudit(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if db.copyTable != nil {
		t.Error("CopyFrom called for an empty batch")
	}
}

func TestMigrateURL(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@db:5432/lanes?sslmode=disable": "pgx5://u:p@db:5432/lanes?sslmode=disable",
		"postgresql://db/lanes":                        "pgx5://db/lanes",
		"pgx5://db/lanes":                              "pgx5://db/lanes",
	}
	for in, want := range tests {
		if got := migrateURL(in); got != want {
			t.Errorf("migrateURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	ups, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	if err != nil {
		t.Fatal(err)
	}
	downs, _ := fs.Glob(migrationsFS, "migrations/*.down.sql")
	if len(ups) == 0 || len(ups) != len(downs) {
		t.Errorf("up = %v, down = %v", ups, downs)
	}
}

func TestName(t *testing.T) {
	if got := Name("postgres://u@localhost:5432/lanes?sslmode=disable"); got != "lanes" {
		t.Errorf("Name() = %q, want lanes", got)
	}
}

func TestPurgeAudit(t *testing.T) {
	db := &fakeDB{affected: 7}
	cutoff := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	n, err := New(db).PurgeAudit(context.Background(), cutoff, 500)
	if err != nil {
		t.Fatal(err)
	}
	if n != 7 {
		t.Errorf("purged = %d, want 7", n)
	}
	if !strings.Contains(db.execSQL, "changed_at < $1") || !strings.Contains(db.execSQL, "LIMIT $2") {
		t.Errorf("sql = %s", db.execSQL)
	}
	ts, ok := db.execArgs[0].(pgtype.Timestamptz)
	if !ok || !ts.Time.Equal(cutoff) {
		t.Errorf("cutoff arg = %#v", db.execArgs[0])
	}
	if db.execArgs[1] != int32(500) {
		t.Errorf("limit arg = %#v", db.execArgs[1])
	}
}
