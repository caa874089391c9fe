package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/lanes/internal/core"
)

var auditColumns = []string{"id", "actor", "subject_pid", "field", "old_value", "new_value", "changed_at"}

// AppendAudit writes entries with a single COPY.
func (q *Queries) AppendAudit(ctx context.Context, entries []core.AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([][]any, len(entries))
	for i, e := range entries {
		id, err := uuid.Parse(e.ID)
		if err != nil {
			return fmt.Errorf("audit entry id %q: %w", e.ID, err)
		}
		rows[i] = []any{
			pgtype.UUID{Bytes: id, Valid: true},
			e.Actor,
			e.SubjectPID,
			string(e.Field),
			toText(e.OldValue),
			toText(e.NewValue),
			pgtype.Timestamptz{Time: e.ChangedAt, Valid: true},
		}
	}

	n, err := q.db.CopyFrom(ctx, pgx.Identifier{"roster_audit"}, auditColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copy audit entries: %w", err)
	}
	if int(n) != len(entries) {
		return fmt.Errorf("copy audit entries: wrote %d of %d", n, len(entries))
	}
	return nil
}

// auditFilter maps a query onto a WHERE clause.
func auditFilter(f core.AuditQuery) *WhereBuilder {
	wb := NewWhereBuilder()
	wb.Add("subject_pid", f.SubjectPID)
	wb.Add("actor", f.Actor)
	wb.Add("field", string(f.Field))
	wb.AddTimestampRange("changed_at", f.Start, f.End)
	return wb
}

// ListAudit returns one page of entries, newest first, and the total
// number of entries matching the filter.
func (q *Queries) ListAudit(ctx context.Context, f core.AuditQuery) ([]core.AuditEntry, int64, error) {
	wb := auditFilter(f)
	where, args := wb.Build()

	var total int64
	if err := q.db.QueryRow(ctx, "SELECT COUNT(*) FROM roster_audit"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", err)
	}

	query := `SELECT id, actor, subject_pid, field, old_value, new_value, changed_at
		FROM roster_audit` + where +
		fmt.Sprintf(" ORDER BY changed_at DESC, id LIMIT $%d OFFSET $%d", wb.NextArgIndex(), wb.NextArgIndex()+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]core.AuditEntry, 0)
	for rows.Next() {
		var (
			e              core.AuditEntry
			id             pgtype.UUID
			field          string
			oldVal, newVal pgtype.Text
			at             pgtype.Timestamptz
		)
		if err := rows.Scan(&id, &e.Actor, &e.SubjectPID, &field, &oldVal, &newVal, &at); err != nil {
			return nil, 0, fmt.Errorf("scan audit entry: %w", err)
		}
		e.ID = uuid.UUID(id.Bytes).String()
		e.Field = core.Field(field)
		e.OldValue = fromText(oldVal)
		e.NewValue = fromText(newVal)
		e.ChangedAt = at.Time
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

// ClearAudit deletes every entry and returns how many were removed.
func (q *Queries) ClearAudit(ctx context.Context) (int64, error) {
	tag, err := q.db.Exec(ctx, "DELETE FROM roster_audit")
	if err != nil {
		return 0, fmt.Errorf("clear audit log: %w", err)
	}
	return tag.RowsAffected(), nil
}

const purgeAuditSQL = `DELETE FROM roster_audit
WHERE id IN (
	SELECT id FROM roster_audit
	WHERE changed_at < $1
	ORDER BY changed_at
	LIMIT $2
)`

// PurgeAudit deletes up to limit entries changed before cutoff, oldest first.
func (q *Queries) PurgeAudit(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	tag, err := q.db.Exec(ctx, purgeAuditSQL, pgtype.Timestamptz{Time: cutoff, Valid: true}, int32(limit))
	if err != nil {
		return 0, fmt.Errorf("purge audit log: %w", err)
	}
	return tag.RowsAffected(), nil
}

var (
	_ core.Store           = (*Queries)(nil)
	_ core.AuditRepository = (*Queries)(nil)
	_ core.AuditPurger     = (*Queries)(nil)
)
