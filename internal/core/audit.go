package core

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/lanes/internal/logging"
)

const (
	// DefaultAuditPageSize is used when a query does not set Limit.
	DefaultAuditPageSize = 50

	// ExportLimit caps the rows written by a single export.
	ExportLimit = 100000
)

// AuditEntry records one committed field change. Entries are append-only;
// the only destructive operation is clearing the whole log.
type AuditEntry struct {
	ID         string    `json:"id"`
	Actor      string    `json:"actor"`
	SubjectPID string    `json:"subject_id"`
	Field      Field     `json:"field"`
	OldValue   *string   `json:"old_value"`
	NewValue   *string   `json:"new_value"`
	ChangedAt  time.Time `json:"changed_at"`
}

// buildAuditEntries creates one entry per change in plan, all stamped with
// the same time.
func buildAuditEntries(actor string, plan Plan, at time.Time, newID func() string) []AuditEntry {
	out := make([]AuditEntry, 0, len(plan.Changes))
	for _, c := range plan.Changes {
		out = append(out, AuditEntry{
			ID:         newID(),
			Actor:      actor,
			SubjectPID: plan.PID,
			Field:      c.Field,
			OldValue:   cloneString(c.Old),
			NewValue:   cloneString(c.New),
			ChangedAt:  at,
		})
	}
	return out
}

// logChanges appends entries in one call. An empty batch writes nothing.
func logChanges(ctx context.Context, w AuditWriter, entries []AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := w.AppendAudit(ctx, entries); err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}

// AuditQuery filters the audit log. Zero values match everything.
type AuditQuery struct {
	SubjectPID string
	Actor      string
	Field      Field
	Start      time.Time
	End        time.Time
	Limit      int
	Offset     int
}

// AuditPage is one page of query results, newest first.
type AuditPage struct {
	Entries    []AuditEntry `json:"entries"`
	TotalCount int64        `json:"total_count"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalPages int          `json:"total_pages"`
}

// AuditRepository reads and clears the persisted log.
type AuditRepository interface {
	ListAudit(ctx context.Context, q AuditQuery) ([]AuditEntry, int64, error)
	ClearAudit(ctx context.Context) (int64, error)
}

// AuditService exposes the log to operators: paging, CSV export and the
// full clear.
type AuditService struct {
	repo AuditRepository
}

func NewAuditService(repo AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// List returns one page of entries.
func (a *AuditService) List(ctx context.Context, q AuditQuery) (*AuditPage, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultAuditPageSize
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	entries, total, err := a.repo.ListAudit(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list audit log: %w", err)
	}
	if entries == nil {
		entries = []AuditEntry{}
	}

	totalPages := int((total + int64(q.Limit) - 1) / int64(q.Limit))
	if totalPages < 1 {
		totalPages = 1
	}
	return &AuditPage{
		Entries:    entries,
		TotalCount: total,
		Page:       q.Offset/q.Limit + 1,
		PageSize:   q.Limit,
		TotalPages: totalPages,
	}, nil
}

// Export writes matching entries as CSV and returns how many were written.
// Null values are written as empty cells.
func (a *AuditService) Export(ctx context.Context, w io.Writer, q AuditQuery) (int, error) {
	q.Limit, q.Offset = ExportLimit, 0
	entries, _, err := a.repo.ListAudit(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("export audit log: %w", err)
	}
	if err := WriteAuditCSV(w, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// WriteAuditCSV renders entries in the export column layout.
func WriteAuditCSV(w io.Writer, entries []AuditEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "actor", "subject_id", "field", "old_value", "new_value", "changed_at"}); err != nil {
		return err
	}
	for _, e := range entries {
		record := []string{
			e.ID,
			e.Actor,
			e.SubjectPID,
			string(e.Field),
			deref(e.OldValue),
			deref(e.NewValue),
			e.ChangedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Clear deletes the whole log. Authorization is the caller's job; the
// actor is only logged.
func (a *AuditService) Clear(ctx context.Context, actor string) (int64, error) {
	if actor == "" {
		return 0, errors.New("audit clear requires an actor")
	}
	n, err := a.repo.ClearAudit(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear audit log: %w", err)
	}
	logging.FromContext(ctx).Warn("audit log cleared", "actor", actor, "entries", n)
	return n, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
