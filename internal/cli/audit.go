package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/lanes/internal/core"
)

type auditFlags struct {
	pid   string
	actor string
	field string
	since string
	until string
}

func (f *auditFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.pid, "pid", "", "only entries for this participant")
	cmd.Flags().StringVar(&f.actor, "actor", "", "only entries written by this actor")
	cmd.Flags().StringVar(&f.field, "field", "", "only entries for this field")
	cmd.Flags().StringVar(&f.since, "since", "", "only entries on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.until, "until", "", "only entries on or before this date (YYYY-MM-DD)")
}

func (f auditFlags) query() (core.AuditQuery, error) {
	q := core.AuditQuery{SubjectPID: f.pid, Actor: f.actor, Field: core.Field(f.field)}
	if f.since != "" {
		t, err := time.Parse(time.DateOnly, f.since)
		if err != nil {
			return q, fmt.Errorf("invalid --since: %w", err)
		}
		q.Start = t
	}
	if f.until != "" {
		t, err := time.Parse(time.DateOnly, f.until)
		if err != nil {
			return q, fmt.Errorf("invalid --until: %w", err)
		}
		q.End = t.Add(24 * time.Hour)
	}
	return q, nil
}

func (a *App) auditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "audit",
		GroupID: "admin",
		Short:   "Read, export or clear the roster change log",
	}
	cmd.AddCommand(a.auditListCommand(), a.auditExportCommand(), a.auditPurgeCommand(), a.auditClearCommand())
	return cmd
}

func (a *App) auditListCommand() *cobra.Command {
	var (
		f     auditFlags
		limit int
		page  int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List audit entries, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := f.query()
			if err != nil {
				return err
			}
			if page < 1 {
				page = 1
			}
			q.Limit = limit
			q.Offset = (page - 1) * limit

			backend, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			result, err := core.NewAuditService(backend.Audit()).List(cmd.Context(), q)
			if err != nil {
				return err
			}

			if a.format == "json" {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CHANGED\tACTOR\tPID\tFIELD\tOLD\tNEW")
			for _, e := range result.Entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					e.ChangedAt.UTC().Format(time.RFC3339), e.Actor, e.SubjectPID, e.Field,
					display(e.OldValue), display(e.NewValue))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "page %d of %d (%d entries)\n", result.Page, result.TotalPages, result.TotalCount)
			return nil
		},
	}
	f.bind(cmd)
	cmd.Flags().IntVar(&limit, "limit", core.DefaultAuditPageSize, "entries per page")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

func (a *App) auditExportCommand() *cobra.Command {
	var (
		f    auditFlags
		path string
	)
	cmd := &cobra.Command{
		Use:     "export",
		Short:   "Write matching audit entries as CSV",
		Example: `  rosterctl audit export --since 2026-03-01 --out march.csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := f.query()
			if err != nil {
				return err
			}
			backend, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}

			w := a.out
			if path != "" && path != "-" {
				file, err := os.Create(path)
				if err != nil {
					return err
				}
				defer file.Close()
				w = file
			}

			n, err := core.NewAuditService(backend.Audit()).Export(cmd.Context(), w, q)
			if err != nil {
				return err
			}
			if w != a.out {
				fmt.Fprintf(a.out, "exported %d entries to %s\n", n, path)
			}
			return nil
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVar(&path, "out", "", "output file (default stdout)")
	return cmd
}

func (a *App) auditClearCommand() *cobra.Command {
	var (
		yes   bool
		actor string
	)
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every audit entry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to clear the audit log without --yes")
			}
			if actor == "" {
				actor = a.cfg.Import.DefaultActor
			}
			backend, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			n, err := core.NewAuditService(backend.Audit()).Clear(cmd.Context(), actor)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "deleted %d audit entries\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the deletion")
	cmd.Flags().StringVar(&actor, "actor", "", "identity recorded in the server log")
	return cmd
}

func (a *App) auditPurgeCommand() *cobra.Command {
	var days, batch int
	cmd := &cobra.Command{
		Use:     "purge",
		Short:   "Delete entries older than a number of days",
		Example: `  rosterctl audit purge --older-than 365`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if days <= 0 {
				days = a.cfg.Audit.RetentionDays
			}
			if days <= 0 {
				return errors.New("--older-than must be positive")
			}
			if batch <= 0 {
				batch = a.cfg.Audit.PurgeBatchSize
			}
			backend, err := a.connect(cmd.Context())
			if err != nil {
				return err
			}
			n, err := core.PurgeAudit(cmd.Context(), backend.Purger(), core.RetentionConfig{
				MaxAge:    time.Duration(days) * 24 * time.Hour,
				BatchSize: batch,
			}, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "purged %d audit entries older than %d days\n", n, days)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "older-than", 0, "age in days (default from AUDIT_RETENTION_DAYS)")
	cmd.Flags().IntVar(&batch, "batch", 0, "rows per delete (default from AUDIT_PURGE_BATCH_SIZE)")
	return cmd
}
