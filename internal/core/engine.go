package core

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/lanes/internal/logging"
)

// Policy holds the tunable parts of reconciliation.
type Policy struct {
	Teams    TeamMatchPolicy
	Handicap HandicapFormula

	// Aliases adds header spellings per canonical column name.
	Aliases map[string][]string
}

// DefaultPolicy returns the league defaults.
func DefaultPolicy() Policy {
	return Policy{
		Teams:    DefaultTeamMatchPolicy(),
		Handicap: DefaultHandicap(),
	}
}

// Observer receives import measurements. Arguments are plain strings so
// implementations need not import this package.
type Observer interface {
	ImportFinished(profile, mode, outcome string, elapsed time.Duration)
	RowsProcessed(outcome string, n int)
	WarningRaised(kind string)
	AuditWritten(n int)
}

type nopObserver struct{}

func (nopObserver) ImportFinished(string, string, string, time.Duration) {}
func (nopObserver) RowsProcessed(string, int)                            {}
func (nopObserver) WarningRaised(string)                                 {}
func (nopObserver) AuditWritten(int)                                     {}

// Engine runs imports. It is safe for concurrent use; each call builds its
// own index and shares nothing with other calls.
type Engine struct {
	policy   Policy
	observer Observer
	now      func() time.Time
	newID    func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver reports measurements to o.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithClock overrides time.Now for audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides the uuid generator for import and audit ids.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

func NewEngine(policy Policy, opts ...Option) *Engine {
	e := &Engine{
		policy:   policy,
		observer: nopObserver{},
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the engine's policy.
func (e *Engine) Policy() Policy { return e.policy }

// MatchedRow is a row resolved to a roster record, with the changes a
// commit would make.
type MatchedRow struct {
	Line       int           `json:"line"`
	Key        string        `json:"key"`
	PID        string        `json:"pid"`
	Name       string        `json:"name"`
	Team       string        `json:"team,omitempty"`
	Via        MatchVia      `json:"via"`
	Candidates int           `json:"candidates"`
	Changes    []FieldChange `json:"changes"`
}

// UnmatchedRow is a row that was not applied, with the reason.
type UnmatchedRow struct {
	Line   int    `json:"line"`
	Key    string `json:"key,omitempty"`
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
}

// Outcome is everything one call produced. Audit holds the entries that
// were handed to the AuditWriter; it is empty for previews.
type Outcome struct {
	ImportID  string
	Profile   string
	Mode      Mode
	Stage     Stage
	Matched   []MatchedRow
	Unmatched []UnmatchedRow
	Warnings  []Warning
	Updated   int
	Skipped   int
	Audit     []AuditEntry
}

// ImportOutcome is the summary returned to callers.
type ImportOutcome struct {
	Updated        int           `json:"updated"`
	Skipped        int           `json:"skipped"`
	MatchedCount   int           `json:"matched_count"`
	UnmatchedCount int           `json:"unmatched_count"`
	Warnings       []WarningView `json:"warnings"`
}

// Summary condenses the outcome.
func (o *Outcome) Summary() ImportOutcome {
	return ImportOutcome{
		Updated:        o.Updated,
		Skipped:        o.Skipped,
		MatchedCount:   len(o.Matched),
		UnmatchedCount: len(o.Unmatched),
		Warnings:       DescribeWarnings(o.Warnings),
	}
}

// Preview runs every stage up to the warning check and returns what a
// commit would do. Nothing is written.
func (e *Engine) Preview(ctx context.Context, roster RosterReader, in Input) (*Outcome, error) {
	if roster == nil {
		return nil, ErrNoRoster
	}
	return e.run(ctx, roster, nil, in, ModePreview)
}

// Commit applies the import through store. Every write goes through store,
// so wrapping it in a transaction makes the call all-or-nothing. A
// *BlockingError is returned together with the outcome that explains it.
func (e *Engine) Commit(ctx context.Context, store Store, in Input) (*Outcome, error) {
	if store == nil {
		return nil, ErrNoRoster
	}
	return e.run(ctx, store, store, in, ModeCommit)
}

// Run dispatches on mode. store may be nil for previews.
func (e *Engine) Run(ctx context.Context, roster RosterReader, store Store, in Input, mode Mode) (*Outcome, error) {
	if mode == ModeCommit {
		return e.Commit(ctx, store, in)
	}
	return e.Preview(ctx, roster, in)
}

type matchedPair struct {
	rec     NormalizedRecord
	current RosterRecord
	plan    Plan
}

func (e *Engine) run(ctx context.Context, roster RosterReader, store Store, in Input, mode Mode) (*Outcome, error) {
	start := e.now()
	out := &Outcome{
		ImportID:  e.newID(),
		Profile:   in.Profile.Key,
		Mode:      mode,
		Matched:   []MatchedRow{},
		Unmatched: []UnmatchedRow{},
		Warnings:  []Warning{},
		Audit:     []AuditEntry{},
	}
	ctx = logging.ContextWithImportID(ctx, out.ImportID)
	log := logging.WithFields(ctx, "profile", in.Profile.Key, "mode", string(mode))

	finish := func(result string) {
		e.observer.ImportFinished(in.Profile.Key, string(mode), result, e.now().Sub(start))
	}

	e.enter(log, out, StageValidating)
	check := ValidateColumns(in.Headers, in.Profile.Rules(e.policy.Aliases))
	if !check.Valid {
		err := &ValidationError{Profile: in.Profile.Key, Missing: check.Missing}
		log.Warn("import rejected", "error", err)
		finish("invalid")
		return nil, err
	}

	e.enter(log, out, StageDeduping)
	dd, err := Dedup(in.Rows, check, in.Profile.Fields())
	if err != nil {
		log.Warn("import aborted", "error", err)
		finish("conflict")
		return nil, err
	}
	out.Warnings = append(out.Warnings, dd.Warnings...)
	out.Unmatched = append(out.Unmatched, dd.Invalid...)

	e.enter(log, out, StageMatching)
	records, err := roster.Snapshot(ctx)
	if err != nil {
		finish("error")
		return nil, fmt.Errorf("load roster: %w", err)
	}
	ix := NewRosterIndex(records)
	matcher := NewMatcher(ix, e.policy.Teams)

	log.Debug("roster loaded", "records", ix.Len())

	var (
		pairs     []matchedPair
		byPID     = make(map[string]int) // pid -> index into pairs
		conflicts conflictSet
	)
	for _, rec := range dd.Records {
		switch res := matcher.Match(rec).(type) {
		case Matched:
			if i, ok := byPID[res.PID]; ok {
				first := pairs[i].rec
				if diff := first.differingValues(rec); len(diff) > 0 {
					conflicts.add("pid:"+res.PID, first.Line, rec.Line, diff)
				} else {
					out.Warnings = append(out.Warnings, DuplicateIdentical{
						Key:       "pid:" + res.PID,
						Line:      rec.Line,
						FirstLine: first.Line,
					})
				}
				continue
			}
			current, _ := ix.Record(res.PID)
			plan, err := planUpsert(rec, current, e.policy.Handicap)
			if err != nil {
				out.Unmatched = append(out.Unmatched, unmatchedRow(rec, err.Error()))
				continue
			}
			byPID[res.PID] = len(pairs)
			pairs = append(pairs, matchedPair{rec: rec, current: current, plan: plan})
			out.Matched = append(out.Matched, MatchedRow{
				Line:       rec.Line,
				Key:        rec.Key,
				PID:        res.PID,
				Name:       current.DisplayName(),
				Team:       current.TeamName,
				Via:        res.Meta.Via,
				Candidates: res.Meta.Candidates,
				Changes:    nonNilChanges(plan.Changes),
			})
		case Unmatched:
			out.Unmatched = append(out.Unmatched, unmatchedRow(rec, res.Reason))
		default:
			panic(fmt.Sprintf("unhandled match result %T", res))
		}
	}
	if err := conflicts.err(); err != nil {
		log.Warn("import aborted", "error", err)
		finish("conflict")
		return nil, err
	}
	sort.SliceStable(out.Unmatched, func(i, j int) bool { return out.Unmatched[i].Line < out.Unmatched[j].Line })

	e.enter(log, out, StageWarningCheck)
	for _, p := range pairs {
		out.Warnings = append(out.Warnings, crossReference(p.rec, p.current, ix, e.policy.Teams)...)
	}
	e.observer.RowsProcessed("matched", len(out.Matched))
	e.observer.RowsProcessed("unmatched", len(out.Unmatched))
	for _, w := range out.Warnings {
		e.observer.WarningRaised(string(w.Kind()))
	}

	if mode == ModePreview {
		e.enter(log, out, StagePreviewReturn)
		e.logSummary(log, out, start)
		finish("preview")
		return out, nil
	}

	if blocking := BlockingWarnings(out.Warnings); len(blocking) > 0 {
		e.enter(log, out, StageBlocked)
		err := &BlockingError{Warnings: blocking}
		log.Warn("commit blocked", "blocking", len(blocking))
		finish("blocked")
		return out, err
	}

	e.enter(log, out, StageCommitting)
	plans := make([]Plan, len(pairs))
	for i, p := range pairs {
		plans[i] = p.plan
	}
	out.Updated, out.Skipped, err = applyPlans(ctx, store, plans)
	if err != nil {
		finish("error")
		return nil, err
	}
	e.observer.RowsProcessed("updated", out.Updated)
	e.observer.RowsProcessed("skipped", out.Skipped)

	e.enter(log, out, StageLogging)
	actor := resolveActor(ctx, in.Actor)
	at := e.now()
	for _, p := range plans {
		if p.Changed() {
			out.Audit = append(out.Audit, buildAuditEntries(actor, p, at, e.newID)...)
		}
	}
	if err := logChanges(ctx, store, out.Audit); err != nil {
		finish("error")
		return nil, err
	}
	e.observer.AuditWritten(len(out.Audit))

	e.enter(log, out, StageDone)
	e.logSummary(log, out, start)
	finish("committed")
	return out, nil
}

func (e *Engine) enter(log *slog.Logger, out *Outcome, s Stage) {
	out.Stage = s
	log.Debug("import stage", "stage", string(s))
}

func (e *Engine) logSummary(log *slog.Logger, out *Outcome, start time.Time) {
	log.Info("import finished",
		"matched", len(out.Matched),
		"unmatched", len(out.Unmatched),
		"warnings", len(out.Warnings),
		"updated", out.Updated,
		"skipped", out.Skipped,
		"audit_entries", len(out.Audit),
		"duration_ms", e.now().Sub(start).Milliseconds(),
	)
}

func unmatchedRow(rec NormalizedRecord, reason string) UnmatchedRow {
	return UnmatchedRow{Line: rec.Line, Key: rec.Key, Name: rec.DisplayName(), Reason: reason}
}

func nonNilChanges(c []FieldChange) []FieldChange {
	if c == nil {
		return []FieldChange{}
	}
	return c
}
