package core

import (
	"context"
	"fmt"
	"math"
	"strconv"
)

// HandicapFormula computes max(0, floor((Base - average) * Factor)).
type HandicapFormula struct {
	Base   float64
	Factor float64
}

// DefaultHandicap is the league formula: 90% of the difference from 225.
func DefaultHandicap() HandicapFormula {
	return HandicapFormula{Base: 225, Factor: 0.9}
}

// Compute returns the handicap for an average.
func (h HandicapFormula) Compute(average int) int {
	// 1e-9 absorbs binary rounding in products like (225-195)*0.9.
	v := math.Floor((h.Base-float64(average))*h.Factor + 1e-9)
	if v < 0 {
		return 0
	}
	return int(v)
}

// FieldChange is one effective difference between the stored and merged
// record, in canonical form.
type FieldChange struct {
	Field Field   `json:"field"`
	Old   *string `json:"old"`
	New   *string `json:"new"`
}

// Plan is the merge for one matched row, computed before anything is written.
type Plan struct {
	PID     string
	Line    int
	Before  RosterRecord
	After   RosterRecord
	Changes []FieldChange
}

// Changed reports whether applying the plan would write anything.
func (p Plan) Changed() bool { return len(p.Changes) > 0 }

// Fields lists the changed fields in change order.
func (p Plan) Fields() []Field {
	out := make([]Field, len(p.Changes))
	for i, c := range p.Changes {
		out[i] = c.Field
	}
	return out
}

// planUpsert merges rec into before. A blank incoming value resolves to the
// stored value, so it can never erase data. The handicap follows the
// effective average whenever the row carries an average column.
func planUpsert(rec NormalizedRecord, before RosterRecord, hc HandicapFormula) (Plan, error) {
	plan := Plan{
		PID:    before.PID,
		Line:   rec.Line,
		Before: before.clone(),
		After:  before.clone(),
	}

	for _, spec := range catalogue {
		if spec.Derived {
			continue
		}
		incoming, present := rec.Values[spec.Field]
		if !present {
			continue
		}
		old := before.Value(spec.Field)
		effective := incoming
		if effective == nil {
			effective = old
		}
		if sameValue(effective, old) {
			continue
		}
		if err := plan.After.SetValue(spec.Field, effective); err != nil {
			return Plan{}, err
		}
		plan.Changes = append(plan.Changes, FieldChange{Field: spec.Field, Old: old, New: cloneString(effective)})
	}

	if _, present := rec.Values[FieldAverage]; present && plan.After.Average != nil {
		h := strconv.Itoa(hc.Compute(*plan.After.Average))
		old := before.Value(FieldHandicap)
		if !sameValue(&h, old) {
			if err := plan.After.SetValue(FieldHandicap, &h); err != nil {
				return Plan{}, err
			}
			plan.Changes = append(plan.Changes, FieldChange{Field: FieldHandicap, Old: old, New: &h})
		}
	}

	return plan, nil
}

// applyPlans writes every changed plan and counts the rest as skipped.
func applyPlans(ctx context.Context, w RosterWriter, plans []Plan) (updated, skipped int, err error) {
	for _, p := range plans {
		if !p.Changed() {
			skipped++
			continue
		}
		if err := w.UpdateRecord(ctx, p.After, p.Fields()); err != nil {
			return updated, skipped, fmt.Errorf("update %s: %w", p.PID, err)
		}
		updated++
	}
	return updated, skipped, nil
}
