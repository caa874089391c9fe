package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

type batchPurger struct {
	remaining int64
	cutoffs   []time.Time
	failAfter int
}

func (p *batchPurger) PurgeAudit(_ context.Context, cutoff time.Time, limit int) (int64, error) {
	p.cutoffs = append(p.cutoffs, cutoff)
	if p.failAfter > 0 && len(p.cutoffs) > p.failAfter {
		return 0, errors.New("deadlock detected")
	}
	n := min(p.remaining, int64(limit))
	p.remaining -= n
	return n, nil
}

func TestPurgeAuditBatches(t *testing.T) {
	now := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	p := &batchPurger{remaining: 25}

	n, err := PurgeAudit(context.Background(), p, RetentionConfig{MaxAge: 48 * time.Hour, BatchSize: 10}, now)
	if err != nil {
		t.Fatal(err)
	}
	if n != 25 {
		t.Errorf("purged = %d, want 25", n)
	}
	if len(p.cutoffs) != 3 {
		t.Errorf("batches = %d, want 3", len(p.cutoffs))
	}
	if want := now.Add(-48 * time.Hour); !p.cutoffs[0].Equal(want) {
		t.Errorf("cutoff = %v, want %v", p.cutoffs[0], want)
	}
}

func TestPurgeAuditExactMultiple(t *testing.T) {
	p := &batchPurger{remaining: 20}
	n, err := PurgeAudit(context.Background(), p, RetentionConfig{MaxAge: time.Hour, BatchSize: 10}, time.Now())
	if err != nil || n != 20 {
		t.Fatalf("PurgeAudit() = %d, %v", n, err)
	}
	if len(p.cutoffs) != 3 {
		t.Errorf("batches = %d, want a final empty batch", len(p.cutoffs))
	}
}

func TestPurgeAuditDisabled(t *testing.T) {
	p := &batchPurger{remaining: 5}
	n, err := PurgeAudit(context.Background(), p, RetentionConfig{}, time.Now())
	if err != nil || n != 0 || len(p.cutoffs) != 0 {
		t.Errorf("disabled purge ran: n=%d err=%v calls=%d", n, err, len(p.cutoffs))
	}
}

func TestPurgeAuditError(t *testing.T) {
	p := &batchPurger{remaining: 50, failAfter: 2}
	n, err := PurgeAudit(context.Background(), p, RetentionConfig{MaxAge: time.Hour, BatchSize: 10}, time.Now())
	if err == nil {
		t.Fatal("expected error")
	}
	if n != 20 {
		t.Errorf("purged before failure = %d, want 20", n)
	}
}

func TestStartAuditRetentionStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &batchPurger{remaining: 3}
	done := make(chan struct{})
	go func() {
		StartAuditRetention(ctx, p, RetentionConfig{MaxAge: time.Hour, BatchSize: 10, Interval: time.Hour})
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("retention job did not stop")
	}
}
