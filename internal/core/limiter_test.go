package core

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestImportLimiterDefaults(t *testing.T) {
	l := NewImportLimiter(0, 0)
	if got := l.Status().MaxConcurrent; got != DefaultMaxConcurrentImports {
		t.Errorf("MaxConcurrent = %d, want %d", got, DefaultMaxConcurrentImports)
	}
	if l.maxWait != DefaultImportWait {
		t.Errorf("maxWait = %v, want %v", l.maxWait, DefaultImportWait)
	}
}

func TestImportLimiterAcquireRelease(t *testing.T) {
	l := NewImportLimiter(2, 20*time.Millisecond)
	ctx := context.Background()

	if err := l.Acquire(ctx); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if !l.TryAcquire() {
		t.Fatal("TryAcquire() = false with a free slot")
	}
	if l.TryAcquire() {
		t.Fatal("TryAcquire() = true with no free slot")
	}

	st := l.Status()
	if st.Active != 2 || st.Available != 0 {
		t.Errorf("Status() = %+v, want 2 active, 0 available", st)
	}

	if err := l.Acquire(ctx); !errors.Is(err, ErrTooManyImports) {
		t.Errorf("Acquire() on full limiter = %v, want ErrTooManyImports", err)
	}

	l.Release()
	l.Release()
	if st := l.Status(); st.Active != 0 || st.Available != 2 {
		t.Errorf("Status() after release = %+v", st)
	}
}

func TestImportLimiterContextCancel(t *testing.T) {
	l := NewImportLimiter(1, time.Second)
	l.TryAcquire()
	defer l.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Acquire() = %v, want context.Canceled", err)
	}
}

func TestImportLimiterWaitForDrain(t *testing.T) {
	l := NewImportLimiter(1, time.Second)
	l.TryAcquire()

	go func() {
		time.Sleep(20 * time.Millisecond)
		l.Release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := l.WaitForDrain(ctx); err != nil {
		t.Errorf("WaitForDrain() = %v", err)
	}
}

func TestImportLimiterWaitForDrainTimeout(t *testing.T) {
	l := NewImportLimiter(1, time.Second)
	l.TryAcquire()
	defer l.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := l.WaitForDrain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitForDrain() = %v, want deadline exceeded", err)
	}
}
