package core

import (
	"context"
	"time"

	"github.com/JonMunkholm/lanes/internal/logging"
)

// AuditPurger deletes at most limit entries changed before cutoff and
// reports how many went.
type AuditPurger interface {
	PurgeAudit(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}

// RetentionConfig drives the audit retention job. A non-positive MaxAge
// disables it.
type RetentionConfig struct {
	MaxAge    time.Duration
	BatchSize int
	Interval  time.Duration
}

const (
	defaultPurgeBatch    = 5000
	defaultPurgeInterval = 24 * time.Hour
)

// PurgeAudit removes every entry older than cfg.MaxAge relative to now,
// one batch at a time so no single statement holds locks for long.
func PurgeAudit(ctx context.Context, p AuditPurger, cfg RetentionConfig, now time.Time) (int64, error) {
	if cfg.MaxAge <= 0 {
		return 0, nil
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultPurgeBatch
	}
	cutoff := now.Add(-cfg.MaxAge)

	var total int64
	for {
		n, err := p.PurgeAudit(ctx, cutoff, batch)
		total += n
		if err != nil {
			return total, err
		}
		if n < int64(batch) {
			return total, nil
		}
		if err := ctx.Err(); err != nil {
			return total, err
		}
	}
}

// StartAuditRetention purges once immediately and then every cfg.Interval
// until ctx is cancelled. Failures are logged and retried on the next tick.
func StartAuditRetention(ctx context.Context, p AuditPurger, cfg RetentionConfig) {
	if cfg.MaxAge <= 0 {
		return
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultPurgeInterval
	}

	log := logging.FromContext(ctx)
	log.Info("audit retention started", "max_age", cfg.MaxAge, "interval", interval)

	run := func() {
		start := time.Now()
		n, err := PurgeAudit(ctx, p, cfg, start)
		if err != nil {
			log.Error("audit purge failed", "error", err, "purged", n)
			return
		}
		log.Info("audit purge finished", "purged", n, "duration_ms", time.Since(start).Milliseconds())
	}

	run()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("audit retention stopped")
			return
		case <-ticker.C:
			run()
		}
	}
}
