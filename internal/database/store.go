package database

import (
	"context"

	"github.com/JonMunkholm/lanes/internal/core"
)

// Pool is what Store needs from a connection pool. *pgxpool.Pool
// satisfies it.
type Pool interface {
	DBTX
	TxBeginner
	Ping(ctx context.Context) error
}

// Store binds Queries to a pool for callers that need transactions.
type Store struct {
	pool Pool
}

func NewStore(pool Pool) *Store {
	return &Store{pool: pool}
}

// Roster reads outside any transaction; previews use it.
func (s *Store) Roster() core.RosterReader { return New(s.pool) }

// Audit reads and clears the audit log.
func (s *Store) Audit() core.AuditRepository { return New(s.pool) }

// InTx runs fn with a Store bound to one transaction.
func (s *Store) InTx(ctx context.Context, fn func(core.Store) error) error {
	return WithTx(ctx, s.pool, func(q *Queries) error { return fn(q) })
}

// Purger returns the audit retention target.
func (s *Store) Purger() core.AuditPurger { return New(s.pool) }

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }
