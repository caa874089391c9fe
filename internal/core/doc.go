// Package core reconciles spreadsheet exports against the tournament roster.
//
// An import runs through a fixed pipeline:
//
//	Validating -> Deduping -> Matching -> WarningCheck -> {PreviewReturn | Blocked | Committing} -> Logging -> Done
//
// ValidateColumns confirms the header row carries the columns a Profile needs.
// Dedup collapses rows that share an identity key and aborts the call with a
// *ConflictError when two of them disagree. The Matcher resolves each surviving
// row to exactly one roster record, falling back to the team name when a name
// is shared. Cross-reference checks then attach warnings; blocking ones stop a
// commit but never a preview.
//
// Commits merge incoming values without letting a blank cell erase stored
// data, recompute the handicap, and append one AuditEntry per changed field
// in a single batched write.
//
// The engine holds no connection of its own. Every entry point takes the
// roster capability it needs (RosterReader for previews, Store for commits)
// and the caller owns the transaction around a commit:
//
//	err := database.WithTx(ctx, pool, func(q *database.Queries) error {
//	    out, err := engine.Commit(ctx, q, in)
//	    ...
//	})
//
// Import profiles live in the profiles subpackage and register themselves
// from init(). Import it for side effects:
//
//	import _ "github.com/JonMunkholm/lanes/internal/core/profiles"
package core
