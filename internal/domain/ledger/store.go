// Package ledger persists committed transaction records and serves queries,
// exports, and full-text search over them.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dkuznetsov/homeledger/internal/domain/transaction"
)

// ErrNotFound is returned when a record id does not exist in the store.
var ErrNotFound = errors.New("record not found")

// Filter narrows List results. Zero values mean "no constraint".
type Filter struct {
	From     time.Time // inclusive
	To       time.Time // exclusive
	Type     transaction.Type
	Account  string
	Category string
	Status   transaction.Status
	Source   string
}

func (f Filter) matches(r *transaction.Record) bool {
	if !f.From.IsZero() && r.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !r.Date.Before(f.To) {
		return false
	}
	if f.Type != "" && r.Type != f.Type {
		return false
	}
	if f.Account != "" && r.Account != f.Account && r.AccountTo != f.Account {
		return false
	}
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.Source != "" && r.Source != f.Source {
		return false
	}
	return true
}

// Store is the persistence contract for committed records.
type Store interface {
	// Append inserts records. Records keep the status the pipeline gave
	// them, including duplicate and needs_review.
	Append(ctx context.Context, records ...*transaction.Record) error
	// Get returns one record by id.
	Get(ctx context.Context, id uuid.UUID) (*transaction.Record, error)
	// List returns records matching the filter, ordered by date then
	// insertion order.
	List(ctx context.Context, f Filter) ([]*transaction.Record, error)
	// ExistingKeys returns the dedupe keys of every stored record. Deleted
	// records stay in the set: a tombstone suppresses re-import.
	ExistingKeys(ctx context.Context) (map[string]struct{}, error)
	// UpdateStatus moves a record through the review lifecycle.
	UpdateStatus(ctx context.Context, id uuid.UUID, status transaction.Status) error
	// Update replaces a record's mutable fields after manual review.
	Update(ctx context.Context, rec *transaction.Record) error
	// Close releases the underlying resources.
	Close() error
}

// Archive flips a record to deleted. The row stays in the store as a
// tombstone: it keeps suppressing re-imports but drops out of every
// aggregate.
func Archive(ctx context.Context, s Store, id uuid.UUID) error {
	return s.UpdateStatus(ctx, id, transaction.StatusDeleted)
}
