package ledger

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/dkuznetsov/homeledger/internal/domain/transaction"
)

// MemoryStore is an in-memory Store used for dry-run imports and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records []*transaction.Record
	byID    map[uuid.UUID]*transaction.Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[uuid.UUID]*transaction.Record)}
}

func (s *MemoryStore) Append(_ context.Context, records ...*transaction.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		clone := rec.Clone()
		s.records = append(s.records, clone)
		s.byID[clone.ID] = clone
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*transaction.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (s *MemoryStore) List(_ context.Context, f Filter) ([]*transaction.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*transaction.Record
	for _, rec := range s.records {
		if f.matches(rec) {
			out = append(out, rec.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (s *MemoryStore) ExistingKeys(_ context.Context) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make(map[string]struct{}, len(s.records))
	for _, rec := range s.records {
		keys[rec.DedupeKey()] = struct{}{}
	}
	return keys, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id uuid.UUID, status transaction.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	rec.Status = status
	return nil
}

func (s *MemoryStore) Update(_ context.Context, rec *transaction.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byID[rec.ID]
	if !ok {
		return ErrNotFound
	}
	*existing = *rec.Clone()
	return nil
}

func (s *MemoryStore) Close() error { return nil }
