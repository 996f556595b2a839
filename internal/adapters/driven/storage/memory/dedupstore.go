package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

// Ensure DedupStore implements the interface.
var _ driven.DedupStore = (*DedupStore)(nil)

// DedupStore is an in-memory implementation of driven.DedupStore.
// It is shared only within one process; use the sqlite or postgres store
// when several workers sync the same sources.
type DedupStore struct {
	mu        sync.RWMutex
	policy    driven.ErrorLogPolicy
	processed map[string]map[string]struct{}
	checksums map[string]driven.ChecksumMatch
	states    map[string]domain.SyncState
	errors    map[string][]domain.SourceError
	now       func() time.Time
}

// NewDedupStore creates a new in-memory dedup store.
func NewDedupStore(policy driven.ErrorLogPolicy) *DedupStore {
	return &DedupStore{
		policy:    policy,
		processed: make(map[string]map[string]struct{}),
		checksums: make(map[string]driven.ChecksumMatch),
		states:    make(map[string]domain.SyncState),
		errors:    make(map[string][]domain.SourceError),
		now:       time.Now,
	}
}

// IsProcessed reports whether docID is in the source's processed set.
func (s *DedupStore) IsProcessed(_ context.Context, sourceID, docID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.processed[sourceID][docID]
	return ok, nil
}

// MarkProcessed records the document as processed for its source.
func (s *DedupStore) MarkProcessed(_ context.Context, doc domain.RawDocument) error {
	if doc.SourceID == "" || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.processed[doc.SourceID]
	if !ok {
		set = make(map[string]struct{})
		s.processed[doc.SourceID] = set
	}
	set[doc.ID] = struct{}{}
	if doc.Checksum != "" {
		if _, exists := s.checksums[doc.Checksum]; !exists {
			s.checksums[doc.Checksum] = driven.ChecksumMatch{SourceID: doc.SourceID, DocumentID: doc.ID}
		}
	}
	return nil
}

// FindByChecksum looks up the first source that processed the checksum.
func (s *DedupStore) FindByChecksum(_ context.Context, checksum string) (driven.ChecksumMatch, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.checksums[checksum]
	return m, ok, nil
}

// GetSyncState returns the stored state or a fresh one.
func (s *DedupStore) GetSyncState(_ context.Context, sourceID string) (domain.SyncState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[sourceID]
	if !ok {
		return domain.NewSyncState(sourceID), nil
	}
	return state, nil
}

// SaveSyncState replaces the stored state, keeping a stored pause.
func (s *DedupStore) SaveSyncState(_ context.Context, state domain.SyncState) error {
	if state.SourceID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if stored, ok := s.states[state.SourceID]; ok && stored.IsPaused() {
		state.Status = domain.SyncStatusPaused
	}
	state.UpdatedAt = s.now()
	s.states[state.SourceID] = state
	return nil
}

// SetStatus changes only the status of the stored state.
func (s *DedupStore) SetStatus(_ context.Context, sourceID string, status domain.SyncStatus) error {
	if sourceID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.states[sourceID]
	if !ok {
		state = domain.NewSyncState(sourceID)
	}
	state.Status = status
	state.UpdatedAt = s.now()
	s.states[sourceID] = state
	return nil
}

// RecordError appends an entry to the source's bounded error log.
func (s *DedupStore) RecordError(_ context.Context, entry domain.SourceError) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.Time.IsZero() {
		entry.Time = s.now()
	}
	entries := append(s.retained(s.errors[entry.SourceID]), entry)
	if s.policy.Size > 0 && len(entries) > s.policy.Size {
		entries = entries[len(entries)-s.policy.Size:]
	}
	s.errors[entry.SourceID] = entries
	return nil
}

// RecentErrors returns retained errors, newest first.
func (s *DedupStore) RecentErrors(_ context.Context, sourceID string) ([]domain.SourceError, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.retained(s.errors[sourceID])
	out := make([]domain.SourceError, len(entries))
	for i := range entries {
		out[len(entries)-1-i] = entries[i]
	}
	return out, nil
}

// PruneErrors drops expired entries for every source.
func (s *DedupStore) PruneErrors(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, entries := range s.errors {
		s.errors[id] = s.retained(entries)
	}
	return nil
}

// Reset clears all state for a source.
func (s *DedupStore) Reset(_ context.Context, sourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.processed, sourceID)
	delete(s.states, sourceID)
	delete(s.errors, sourceID)
	for sum, m := range s.checksums {
		if m.SourceID == sourceID {
			delete(s.checksums, sum)
		}
	}
	return nil
}

// ProcessedIDs returns the sorted processed set of a source.
func (s *DedupStore) ProcessedIDs(sourceID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.processed[sourceID]))
	for id := range s.processed[sourceID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// retained filters entries past retention. Caller holds the lock.
func (s *DedupStore) retained(entries []domain.SourceError) []domain.SourceError {
	if s.policy.Retention <= 0 {
		return entries
	}
	cutoff := s.now().Add(-s.policy.Retention)
	kept := entries[:0:0]
	for _, e := range entries {
		if !e.Time.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	return kept
}
