package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

// dedupStore implements driven.DedupStore. Times are stored as unix
// nanoseconds so retention comparisons stay numeric.
type dedupStore struct {
	store  *Store
	policy driven.ErrorLogPolicy
	now    func() time.Time
}

var _ driven.DedupStore = (*dedupStore)(nil)

// IsProcessed reports whether docID is in the source's processed set.
func (s *dedupStore) IsProcessed(ctx context.Context, sourceID, docID string) (bool, error) {
	var one int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT 1 FROM processed_documents WHERE source_id = ? AND document_id = ?",
		sourceID, docID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking processed document: %w", err)
	}
	return true, nil
}

// MarkProcessed records the id and the first owner of its checksum.
func (s *dedupStore) MarkProcessed(ctx context.Context, doc domain.RawDocument) error {
	if doc.SourceID == "" || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	at := s.now().UnixNano()
	return s.store.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO processed_documents (source_id, document_id, checksum, processed_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(source_id, document_id) DO NOTHING
		`, doc.SourceID, doc.ID, nullString(doc.Checksum), at); err != nil {
			return fmt.Errorf("marking document processed: %w", err)
		}
		if doc.Checksum == "" {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO checksum_index (checksum, source_id, document_id)
			VALUES (?, ?, ?)
			ON CONFLICT(checksum) DO NOTHING
		`, doc.Checksum, doc.SourceID, doc.ID); err != nil {
			return fmt.Errorf("indexing checksum: %w", err)
		}
		return nil
	})
}

// FindByChecksum returns the source that first processed the checksum.
func (s *dedupStore) FindByChecksum(ctx context.Context, checksum string) (driven.ChecksumMatch, bool, error) {
	var m driven.ChecksumMatch
	err := s.store.db.QueryRowContext(ctx,
		"SELECT source_id, document_id FROM checksum_index WHERE checksum = ?", checksum,
	).Scan(&m.SourceID, &m.DocumentID)
	if errors.Is(err, sql.ErrNoRows) {
		return driven.ChecksumMatch{}, false, nil
	}
	if err != nil {
		return driven.ChecksumMatch{}, false, fmt.Errorf("looking up checksum: %w", err)
	}
	return m, true, nil
}

// GetSyncState returns the stored state or a fresh one.
func (s *dedupStore) GetSyncState(ctx context.Context, sourceID string) (domain.SyncState, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT last_sync_time, last_document_id, cursor, total_processed, error_count, status, updated_at
		FROM sync_states WHERE source_id = ?
	`, sourceID)

	state := domain.SyncState{SourceID: sourceID}
	var lastSync, updated int64
	var lastDoc, cursor sql.NullString
	var status string
	err := row.Scan(&lastSync, &lastDoc, &cursor, &state.TotalProcessed, &state.ErrorCount, &status, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewSyncState(sourceID), nil
	}
	if err != nil {
		return domain.SyncState{}, fmt.Errorf("scanning sync state: %w", err)
	}

	if state.Status, err = domain.ParseSyncStatus(status); err != nil {
		return domain.SyncState{}, fmt.Errorf("sync state %s has status %q: %w", sourceID, status, err)
	}
	state.LastSyncTime = fromNanos(lastSync)
	state.UpdatedAt = fromNanos(updated)
	state.LastDocumentID = lastDoc.String
	state.Cursor = cursor.String
	return state, nil
}

// SaveSyncState upserts the whole state in one statement. A stored pause
// wins over the incoming status.
func (s *dedupStore) SaveSyncState(ctx context.Context, state domain.SyncState) error {
	if state.SourceID == "" {
		return domain.ErrInvalidInput
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sync_states
			(source_id, last_sync_time, last_document_id, cursor, total_processed, error_count, status, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			last_sync_time = excluded.last_sync_time,
			last_document_id = excluded.last_document_id,
			cursor = excluded.cursor,
			total_processed = excluded.total_processed,
			error_count = excluded.error_count,
			status = CASE WHEN sync_states.status = 'PAUSED' THEN 'PAUSED' ELSE excluded.status END,
			updated_at = excluded.updated_at
	`, state.SourceID, toNanos(state.LastSyncTime), nullString(state.LastDocumentID),
		nullString(state.Cursor), state.TotalProcessed, state.ErrorCount,
		string(state.Status), s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("saving sync state: %w", err)
	}
	return nil
}

// SetStatus upserts only the status column.
func (s *dedupStore) SetStatus(ctx context.Context, sourceID string, status domain.SyncStatus) error {
	if sourceID == "" {
		return domain.ErrInvalidInput
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sync_states (source_id, status, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			status = excluded.status,
			updated_at = excluded.updated_at
	`, sourceID, string(status), s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("setting sync status: %w", err)
	}
	return nil
}

// RecordError appends an entry and trims the log to the policy.
func (s *dedupStore) RecordError(ctx context.Context, entry domain.SourceError) error {
	if entry.SourceID == "" {
		return domain.ErrInvalidInput
	}
	if entry.Time.IsZero() {
		entry.Time = s.now()
	}
	return s.store.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO source_errors (source_id, document_id, message, occurred_at)
			VALUES (?, ?, ?, ?)
		`, entry.SourceID, nullString(entry.DocumentID), entry.Message, entry.Time.UnixNano()); err != nil {
			return fmt.Errorf("recording source error: %w", err)
		}
		if s.policy.Retention > 0 {
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM source_errors WHERE source_id = ? AND occurred_at < ?",
				entry.SourceID, s.cutoff()); err != nil {
				return fmt.Errorf("expiring source errors: %w", err)
			}
		}
		if s.policy.Size > 0 {
			if _, err := tx.ExecContext(ctx, `
				DELETE FROM source_errors
				WHERE source_id = ? AND id NOT IN (
					SELECT id FROM source_errors WHERE source_id = ?
					ORDER BY occurred_at DESC, id DESC LIMIT ?
				)
			`, entry.SourceID, entry.SourceID, s.policy.Size); err != nil {
				return fmt.Errorf("trimming source errors: %w", err)
			}
		}
		return nil
	})
}

// RecentErrors returns retained errors, newest first.
func (s *dedupStore) RecentErrors(ctx context.Context, sourceID string) ([]domain.SourceError, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT document_id, message, occurred_at FROM source_errors
		WHERE source_id = ? AND occurred_at >= ?
		ORDER BY occurred_at DESC, id DESC
	`, sourceID, s.cutoff())
	if err != nil {
		return nil, fmt.Errorf("querying source errors: %w", err)
	}
	defer rows.Close()

	var entries []domain.SourceError //nolint:prealloc // size unknown from query
	for rows.Next() {
		var docID sql.NullString
		var at int64
		entry := domain.SourceError{SourceID: sourceID}
		if err := rows.Scan(&docID, &entry.Message, &at); err != nil {
			return nil, fmt.Errorf("scanning source error: %w", err)
		}
		entry.DocumentID = docID.String
		entry.Time = fromNanos(at)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating source errors: %w", err)
	}
	return entries, nil
}

// PruneErrors drops entries past retention for every source.
func (s *dedupStore) PruneErrors(ctx context.Context) error {
	if s.policy.Retention <= 0 {
		return nil
	}
	if _, err := s.store.db.ExecContext(ctx,
		"DELETE FROM source_errors WHERE occurred_at < ?", s.cutoff()); err != nil {
		return fmt.Errorf("pruning source errors: %w", err)
	}
	return nil
}

// Reset clears all dedup state for a source.
func (s *dedupStore) Reset(ctx context.Context, sourceID string) error {
	return s.store.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"processed_documents", "checksum_index", "sync_states", "source_errors"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE source_id = ?", sourceID); err != nil {
				return fmt.Errorf("resetting %s: %w", table, err)
			}
		}
		return nil
	})
}

// cutoff is the oldest retained error time, or 0 when retention is off.
func (s *dedupStore) cutoff() int64 {
	if s.policy.Retention <= 0 {
		return 0
	}
	return s.now().Add(-s.policy.Retention).UnixNano()
}

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
