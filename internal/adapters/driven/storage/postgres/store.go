// Package postgres provides a PostgreSQL DedupStore and ResultStore for
// deployments where several intake processes share dedup state.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

//go:embed schema.sql
var schemaSQL string

// Store wraps a connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to dsn, pings the server and applies the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres dsn is empty", domain.ErrInvalidInput)
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	cfg.MaxConns = 20
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 10 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening postgres pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	if err := bootstrap(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func bootstrap(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()
	err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, schemaSQL)
		return err
	})
	if err != nil {
		return fmt.Errorf("applying postgres schema: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// DedupStore returns a DedupStore whose error log is bounded by policy.
func (s *Store) DedupStore(policy driven.ErrorLogPolicy) driven.DedupStore {
	return &dedupStore{pool: s.pool, policy: policy, now: time.Now}
}

// ResultStore returns a ResultStore backed by a JSONB table.
func (s *Store) ResultStore() driven.ResultStore {
	return &resultStore{pool: s.pool}
}

// ==================== Dedup Store ====================

type dedupStore struct {
	pool   *pgxpool.Pool
	policy driven.ErrorLogPolicy
	now    func() time.Time
}

var _ driven.DedupStore = (*dedupStore)(nil)

func (s *dedupStore) IsProcessed(ctx context.Context, sourceID, docID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM processed_documents WHERE source_id = $1 AND document_id = $2)
	`, sourceID, docID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking processed document: %w", err)
	}
	return exists, nil
}

func (s *dedupStore) MarkProcessed(ctx context.Context, doc domain.RawDocument) error {
	if doc.SourceID == "" || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO processed_documents (source_id, document_id, checksum, processed_at)
		VALUES ($1, $2, NULLIF($3, ''), $4)
		ON CONFLICT (source_id, document_id) DO NOTHING
	`, doc.SourceID, doc.ID, doc.Checksum, s.now())
	if doc.Checksum != "" {
		batch.Queue(`
			INSERT INTO checksum_index (checksum, source_id, document_id)
			VALUES ($1, $2, $3)
			ON CONFLICT (checksum) DO NOTHING
		`, doc.Checksum, doc.SourceID, doc.ID)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("marking document processed: %w", err)
		}
		return nil
	})
}

func (s *dedupStore) FindByChecksum(ctx context.Context, checksum string) (driven.ChecksumMatch, bool, error) {
	var m driven.ChecksumMatch
	err := s.pool.QueryRow(ctx,
		`SELECT source_id, document_id FROM checksum_index WHERE checksum = $1`, checksum,
	).Scan(&m.SourceID, &m.DocumentID)
	if errors.Is(err, pgx.ErrNoRows) {
		return driven.ChecksumMatch{}, false, nil
	}
	if err != nil {
		return driven.ChecksumMatch{}, false, fmt.Errorf("looking up checksum: %w", err)
	}
	return m, true, nil
}

func (s *dedupStore) GetSyncState(ctx context.Context, sourceID string) (domain.SyncState, error) {
	state := domain.SyncState{SourceID: sourceID}
	var lastSync *time.Time
	var status string
	err := s.pool.QueryRow(ctx, `
		SELECT last_sync_time, last_document_id, cursor, total_processed, error_count, status, updated_at
		FROM sync_states WHERE source_id = $1
	`, sourceID).Scan(&lastSync, &state.LastDocumentID, &state.Cursor,
		&state.TotalProcessed, &state.ErrorCount, &status, &state.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NewSyncState(sourceID), nil
	}
	if err != nil {
		return domain.SyncState{}, fmt.Errorf("scanning sync state: %w", err)
	}
	if state.Status, err = domain.ParseSyncStatus(status); err != nil {
		return domain.SyncState{}, fmt.Errorf("sync state %s has status %q: %w", sourceID, status, err)
	}
	if lastSync != nil {
		state.LastSyncTime = lastSync.UTC()
	}
	return state, nil
}

func (s *dedupStore) SaveSyncState(ctx context.Context, state domain.SyncState) error {
	if state.SourceID == "" {
		return domain.ErrInvalidInput
	}
	var lastSync *time.Time
	if !state.LastSyncTime.IsZero() {
		lastSync = &state.LastSyncTime
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sync_states
			(source_id, last_sync_time, last_document_id, cursor, total_processed, error_count, status, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (source_id) DO UPDATE SET
			last_sync_time = EXCLUDED.last_sync_time,
			last_document_id = EXCLUDED.last_document_id,
			cursor = EXCLUDED.cursor,
			total_processed = EXCLUDED.total_processed,
			error_count = EXCLUDED.error_count,
			status = CASE WHEN sync_states.status = 'PAUSED' THEN 'PAUSED' ELSE EXCLUDED.status END,
			updated_at = EXCLUDED.updated_at
	`, state.SourceID, lastSync, state.LastDocumentID, state.Cursor,
		state.TotalProcessed, state.ErrorCount, string(state.Status), s.now())
	if err != nil {
		return fmt.Errorf("saving sync state: %w", err)
	}
	return nil
}

func (s *dedupStore) SetStatus(ctx context.Context, sourceID string, status domain.SyncStatus) error {
	if sourceID == "" {
		return domain.ErrInvalidInput
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sync_states (source_id, status, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (source_id) DO UPDATE SET
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`, sourceID, string(status), s.now())
	if err != nil {
		return fmt.Errorf("setting sync status: %w", err)
	}
	return nil
}

func (s *dedupStore) RecordError(ctx context.Context, entry domain.SourceError) error {
	if entry.SourceID == "" {
		return domain.ErrInvalidInput
	}
	if entry.Time.IsZero() {
		entry.Time = s.now()
	}
	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO source_errors (source_id, document_id, message, occurred_at)
		VALUES ($1, $2, $3, $4)
	`, entry.SourceID, entry.DocumentID, entry.Message, entry.Time)
	if s.policy.Retention > 0 {
		batch.Queue(`DELETE FROM source_errors WHERE source_id = $1 AND occurred_at < $2`,
			entry.SourceID, s.cutoff())
	}
	if s.policy.Size > 0 {
		batch.Queue(`
			DELETE FROM source_errors
			WHERE source_id = $1 AND id NOT IN (
				SELECT id FROM source_errors WHERE source_id = $1
				ORDER BY occurred_at DESC, id DESC LIMIT $2
			)
		`, entry.SourceID, s.policy.Size)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("recording source error: %w", err)
		}
		return nil
	})
}

func (s *dedupStore) RecentErrors(ctx context.Context, sourceID string) ([]domain.SourceError, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT source_id, document_id, message, occurred_at FROM source_errors
		WHERE source_id = $1 AND occurred_at >= $2
		ORDER BY occurred_at DESC, id DESC
	`, sourceID, s.cutoff())
	if err != nil {
		return nil, fmt.Errorf("querying source errors: %w", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.SourceError, error) {
		var e domain.SourceError
		err := row.Scan(&e.SourceID, &e.DocumentID, &e.Message, &e.Time)
		e.Time = e.Time.UTC()
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning source errors: %w", err)
	}
	return entries, nil
}

func (s *dedupStore) PruneErrors(ctx context.Context) error {
	if s.policy.Retention <= 0 {
		return nil
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM source_errors WHERE occurred_at < $1`, s.cutoff()); err != nil {
		return fmt.Errorf("pruning source errors: %w", err)
	}
	return nil
}

func (s *dedupStore) Reset(ctx context.Context, sourceID string) error {
	batch := &pgx.Batch{}
	for _, table := range []string{"processed_documents", "checksum_index", "sync_states", "source_errors"} {
		batch.Queue("DELETE FROM "+table+" WHERE source_id = $1", sourceID)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("resetting source %s: %w", sourceID, err)
		}
		return nil
	})
}

func (s *dedupStore) cutoff() time.Time {
	if s.policy.Retention <= 0 {
		return time.Unix(0, 0)
	}
	return s.now().Add(-s.policy.Retention)
}

// ==================== Result Store ====================

type resultStore struct {
	pool *pgxpool.Pool
}

var _ driven.ResultStore = (*resultStore)(nil)

func (s *resultStore) Save(ctx context.Context, sourceID string, result *domain.ProcessingResult) error {
	if result == nil || result.FileID == "" {
		return domain.ErrInvalidInput
	}
	var completed *time.Time
	if !result.CompletedAt.IsZero() {
		completed = &result.CompletedAt
	}
	// pgx encodes the struct as JSON for the jsonb column.
	_, err := s.pool.Exec(ctx, `
		INSERT INTO processing_results (file_id, source_id, stage, success, completed_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (file_id) DO UPDATE SET
			source_id = EXCLUDED.source_id,
			stage = EXCLUDED.stage,
			success = EXCLUDED.success,
			completed_at = EXCLUDED.completed_at,
			payload = EXCLUDED.payload
	`, result.FileID, sourceID, string(result.Stage), result.Success, completed, result)
	if err != nil {
		return fmt.Errorf("saving processing result: %w", err)
	}
	return nil
}

func (s *resultStore) Get(ctx context.Context, fileID string) (*domain.ProcessingResult, error) {
	var r domain.ProcessingResult
	err := s.pool.QueryRow(ctx, `SELECT payload FROM processing_results WHERE file_id = $1`, fileID).Scan(&r)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying processing result: %w", err)
	}
	return &r, nil
}

func (s *resultStore) List(ctx context.Context, sourceID string, limit int) ([]domain.ProcessingResult, error) {
	var lim any
	if limit > 0 {
		lim = limit
	}
	rows, err := s.pool.Query(ctx, `
		SELECT payload FROM processing_results WHERE source_id = $1
		ORDER BY completed_at DESC NULLS LAST, file_id LIMIT $2
	`, sourceID, lim)
	if err != nil {
		return nil, fmt.Errorf("querying processing results: %w", err)
	}
	results, err := pgx.CollectRows(rows, pgx.RowTo[domain.ProcessingResult])
	if err != nil {
		return nil, fmt.Errorf("scanning processing results: %w", err)
	}
	return results, nil
}
