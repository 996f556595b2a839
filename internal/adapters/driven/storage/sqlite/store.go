package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/custodia-labs/sercha-intake/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-intake/internal/logger"
)

// DBFile is the database file name inside the data directory.
const DBFile = "intake.db"

// WAL lets `intake serve` and one-off CLI commands share the file; the busy
// timeout covers the short write locks between them.
const pragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

// Store owns the database handle and hands out the per-concern stores.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens or creates dataDir/intake.db and applies pending
// migrations. An empty dataDir means ~/.intake/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".intake", "data")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	path := filepath.Join(dataDir, DBFile)
	db, err := sql.Open("sqlite", path+pragmas)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(context.Background(), migrations.FS); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

func (s *Store) SourceStore() driven.SourceStore             { return &sourceStore{store: s} }
func (s *Store) AuthProviderStore() driven.AuthProviderStore { return &authProviderStore{store: s} }
func (s *Store) CredentialsStore() driven.CredentialsStore   { return &credentialsStore{store: s} }
func (s *Store) ResultStore() driven.ResultStore             { return &resultStore{store: s} }
func (s *Store) SchedulerStore() driven.SchedulerStore       { return &schedulerStore{store: s} }

// DedupStore returns a dedup store whose error log is bounded by policy.
func (s *Store) DedupStore(policy driven.ErrorLogPolicy) driven.DedupStore {
	return &dedupStore{store: s, policy: policy, now: time.Now}
}

type migration struct {
	version int
	name    string
}

// pendingMigrations lists NNN_name.up.sql files above the applied version,
// in order.
func pendingMigrations(fsys fs.FS, applied int) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("reading migrations: %w", err)
	}
	var out []migration
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		prefix, _, _ := strings.Cut(name, "_")
		v, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("migration %s: version prefix: %w", name, err)
		}
		if v > applied {
			out = append(out, migration{version: v, name: name})
		}
	}
	slices.SortFunc(out, func(a, b migration) int { return a.version - b.version })
	return out, nil
}

// migrate applies each pending migration in its own transaction together
// with its schema_migrations row, so a failed file leaves no partial schema.
func (s *Store) migrate(ctx context.Context, fsys fs.FS) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("creating schema_migrations: %w", err)
	}

	var applied int
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&applied); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	pending, err := pendingMigrations(fsys, applied)
	if err != nil {
		return err
	}
	for _, m := range pending {
		body, err := fs.ReadFile(fsys, m.name)
		if err != nil {
			return fmt.Errorf("reading %s: %w", m.name, err)
		}
		err = s.withTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, string(body)); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
				m.version, time.Now().UnixNano())
			return err
		})
		if err != nil {
			return fmt.Errorf("applying %s: %w", m.name, err)
		}
		logger.Debug("sqlite: applied migration %s", m.name)
	}
	return nil
}

// withTx runs fn inside a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// queryAll runs q and scans every row with scan.
func queryAll[T any](ctx context.Context, db *sql.DB, scan func(rowScanner) (*T, error), q string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

// notFound maps sql.ErrNoRows to domain.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}
