// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. It implements several store interfaces over one database connection:
//
//   - SourceStore: source configuration
//   - DedupStore: processed-id sets, the checksum index, sync state and error logs
//   - ResultStore: processing records handed off by the sync engine
//   - SchedulerStore: task state and run history
//   - AuthProviderStore and CredentialsStore: OAuth apps and tokens
//
// # Schema
//
// The schema is managed through versioned migrations in the migrations/
// directory. Each applied version is recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.intake/data/intake.db.
//
// # Concurrency
//
// SQLite runs in WAL mode with a busy timeout, so several processes can share
// one dedup store. Multi-statement operations run in a transaction.
package sqlite
