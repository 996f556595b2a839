// Package file provides the file-based configuration store.
//
// Configuration lives in a TOML file (~/.intake/config.toml by default).
// Nested tables are flattened into dot-notation keys ("engine.batch_size").
// Environment variables named INTAKE_<SECTION>_<KEY> (optionally loaded from
// a .env file) override file values without being persisted.
package file
