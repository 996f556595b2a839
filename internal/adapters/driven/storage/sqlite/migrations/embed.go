// Package migrations carries the numbered SQLite schema files applied by
// sqlite.NewStore on open.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
