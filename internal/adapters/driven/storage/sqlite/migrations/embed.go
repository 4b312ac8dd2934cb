// Package migrations holds the SQLite schema as numbered SQL scripts.
package migrations

import "embed"

// FS holds the up and down scripts.
//
//go:embed *.sql
var FS embed.FS
