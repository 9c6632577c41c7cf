package migrations

import "embed"

// FS contains embedded SQLite migrations for rule storage.
//
//go:embed *.sql
var FS embed.FS
