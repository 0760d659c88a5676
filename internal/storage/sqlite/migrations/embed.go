package migrations

import "embed"

// FS contains embedded SQLite migrations for policy storage.
//
//go:embed *.sql
var FS embed.FS
