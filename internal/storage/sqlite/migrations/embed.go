package migrations

import "embed"

// FS contains the embedded world schema migrations.
//
//go:embed *.sql
var FS embed.FS
