// Package migrations embeds the SQL schema so the binary can migrate without
// a migrations directory next to it.
package migrations

import "embed"

// FS holds the golang-migrate up/down files at its root.
//
//go:embed *.sql
var FS embed.FS
