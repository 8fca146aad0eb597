// Package migrations embeds the SQL applied after the schema migration:
// the row-level-security policies fencing tenant-scoped tables.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
