// Package migrations embeds the SQL schema files so the binary can run
// them on startup without a migrations directory on disk.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
