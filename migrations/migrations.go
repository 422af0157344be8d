// Package migrations embeds the SQL schema migrations so they ship inside
// the binary and the integration tests.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
