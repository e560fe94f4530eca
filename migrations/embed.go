// Package migrations embeds the SQL schema so the server and cmd/migrate
// ship it inside the binary.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
