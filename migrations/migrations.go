// Package migrations embeds the goose SQL migrations so binaries can
// apply them without shipping files alongside the executable.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
