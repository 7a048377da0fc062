// Package migrations embeds the goose migration SQL files for the
// credential/score store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
