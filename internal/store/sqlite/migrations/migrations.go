// Package migrations embeds the goose migrations for the sqlite store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
