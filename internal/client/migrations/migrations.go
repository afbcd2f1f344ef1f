// Package migrations embeds the goose migrations for the client's local store.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
