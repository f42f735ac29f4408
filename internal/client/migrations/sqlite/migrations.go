// Package sqlite embeds the goose migrations of the SQLite local store.
package sqlite

import "embed"

//go:embed *.sql
var Migrations embed.FS
