// Package postgres embeds the goose migrations of the PostgreSQL local store.
package postgres

import "embed"

//go:embed *.sql
var Migrations embed.FS
