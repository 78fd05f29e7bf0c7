// Package migrations embeds the PostgreSQL schema for cmd/migrate.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
