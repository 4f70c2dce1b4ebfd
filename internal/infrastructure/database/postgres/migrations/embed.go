// Package migrations holds the goose SQL migrations for the ticketing schema.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
