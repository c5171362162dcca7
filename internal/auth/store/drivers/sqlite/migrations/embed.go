// Package migrations embeds the sqlite schema migrations so they ship
// inside the binary and run through golang-migrate's iofs source.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
