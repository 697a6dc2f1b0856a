// Package dbmigrations exposes the embedded SQL migrations for the ledger database.
package dbmigrations

import "embed"

// Files contains the golang-migrate up/down scripts.
//
//go:embed *.sql
var Files embed.FS
