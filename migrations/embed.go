// Package migrations embeds the SQL migrations of every supported store.
package migrations

import "embed"

// FS holds the migrations, one directory per storage driver.
//
//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS

const (
	PostgresDir = "postgres"
	SQLiteDir   = "sqlite"
)
