// Package sqlite opens SQLite databases through the pure Go modernc driver.
package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	_ "modernc.org/sqlite"
)

// DSN builds a modernc data source name for the database file at path.
// Foreign keys are enforced and times are written in the sortable SQLite format.
func DSN(path string) string {
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite", path)
}

// New opens the database file at path. SQLite allows a single writer, so the
// pool is limited to one connection.
func New(ctx context.Context, path string) (*sqlx.DB, error) {
	const op = "sqlite.New"

	db, err := sqlx.ConnectContext(ctx, "sqlite", DSN(path))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}

	db.SetMaxOpenConns(1)

	return db, nil
}
