// Package sqlite implements the URL and access log repositories on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/shortlink/internal/adapter/repository/sqltx"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"modernc.org/sqlite"

	sqlite3 "modernc.org/sqlite/lib"
)

func errorCode(err error) (int, bool) {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code(), true
	}
	return 0, false
}

func isUniqueViolationError(err error) bool {
	code, ok := errorCode(err)
	return ok && (code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY)
}

func isForeignKeyViolationError(err error) bool {
	code, ok := errorCode(err)
	return ok && code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

// uniqueViolationTarget maps a unique violation to the entity error of the violated column.
// SQLite names the column only in the error message.
func uniqueViolationTarget(err error) error {
	if strings.Contains(err.Error(), "urls.original_url") {
		return entity.ErrOriginalURLExists
	}
	return entity.ErrShortCodeExists
}

const urlColumns = `id, original_url, short_code, created_at, expires_at, password_hash`

type urlDB struct {
	ID           int64          `db:"id"`
	OriginalURL  string         `db:"original_url"`
	ShortCode    string         `db:"short_code"`
	CreatedAt    time.Time      `db:"created_at"`
	ExpiresAt    time.Time      `db:"expires_at"`
	PasswordHash sql.NullString `db:"password_hash"`
}

func (u *urlDB) toEntity() *entity.URL {
	return &entity.URL{
		ID:           u.ID,
		ShortCode:    u.ShortCode,
		OriginalURL:  u.OriginalURL,
		PasswordHash: u.PasswordHash.String,
		CreatedAt:    u.CreatedAt,
		ExpiresAt:    u.ExpiresAt,
	}
}

type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{db: db}
}

// WithinTx runs fn in a transaction. Repository calls made with the context
// passed to fn join the transaction.
func (r *URLRepository) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return sqltx.WithinTx(ctx, r.db, fn)
}

func (r *URLRepository) Save(ctx context.Context, url *entity.URL) (*entity.URL, error) {
	const op = "adapter.repository.sqlite.URLRepository.Save"
	const query = `INSERT INTO urls(original_url, short_code, created_at, expires_at, password_hash)
		VALUES (?, ?, ?, ?, ?)
		RETURNING ` + urlColumns

	var rec urlDB

	passwordHash := sql.NullString{String: url.PasswordHash, Valid: url.PasswordHash != ""}

	err := sqltx.Conn(ctx, r.db).GetContext(ctx, &rec, query,
		url.OriginalURL, url.ShortCode, url.CreatedAt.UTC(), url.ExpiresAt.UTC(), passwordHash)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, uniqueViolationTarget(err))
		}

		return nil, fmt.Errorf("%s: failed to insert into urls table: %w", op, err)
	}

	return rec.toEntity(), nil
}

func (r *URLRepository) RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.sqlite.URLRepository.RetrieveByShortCode"
	const query = `SELECT ` + urlColumns + ` FROM urls WHERE short_code = ?`

	return r.retrieve(ctx, op, query, shortCode)
}

func (r *URLRepository) RetrieveByOriginalURL(ctx context.Context, originalURL string) (*entity.URL, error) {
	const op = "adapter.repository.sqlite.URLRepository.RetrieveByOriginalURL"
	const query = `SELECT ` + urlColumns + ` FROM urls WHERE original_url = ?`

	return r.retrieve(ctx, op, query, originalURL)
}

func (r *URLRepository) retrieve(ctx context.Context, op, query, key string) (*entity.URL, error) {
	var rec urlDB

	if err := sqltx.Conn(ctx, r.db).GetContext(ctx, &rec, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from urls table: %w", op, err)
	}

	return rec.toEntity(), nil
}

func (r *URLRepository) Remove(ctx context.Context, shortCode string) error {
	const op = "adapter.repository.sqlite.URLRepository.Remove"
	const query = `DELETE FROM urls WHERE short_code = ?`

	res, err := sqltx.Conn(ctx, r.db).ExecContext(ctx, query, shortCode)
	if err != nil {
		return fmt.Errorf("%s: failed to delete from urls table: %w", op, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get number of affected rows: %w", op, err)
	}

	if rowsAffected != 1 {
		return fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	return nil
}
