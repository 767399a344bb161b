// Package postgres implements the URL and access log repositories on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/shortlink/internal/adapter/repository/sqltx"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const (
	uniqueViolationErrCode     = "23505"
	foreignKeyViolationErrCode = "23503"

	originalURLConstraint = "urls_original_url_key"
)

func asPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

func isUniqueViolationError(err error) bool {
	pgErr, ok := asPgError(err)
	return ok && pgErr.SQLState() == uniqueViolationErrCode
}

func isForeignKeyViolationError(err error) bool {
	pgErr, ok := asPgError(err)
	return ok && pgErr.SQLState() == foreignKeyViolationErrCode
}

// uniqueViolationTarget maps a unique violation to the entity error of the violated constraint.
func uniqueViolationTarget(err error) error {
	if pgErr, ok := asPgError(err); ok && pgErr.ConstraintName == originalURLConstraint {
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

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{db: db}
}

// WithinTx runs fn in a transaction. Repository calls made with the context
// passed to fn join the transaction. It commits when fn returns nil.
func (r *URLRepository) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return sqltx.WithinTx(ctx, r.db, fn)
}

func (r *URLRepository) Save(ctx context.Context, url *entity.URL) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.Save"
	const query = `INSERT INTO urls(original_url, short_code, created_at, expires_at, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + urlColumns

	var rec urlDB

	err := sqltx.Conn(ctx, r.db).GetContext(ctx, &rec, query,
		url.OriginalURL, url.ShortCode, url.CreatedAt, url.ExpiresAt, nullString(url.PasswordHash))
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, uniqueViolationTarget(err))
		}

		return nil, fmt.Errorf("%s: failed to insert into urls table: %w", op, err)
	}

	return rec.toEntity(), nil
}

func (r *URLRepository) RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.RetrieveByShortCode"
	const query = `SELECT ` + urlColumns + ` FROM urls WHERE short_code = $1`

	return r.retrieve(ctx, op, query, shortCode)
}

func (r *URLRepository) RetrieveByOriginalURL(ctx context.Context, originalURL string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.RetrieveByOriginalURL"
	const query = `SELECT ` + urlColumns + ` FROM urls WHERE original_url = $1`

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

// Remove deletes the URL. Its access logs are deleted by the foreign key cascade.
func (r *URLRepository) Remove(ctx context.Context, shortCode string) error {
	const op = "adapter.repository.postgres.URLRepository.Remove"
	const query = `DELETE FROM urls WHERE short_code = $1`

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
