package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/shortlink/internal/adapter/repository/sqltx"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type accessLogDB struct {
	ID         int64     `db:"id"`
	ShortCode  string    `db:"short_code"`
	AccessedAt time.Time `db:"accessed_at"`
	IPAddress  string    `db:"ip_address"`
}

func (l *accessLogDB) toEntity() entity.AccessLog {
	return entity.AccessLog{
		ID:         l.ID,
		ShortCode:  l.ShortCode,
		AccessedAt: l.AccessedAt,
		IPAddress:  l.IPAddress,
	}
}

type AccessLogRepository struct {
	db *sqlx.DB
}

func NewAccessLogRepository(db *sqlx.DB) *AccessLogRepository {
	return &AccessLogRepository{db: db}
}

// Append records an access. It fails with entity.ErrURLNotFound when the short code is unknown.
func (r *AccessLogRepository) Append(ctx context.Context, log *entity.AccessLog) (*entity.AccessLog, error) {
	const op = "adapter.repository.postgres.AccessLogRepository.Append"
	const query = `INSERT INTO access_logs(short_code, accessed_at, ip_address)
		VALUES ($1, $2, $3)
		RETURNING id, short_code, accessed_at, ip_address`

	var rec accessLogDB

	if err := sqltx.Conn(ctx, r.db).GetContext(ctx, &rec, query, log.ShortCode, log.AccessedAt, log.IPAddress); err != nil {
		if isForeignKeyViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to insert into access_logs table: %w", op, err)
	}

	appended := rec.toEntity()
	return &appended, nil
}

// ListByShortCode returns the access logs of a short code, oldest first.
func (r *AccessLogRepository) ListByShortCode(ctx context.Context, shortCode string) ([]entity.AccessLog, error) {
	const op = "adapter.repository.postgres.AccessLogRepository.ListByShortCode"
	const query = `SELECT id, short_code, accessed_at, ip_address
		FROM access_logs
		WHERE short_code = $1
		ORDER BY accessed_at ASC, id ASC`

	var recs []accessLogDB

	if err := sqltx.Conn(ctx, r.db).SelectContext(ctx, &recs, query, shortCode); err != nil {
		return nil, fmt.Errorf("%s: failed to select from access_logs table: %w", op, err)
	}

	logs := make([]entity.AccessLog, 0, len(recs))
	for _, rec := range recs {
		logs = append(logs, rec.toEntity())
	}

	return logs, nil
}
