package postgres

import (
	"context"
	stdErrors "errors"
	"time"

	"SubletHubPlatform/pkg/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultQueryTimeout таймаут запроса, если вызывающий не задал свой
const DefaultQueryTimeout = 5 * time.Second

const (
	pgUniqueViolation   = "23505"
	pgInvalidTextFormat = "22P02"
	pgNumericOutOfRange = "22003"
)

// BaseRepository базовая структура для всех репозиториев PostgreSQL
type BaseRepository struct {
	Pool         *pgxpool.Pool
	QueryTimeout time.Duration
}

// NewBaseRepository создает новый экземпляр базового репозитория
func NewBaseRepository(pool *pgxpool.Pool, queryTimeout time.Duration) *BaseRepository {
	if queryTimeout <= 0 {
		queryTimeout = DefaultQueryTimeout
	}
	return &BaseRepository{Pool: pool, QueryTimeout: queryTimeout}
}

// withTimeout ограничивает запрос таймаутом хранилища
func (r *BaseRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.QueryTimeout)
}

// validID сообщает, является ли id корректным UUID
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// mapError переводит ошибки драйвера в коды приложения
func mapError(err error, notFound string, operation string) error {
	if err == nil {
		return nil
	}

	if stdErrors.Is(err, pgx.ErrNoRows) {
		return errors.New(errors.ErrNotFound, notFound)
	}

	var pgErr *pgconn.PgError
	if stdErrors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return errors.Wrap(err, errors.ErrValidation, "already exists").WithDetails(pgErr.ConstraintName)
		case pgInvalidTextFormat:
			return errors.New(errors.ErrNotFound, notFound)
		case pgNumericOutOfRange:
			return errors.Wrap(err, errors.ErrValidation, "value out of range").WithDetails(pgErr.ColumnName)
		}
	}

	return errors.Wrap(err, errors.ErrUnavailable, operation)
}
