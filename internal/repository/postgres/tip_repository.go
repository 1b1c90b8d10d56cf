package postgres

import (
	"context"
	stdErrors "errors"
	"strconv"
	"strings"
	"time"

	"SubletHubPlatform/internal/domain"
	"SubletHubPlatform/internal/repository"
	"SubletHubPlatform/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const tipColumns = `id, listing_id, from_user_id, to_user_id, amount, message, status,
	COALESCE(transaction_id, ''), COALESCE(failure_reason, ''), created_at, updated_at`

const tipNotFound = "tip not found"

// TipRepository реализация репозитория чаевых для PostgreSQL
type TipRepository struct {
	*BaseRepository
}

// NewTipRepository создает новый экземпляр TipRepository
func NewTipRepository(pool *pgxpool.Pool, queryTimeout time.Duration) repository.TipRepository {
	return &TipRepository{BaseRepository: NewBaseRepository(pool, queryTimeout)}
}

// Create сохраняет новые чаевые
func (r *TipRepository) Create(ctx context.Context, tip *domain.Tip) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `INSERT INTO tips (id, listing_id, from_user_id, to_user_id, amount, message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.Pool.Exec(ctx, query,
		tip.ID,
		tip.ListingID,
		tip.FromUserID,
		tip.ToUserID,
		tip.Amount,
		tip.Message,
		string(tip.Status),
		tip.CreatedAt,
		tip.UpdatedAt,
	)
	return mapError(err, tipNotFound, "failed to create tip")
}

// GetByID возвращает чаевые по id
func (r *TipRepository) GetByID(ctx context.Context, id string) (*domain.Tip, error) {
	if !validID(id) {
		return nil, errors.New(errors.ErrNotFound, tipNotFound)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tip, err := scanTip(r.Pool.QueryRow(ctx, `SELECT `+tipColumns+` FROM tips WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err, tipNotFound, "failed to get tip")
	}
	return tip, nil
}

// Transition выполняет compare-and-set статуса.
// Если ни одна строка не изменена, статус уже не равен from и возвращается INVALID_OPERATION.
func (r *TipRepository) Transition(ctx context.Context, id string, from, to domain.TipStatus, patch domain.TipPatch) (*domain.Tip, error) {
	if !validID(id) {
		return nil, errors.New(errors.ErrNotFound, tipNotFound)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `UPDATE tips SET
			status = $3,
			transaction_id = COALESCE($4, transaction_id),
			failure_reason = COALESCE($5, failure_reason),
			updated_at = $6
		WHERE id = $1 AND status = $2
		RETURNING ` + tipColumns

	tip, err := scanTip(r.Pool.QueryRow(ctx, query,
		id,
		string(from),
		string(to),
		patch.TransactionID,
		patch.FailureReason,
		patch.UpdatedAt,
	))
	if stdErrors.Is(err, pgx.ErrNoRows) {
		return nil, errors.New(errors.ErrInvalidOperation, "tip is not "+string(from))
	}
	if err != nil {
		return nil, mapError(err, tipNotFound, "failed to transition tip")
	}
	return tip, nil
}

// SumAmount суммирует чаевые по фильтру; пустая выборка дает 0.
// Сумма считается в NUMERIC и читается текстом, поэтому результат точен до копейки.
func (r *TipRepository) SumAmount(ctx context.Context, filter domain.TipFilter) (float64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var (
		conditions []string
		args       []interface{}
	)
	add := func(column string, value string) {
		args = append(args, value)
		conditions = append(conditions, column+" = $"+strconv.Itoa(len(args)))
	}

	if filter.ListingID != "" {
		if !validID(filter.ListingID) {
			return 0, nil
		}
		add("listing_id", filter.ListingID)
	}
	if filter.FromUserID != "" {
		if !validID(filter.FromUserID) {
			return 0, nil
		}
		add("from_user_id", filter.FromUserID)
	}
	if filter.Status != "" {
		add("status", string(filter.Status))
	}

	query := `SELECT COALESCE(SUM(amount), 0)::numeric(14, 2)::text FROM tips`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	var raw string
	if err := r.Pool.QueryRow(ctx, query, args...).Scan(&raw); err != nil {
		return 0, mapError(err, tipNotFound, "failed to sum tips")
	}

	total, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrInternal, "failed to parse tip total")
	}
	return total, nil
}

// FindLatest возвращает последние созданные чаевые
func (r *TipRepository) FindLatest(ctx context.Context, limit int) ([]*domain.TipSummary, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.Pool.Query(ctx,
		`SELECT id, amount, status, from_user_id, listing_id, created_at
		FROM tips ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, mapError(err, tipNotFound, "failed to find latest tips")
	}
	defer rows.Close()

	summaries := make([]*domain.TipSummary, 0, limit)
	for rows.Next() {
		var (
			s      domain.TipSummary
			status string
		)
		if err := rows.Scan(&s.ID, &s.Amount, &status, &s.FromUserID, &s.ListingID, &s.CreatedAt); err != nil {
			return nil, mapError(err, tipNotFound, "failed to scan tip summary")
		}
		s.Status = domain.TipStatus(status)
		summaries = append(summaries, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, tipNotFound, "failed to iterate tip summaries")
	}
	return summaries, nil
}

func scanTip(row pgx.Row) (*domain.Tip, error) {
	var (
		t      domain.Tip
		status string
	)
	err := row.Scan(
		&t.ID,
		&t.ListingID,
		&t.FromUserID,
		&t.ToUserID,
		&t.Amount,
		&t.Message,
		&status,
		&t.TransactionID,
		&t.FailureReason,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Status = domain.TipStatus(status)
	return &t, nil
}
