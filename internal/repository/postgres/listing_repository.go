package postgres

import (
	"context"
	"fmt"
	"time"

	"SubletHubPlatform/internal/domain"
	"SubletHubPlatform/internal/repository"
	"SubletHubPlatform/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const listingColumns = `id, owner_id, title, description, price, deposit, start_date, end_date,
	location, room_type, furnished, images, created_at, updated_at`

const listingNotFound = "listing not found"

// ListingRepository реализация репозитория объявлений для PostgreSQL
type ListingRepository struct {
	*BaseRepository
}

// NewListingRepository создает новый экземпляр ListingRepository
func NewListingRepository(pool *pgxpool.Pool, queryTimeout time.Duration) repository.ListingRepository {
	return &ListingRepository{BaseRepository: NewBaseRepository(pool, queryTimeout)}
}

// Create сохраняет новое объявление
func (r *ListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `INSERT INTO listings (` + listingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	images := listing.Images
	if images == nil {
		images = []string{}
	}

	_, err := r.Pool.Exec(ctx, query,
		listing.ID,
		listing.OwnerID,
		listing.Title,
		listing.Description,
		listing.Price,
		listing.Deposit,
		listing.StartDate,
		listing.EndDate,
		listing.Location,
		string(listing.RoomType),
		listing.Furnished,
		images,
		listing.CreatedAt,
		listing.UpdatedAt,
	)
	return mapError(err, listingNotFound, "failed to create listing")
}

// GetByID возвращает объявление по id; некорректный id трактуется как отсутствующий
func (r *ListingRepository) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	if !validID(id) {
		return nil, errors.New(errors.ErrNotFound, listingNotFound)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	row := r.Pool.QueryRow(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	listing, err := scanListing(row)
	if err != nil {
		return nil, mapError(err, listingNotFound, "failed to get listing")
	}
	return listing, nil
}

// UpdateByID применяет частичное обновление; неуказанные поля сохраняют текущее значение
func (r *ListingRepository) UpdateByID(ctx context.Context, id string, patch domain.ListingPatch, updatedAt time.Time) (*domain.Listing, error) {
	if !validID(id) {
		return nil, errors.New(errors.ErrNotFound, listingNotFound)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var roomType *string
	if patch.RoomType != nil {
		rt := string(*patch.RoomType)
		roomType = &rt
	}

	query := `UPDATE listings SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			price = COALESCE($4, price),
			deposit = COALESCE($5, deposit),
			start_date = COALESCE($6, start_date),
			end_date = COALESCE($7, end_date),
			location = COALESCE($8, location),
			room_type = COALESCE($9, room_type),
			furnished = COALESCE($10, furnished),
			images = COALESCE($11, images),
			updated_at = $12
		WHERE id = $1
		RETURNING ` + listingColumns

	row := r.Pool.QueryRow(ctx, query,
		id,
		patch.Title,
		patch.Description,
		patch.Price,
		patch.Deposit,
		patch.StartDate,
		patch.EndDate,
		patch.Location,
		roomType,
		patch.Furnished,
		patch.Images,
		updatedAt,
	)

	listing, err := scanListing(row)
	if err != nil {
		return nil, mapError(err, listingNotFound, "failed to update listing")
	}
	return listing, nil
}

// DeleteByID удаляет объявление
func (r *ListingRepository) DeleteByID(ctx context.Context, id string) error {
	if !validID(id) {
		return errors.New(errors.ErrNotFound, listingNotFound)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.Pool.Exec(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return mapError(err, listingNotFound, "failed to delete listing")
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.ErrNotFound, listingNotFound)
	}
	return nil
}

// queryer общие методы пула и транзакции
type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Find возвращает страницу совпадений и их общее число.
// Подсчет и выборка выполняются в одной read-only транзакции REPEATABLE READ и видят один снимок.
func (r *ListingRepository) Find(ctx context.Context, filter domain.ListingFilter, skip, limit int) ([]*domain.Listing, int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, 0, mapError(err, listingNotFound, "failed to begin listing search")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	total, err := countListings(ctx, tx, filter)
	if err != nil {
		return nil, 0, err
	}

	listings := make([]*domain.Listing, 0, limit)
	if total > 0 && int64(skip) < total {
		if listings, err = findListings(ctx, tx, filter, skip, limit); err != nil {
			return nil, 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, mapError(err, listingNotFound, "failed to finish listing search")
	}
	return listings, total, nil
}

// Count возвращает число объявлений, удовлетворяющих фильтру
func (r *ListingRepository) Count(ctx context.Context, filter domain.ListingFilter) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return countListings(ctx, r.Pool, filter)
}

func countListings(ctx context.Context, q queryer, filter domain.ListingFilter) (int64, error) {
	where, args := listingWhere(filter)

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM listings`+where, args...).Scan(&total); err != nil {
		return 0, mapError(err, listingNotFound, "failed to count listings")
	}
	return total, nil
}

func findListings(ctx context.Context, q queryer, filter domain.ListingFilter, skip, limit int) ([]*domain.Listing, error) {
	where, args := listingWhere(filter)
	args = append(args, limit, skip)
	query := fmt.Sprintf(`SELECT %s FROM listings%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		listingColumns, where, len(args)-1, len(args))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, listingNotFound, "failed to find listings")
	}
	defer rows.Close()

	listings := make([]*domain.Listing, 0, limit)
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, mapError(err, listingNotFound, "failed to scan listing")
		}
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, listingNotFound, "failed to iterate listings")
	}
	return listings, nil
}

// FindLatest возвращает последние созданные объявления
func (r *ListingRepository) FindLatest(ctx context.Context, limit int) ([]*domain.ListingSummary, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.Pool.Query(ctx,
		`SELECT id, title, price, location, owner_id, created_at
		FROM listings ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, mapError(err, listingNotFound, "failed to find latest listings")
	}
	defer rows.Close()

	summaries := make([]*domain.ListingSummary, 0, limit)
	for rows.Next() {
		var s domain.ListingSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Price, &s.Location, &s.OwnerID, &s.CreatedAt); err != nil {
			return nil, mapError(err, listingNotFound, "failed to scan listing summary")
		}
		summaries = append(summaries, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, listingNotFound, "failed to iterate listing summaries")
	}
	return summaries, nil
}

func scanListing(row pgx.Row) (*domain.Listing, error) {
	var (
		l        domain.Listing
		roomType string
	)
	err := row.Scan(
		&l.ID,
		&l.OwnerID,
		&l.Title,
		&l.Description,
		&l.Price,
		&l.Deposit,
		&l.StartDate,
		&l.EndDate,
		&l.Location,
		&roomType,
		&l.Furnished,
		&l.Images,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.RoomType = domain.RoomType(roomType)
	return &l, nil
}
