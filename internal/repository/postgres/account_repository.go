package postgres

import (
	"context"
	"strings"
	"time"

	"SubletHubPlatform/internal/domain"
	"SubletHubPlatform/internal/repository"
	"SubletHubPlatform/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountColumns = `id, username, email, password_hash, role, last_login_at, created_at, updated_at`

const accountNotFound = "account not found"

// AccountRepository реализация репозитория учетных записей для PostgreSQL
type AccountRepository struct {
	*BaseRepository
}

// NewAccountRepository создает новый экземпляр AccountRepository
func NewAccountRepository(pool *pgxpool.Pool, queryTimeout time.Duration) repository.AccountRepository {
	return &AccountRepository{BaseRepository: NewBaseRepository(pool, queryTimeout)}
}

// Create сохраняет новую учетную запись.
// Нарушение уникальности username или email возвращает VALIDATION_ERROR с именем поля.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `INSERT INTO accounts (id, username, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.Pool.Exec(ctx, query,
		account.ID,
		account.Username,
		account.Email,
		account.PasswordHash,
		string(account.Role),
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err == nil {
		return nil
	}

	mapped := mapError(err, accountNotFound, "failed to create account")
	if e, ok := mapped.(*errors.Error); ok && e.Code == errors.ErrValidation {
		switch e.Details {
		case "accounts_username_key":
			return errors.New(errors.ErrValidation, "username already taken").WithDetails("username")
		case "accounts_email_key":
			return errors.New(errors.ErrValidation, "email already registered").WithDetails("email")
		}
	}
	return mapped
}

// FindByIdentifier ищет учетную запись по email или username без учета регистра
func (r *AccountRepository) FindByIdentifier(ctx context.Context, identifier string) (*domain.Account, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" {
		return nil, errors.New(errors.ErrNotFound, accountNotFound)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	row := r.Pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = $1 OR username = $1 LIMIT 1`, identifier)
	account, err := scanAccount(row)
	if err != nil {
		return nil, mapError(err, accountNotFound, "failed to find account")
	}
	return account, nil
}

// FindByID возвращает учетную запись по id
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	if !validID(id) {
		return nil, errors.New(errors.ErrNotFound, accountNotFound)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	account, err := scanAccount(r.Pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(err, accountNotFound, "failed to get account")
	}
	return account, nil
}

// TouchLastLogin фиксирует время последнего входа
func (r *AccountRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	if !validID(id) {
		return errors.New(errors.ErrNotFound, accountNotFound)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.Pool.Exec(ctx, `UPDATE accounts SET last_login_at = $2, updated_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return mapError(err, accountNotFound, "failed to update last login")
	}
	if tag.RowsAffected() == 0 {
		return errors.New(errors.ErrNotFound, accountNotFound)
	}
	return nil
}

// Count возвращает общее число учетных записей
func (r *AccountRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var total int64
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&total); err != nil {
		return 0, mapError(err, accountNotFound, "failed to count accounts")
	}
	return total, nil
}

// FindLatest возвращает последние зарегистрированные учетные записи
func (r *AccountRepository) FindLatest(ctx context.Context, limit int) ([]*domain.UserSummary, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.Pool.Query(ctx,
		`SELECT id, username, email, role, created_at FROM accounts ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, mapError(err, accountNotFound, "failed to find latest accounts")
	}
	defer rows.Close()

	summaries := make([]*domain.UserSummary, 0, limit)
	for rows.Next() {
		var (
			s    domain.UserSummary
			role string
		)
		if err := rows.Scan(&s.ID, &s.Username, &s.Email, &role, &s.CreatedAt); err != nil {
			return nil, mapError(err, accountNotFound, "failed to scan account summary")
		}
		s.Role = domain.Role(role)
		summaries = append(summaries, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, accountNotFound, "failed to iterate account summaries")
	}
	return summaries, nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		a    domain.Account
		role string
	)
	err := row.Scan(
		&a.ID,
		&a.Username,
		&a.Email,
		&a.PasswordHash,
		&role,
		&a.LastLoginAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Role = domain.Role(role)
	return &a, nil
}
