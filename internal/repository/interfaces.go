package repository

import (
	"context"
	"time"

	"SubletHubPlatform/internal/domain"
)

// Ошибки репозиториев выражаются через SubletHubPlatform/pkg/errors:
// NOT_FOUND для отсутствующей записи или некорректного id,
// VALIDATION_ERROR для нарушения уникальности,
// INVALID_OPERATION для проигранного compare-and-set,
// UNAVAILABLE для таймаута или сбоя хранилища.

// ListingRepository интерфейс для работы с объявлениями
type ListingRepository interface {
	Create(ctx context.Context, listing *domain.Listing) error
	GetByID(ctx context.Context, id string) (*domain.Listing, error)
	UpdateByID(ctx context.Context, id string, patch domain.ListingPatch, updatedAt time.Time) (*domain.Listing, error)
	DeleteByID(ctx context.Context, id string) error
	// Find возвращает страницу совпадений, отсортированную по created_at убыванию, и общее число совпадений
	Find(ctx context.Context, filter domain.ListingFilter, skip, limit int) ([]*domain.Listing, int64, error)
	Count(ctx context.Context, filter domain.ListingFilter) (int64, error)
	FindLatest(ctx context.Context, limit int) ([]*domain.ListingSummary, error)
}

// TipRepository интерфейс для работы с чаевыми
type TipRepository interface {
	Create(ctx context.Context, tip *domain.Tip) error
	GetByID(ctx context.Context, id string) (*domain.Tip, error)
	// Transition меняет статус только если текущий статус равен from
	Transition(ctx context.Context, id string, from, to domain.TipStatus, patch domain.TipPatch) (*domain.Tip, error)
	SumAmount(ctx context.Context, filter domain.TipFilter) (float64, error)
	FindLatest(ctx context.Context, limit int) ([]*domain.TipSummary, error)
}

// AccountRepository интерфейс для работы с учетными записями
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	// FindByIdentifier ищет по email или username
	FindByIdentifier(ctx context.Context, identifier string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	Count(ctx context.Context) (int64, error)
	FindLatest(ctx context.Context, limit int) ([]*domain.UserSummary, error)
}

// ListingCache кеш чтения объявлений для публичных запросов
type ListingCache interface {
	Get(ctx context.Context, id string) (*domain.Listing, bool, error)
	Set(ctx context.Context, listing *domain.Listing) error
	Delete(ctx context.Context, id string) error
}
