package service

import (
	"context"
	"math"
	"strings"
	"time"

	"SubletHubPlatform/internal/domain"
	"SubletHubPlatform/internal/repository"
	"SubletHubPlatform/pkg/errors"
	"SubletHubPlatform/pkg/logger"
	"SubletHubPlatform/pkg/validation"

	"github.com/google/uuid"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	maxTitleLength       = 100
	maxDescriptionLength = 2000
	maxLocationLength    = 200
)

// CreateListingRequest данные нового объявления
type CreateListingRequest struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Deposit     float64   `json:"deposit"`
	StartDate   time.Time `json:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required"`
	Location    string    `json:"location" validate:"required"`
	RoomType    string    `json:"room_type" validate:"required"`
	Furnished   bool      `json:"furnished"`
	Images      []string  `json:"images" validate:"omitempty,dive,httpurl"`
}

// ListingService интерфейс для работы с объявлениями
type ListingService interface {
	Search(ctx context.Context, constraint domain.SearchConstraint) (*domain.ListingPage, error)
	GetByID(ctx context.Context, id string) (*domain.Listing, error)
	Create(ctx context.Context, identity domain.Identity, req CreateListingRequest) (*domain.Listing, error)
	Update(ctx context.Context, current *domain.Listing, patch domain.ListingPatch) (*domain.Listing, error)
	Delete(ctx context.Context, current *domain.Listing) error
}

// Listings реализация ListingService
type Listings struct {
	repo        repository.ListingRepository
	cache       repository.ListingCache
	validator   *validation.Validator
	maxPageSize int
	now         func() time.Time
	logger      logger.Logger
}

// NewListingService создает сервис объявлений; cache может быть nil
func NewListingService(
	repo repository.ListingRepository,
	cache repository.ListingCache,
	maxPageSize int,
	now func() time.Time,
	log logger.Logger,
) *Listings {
	if maxPageSize <= 0 {
		maxPageSize = MaxPageSize
	}
	return &Listings{
		repo:        repo,
		cache:       cache,
		validator:   validation.NewValidator(),
		maxPageSize: maxPageSize,
		now:         clock(now),
		logger:      log.With(logger.String("component", "listing_service")),
	}
}

// Search подбирает объявления, пересекающиеся с запрошенным интервалом.
// Результат отсортирован от новых к старым, страницы нумеруются с 1.
func (s *Listings) Search(ctx context.Context, c domain.SearchConstraint) (*domain.ListingPage, error) {
	if err := s.validateConstraint(c); err != nil {
		return nil, err
	}

	skip := (c.Page - 1) * c.PageSize
	items, total, err := s.repo.Find(ctx, c.Filter(), skip, c.PageSize)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*domain.Listing{}
	}

	return &domain.ListingPage{
		Items:      items,
		TotalCount: total,
		Page:       c.Page,
		PageSize:   c.PageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(c.PageSize))),
	}, nil
}

func (s *Listings) validateConstraint(c domain.SearchConstraint) error {
	if c.Page < 1 {
		return invalidInput("page must be at least 1")
	}
	if c.PageSize < 1 {
		return invalidInput("page_size must be at least 1")
	}
	if c.PageSize > s.maxPageSize {
		return invalidInput("page_size must not exceed %d", s.maxPageSize)
	}
	if c.StartDate != nil && c.EndDate != nil && c.StartDate.After(*c.EndDate) {
		return invalidInput("start_date must not be after end_date")
	}
	if c.MinPrice != nil {
		if err := s.validator.ValidatePrice(*c.MinPrice, "min_price"); err != nil {
			return err
		}
	}
	if c.MaxPrice != nil {
		if err := s.validator.ValidatePrice(*c.MaxPrice, "max_price"); err != nil {
			return err
		}
	}
	if c.MinPrice != nil && c.MaxPrice != nil && *c.MinPrice > *c.MaxPrice {
		return invalidInput("min_price must not exceed max_price")
	}
	return nil
}

// GetByID возвращает объявление, сначала проверяя кеш
func (s *Listings) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.New(errors.ErrNotFound, "listing not found")
	}

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, id)
		if err != nil {
			s.logger.Warn("Listing cache read failed", logger.CtxField(ctx), logger.String("listing_id", id), logger.Error(err))
		}
		if ok {
			return cached, nil
		}
	}

	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, listing); err != nil {
			s.logger.Warn("Listing cache write failed", logger.CtxField(ctx), logger.String("listing_id", id), logger.Error(err))
		}
	}
	return listing, nil
}

// Create публикует объявление от имени identity
func (s *Listings) Create(ctx context.Context, identity domain.Identity, req CreateListingRequest) (*domain.Listing, error) {
	if identity.UserID == "" {
		return nil, errors.New(errors.ErrUnauthorized, "missing credential")
	}
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	now := s.now()
	listing := &domain.Listing{
		ID:          uuid.New().String(),
		OwnerID:     identity.UserID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		Deposit:     req.Deposit,
		StartDate:   req.StartDate.UTC(),
		EndDate:     req.EndDate.UTC(),
		Location:    strings.TrimSpace(req.Location),
		RoomType:    domain.RoomType(req.RoomType),
		Furnished:   req.Furnished,
		Images:      req.Images,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if listing.Images == nil {
		listing.Images = []string{}
	}

	if err := s.validateListing(listing); err != nil {
		return nil, err
	}
	if err := s.validateStartNotPast(listing.StartDate, now); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, listing); err != nil {
		return nil, err
	}

	s.logger.Info("Listing created",
		logger.CtxField(ctx),
		logger.String("listing_id", listing.ID),
		logger.String("owner_id", listing.OwnerID),
	)
	return listing, nil
}

// Update применяет частичное изменение к уже авторизованному объявлению.
// Результат слияния проверяется целиком до записи.
func (s *Listings) Update(ctx context.Context, current *domain.Listing, patch domain.ListingPatch) (*domain.Listing, error) {
	merged := patch.Apply(*current)
	if err := s.validateListing(&merged); err != nil {
		return nil, err
	}

	now := s.now()
	if patch.StartDate != nil {
		if err := s.validateStartNotPast(merged.StartDate, now); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.UpdateByID(ctx, current.ID, patch, now)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, current.ID)
	s.logger.Info("Listing updated", logger.CtxField(ctx), logger.String("listing_id", current.ID))
	return updated, nil
}

// Delete безвозвратно удаляет объявление
func (s *Listings) Delete(ctx context.Context, current *domain.Listing) error {
	if err := s.repo.DeleteByID(ctx, current.ID); err != nil {
		return err
	}

	s.invalidate(ctx, current.ID)
	s.logger.Info("Listing deleted", logger.CtxField(ctx), logger.String("listing_id", current.ID))
	return nil
}

func (s *Listings) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, id); err != nil {
		s.logger.Warn("Listing cache invalidation failed", logger.CtxField(ctx), logger.String("listing_id", id), logger.Error(err))
	}
}

func (s *Listings) validateListing(l *domain.Listing) error {
	if err := s.validator.ValidateStringLength(l.Title, "title", 1, maxTitleLength); err != nil {
		return err
	}
	if err := s.validator.ValidateStringLength(l.Description, "description", 0, maxDescriptionLength); err != nil {
		return err
	}
	if err := s.validator.ValidateStringLength(l.Location, "location", 1, maxLocationLength); err != nil {
		return err
	}
	if err := s.validator.ValidatePrice(l.Price, "price"); err != nil {
		return err
	}
	if err := s.validator.ValidatePrice(l.Deposit, "deposit"); err != nil {
		return err
	}
	if err := s.validator.ValidateDateRange(l.StartDate, l.EndDate, "availability"); err != nil {
		return err
	}
	if err := s.validator.ValidateEnum(string(l.RoomType), domain.RoomTypes(), "room_type"); err != nil {
		return err
	}
	return s.validator.ValidateHTTPURLs(l.Images, "images")
}

// Дата начала сравнивается с началом текущих суток в UTC
func (s *Listings) validateStartNotPast(start, now time.Time) error {
	today := now.UTC().Truncate(24 * time.Hour)
	if start.Before(today) {
		return invalidInput("start_date must not be in the past")
	}
	return nil
}
