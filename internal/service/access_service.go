package service

import (
	"context"

	"SubletHubPlatform/internal/domain"
	"SubletHubPlatform/internal/pkg/jwt"
	"SubletHubPlatform/internal/repository"
	"SubletHubPlatform/pkg/errors"
)

// AccessService отвечает на вопрос, кто выполняет запрос и что ему разрешено
type AccessService interface {
	Authenticate(ctx context.Context, rawCredential string) (domain.Identity, error)
	AuthorizeRoles(identity domain.Identity, allowed ...domain.Role) error
	AuthorizeOwnerOrAdmin(ctx context.Context, identity domain.Identity, listingID string) (*domain.Listing, error)
	RequireAdmin(identity domain.Identity) error
}

// Access реализация AccessService. Состояние не изменяет.
type Access struct {
	tokens   jwt.TokenManager
	listings repository.ListingRepository
}

// NewAccessService создает сервис контроля доступа
func NewAccessService(tokens jwt.TokenManager, listings repository.ListingRepository) *Access {
	return &Access{tokens: tokens, listings: listings}
}

// Authenticate проверяет токен и восстанавливает субъекта
func (s *Access) Authenticate(ctx context.Context, rawCredential string) (domain.Identity, error) {
	if rawCredential == "" {
		return domain.Identity{}, errors.New(errors.ErrUnauthorized, "missing credential")
	}

	claims, err := s.tokens.Verify(rawCredential)
	if err != nil {
		return domain.Identity{}, errors.Wrap(err, errors.ErrUnauthorized, "invalid or expired credential")
	}
	return claims.Identity(), nil
}

// AuthorizeRoles пропускает только роли из списка
func (s *Access) AuthorizeRoles(identity domain.Identity, allowed ...domain.Role) error {
	for _, role := range allowed {
		if identity.Role == role {
			return nil
		}
	}
	return errors.New(errors.ErrForbidden, "insufficient role")
}

// RequireAdmin пропускает только администратора
func (s *Access) RequireAdmin(identity domain.Identity) error {
	return s.AuthorizeRoles(identity, domain.RoleAdmin)
}

// AuthorizeOwnerOrAdmin загружает объявление из хранилища и проверяет право на изменение
func (s *Access) AuthorizeOwnerOrAdmin(ctx context.Context, identity domain.Identity, listingID string) (*domain.Listing, error) {
	listing, err := s.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}

	if identity.IsAdmin() || listing.OwnerID == identity.UserID {
		return listing, nil
	}
	return nil, errors.New(errors.ErrForbidden, "not the owner of this listing")
}
