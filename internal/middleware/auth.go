package middleware

import (
	"context"
	"net/http"
	"strings"

	"SubletHubPlatform/internal/domain"
	"SubletHubPlatform/internal/service"
	"SubletHubPlatform/pkg/errors"
	"SubletHubPlatform/pkg/logger"
)

const bearerPrefix = "bearer "

// ExtractBearer извлекает токен из заголовка Authorization
func ExtractBearer() Step {
	return func(r *http.Request) (context.Context, error) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
			return nil, errors.New(errors.ErrUnauthorized, "missing credential")
		}

		token := strings.TrimSpace(header[len(bearerPrefix):])
		if token == "" {
			return nil, errors.New(errors.ErrUnauthorized, "missing credential")
		}
		return WithCredential(r.Context(), token), nil
	}
}

// ResolveIdentity проверяет токен и помещает субъекта в контекст
func ResolveIdentity(access service.AccessService, log logger.Logger) Step {
	return func(r *http.Request) (context.Context, error) {
		token, _ := CredentialFrom(r.Context())

		identity, err := access.Authenticate(r.Context(), token)
		if err != nil {
			log.Debug("Credential rejected", logger.CtxField(r.Context()), logger.Error(err))
			return nil, err
		}
		return WithIdentity(r.Context(), identity), nil
	}
}

// RequireRoles пропускает только перечисленные роли
func RequireRoles(access service.AccessService, roles ...domain.Role) Step {
	return func(r *http.Request) (context.Context, error) {
		identity, ok := IdentityFrom(r.Context())
		if !ok {
			return nil, errors.New(errors.ErrUnauthorized, "missing credential")
		}
		if err := access.AuthorizeRoles(identity, roles...); err != nil {
			return nil, err
		}
		return r.Context(), nil
	}
}

// RequireListingOwner пропускает владельца объявления или администратора.
// Загруженное объявление сохраняется в контексте для обработчика.
func RequireListingOwner(access service.AccessService, listingID func(*http.Request) string) Step {
	return func(r *http.Request) (context.Context, error) {
		identity, ok := IdentityFrom(r.Context())
		if !ok {
			return nil, errors.New(errors.ErrUnauthorized, "missing credential")
		}

		listing, err := access.AuthorizeOwnerOrAdmin(r.Context(), identity, listingID(r))
		if err != nil {
			return nil, err
		}
		return WithListing(r.Context(), listing), nil
	}
}

// Authenticated базовая цепочка: извлечение и проверка токена
func Authenticated(access service.AccessService, log logger.Logger) *Pipeline {
	return NewPipeline(ExtractBearer(), ResolveIdentity(access, log))
}
