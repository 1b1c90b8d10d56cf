package middleware

import (
	"context"

	"SubletHubPlatform/internal/domain"
)

type (
	credentialKey struct{}
	identityKey   struct{}
	listingKey    struct{}
)

// WithCredential сохраняет извлеченный токен
func WithCredential(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, credentialKey{}, token)
}

// CredentialFrom возвращает извлеченный токен
func CredentialFrom(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(credentialKey{}).(string)
	return token, ok
}

// WithIdentity сохраняет субъекта запроса
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFrom возвращает субъекта запроса
func IdentityFrom(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(domain.Identity)
	return identity, ok
}

// WithListing сохраняет объявление, загруженное при проверке владельца
func WithListing(ctx context.Context, listing *domain.Listing) context.Context {
	return context.WithValue(ctx, listingKey{}, listing)
}

// ListingFrom возвращает объявление, загруженное при проверке владельца
func ListingFrom(ctx context.Context) (*domain.Listing, bool) {
	listing, ok := ctx.Value(listingKey{}).(*domain.Listing)
	return listing, ok && listing != nil
}
