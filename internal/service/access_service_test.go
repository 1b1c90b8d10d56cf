package service_test

import (
	"context"
	"testing"

	"SubletHubPlatform/internal/domain"
	"SubletHubPlatform/internal/mocks"
	"SubletHubPlatform/internal/pkg/jwt"
	"SubletHubPlatform/internal/service"
	"SubletHubPlatform/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAccessService_Authenticate(t *testing.T) {
	tokens := new(mocks.MockTokenManager)
	svc := service.NewAccessService(tokens, new(mocks.MockListingRepository))

	tokens.On("Verify", "good").Return(&jwt.TokenClaims{UserID: "user-1", Role: domain.RoleUser}, nil)
	tokens.On("Verify", "bad").Return(nil, errors.New(errors.ErrInvalidToken, "invalid token"))

	identity, err := svc.Authenticate(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, domain.Identity{UserID: "user-1", Role: domain.RoleUser}, identity)

	_, err = svc.Authenticate(context.Background(), "bad")
	assert.True(t, errors.HasCode(err, errors.ErrUnauthorized))

	_, err = svc.Authenticate(context.Background(), "")
	assert.True(t, errors.HasCode(err, errors.ErrUnauthorized))
}

func TestAccessService_AuthorizeOwnerOrAdmin(t *testing.T) {
	listing := &domain.Listing{ID: "11111111-1111-1111-1111-111111111111", OwnerID: "owner"}

	testCases := []struct {
		name     string
		identity domain.Identity
		code     errors.ErrorCode
	}{
		{"owner", domain.Identity{UserID: "owner", Role: domain.RoleUser}, ""},
		{"stranger", domain.Identity{UserID: "other", Role: domain.RoleUser}, errors.ErrForbidden},
		{"admin", domain.Identity{UserID: "root", Role: domain.RoleAdmin}, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			listings := new(mocks.MockListingRepository)
			listings.On("GetByID", mock.Anything, listing.ID).Return(listing, nil)
			svc := service.NewAccessService(new(mocks.MockTokenManager), listings)

			got, err := svc.AuthorizeOwnerOrAdmin(context.Background(), tc.identity, listing.ID)
			if tc.code == "" {
				require.NoError(t, err)
				assert.Equal(t, listing, got)
				return
			}
			assert.True(t, errors.HasCode(err, tc.code))
			assert.Nil(t, got)
		})
	}
}

func TestAccessService_AuthorizeOwnerOrAdminNotFound(t *testing.T) {
	listings := new(mocks.MockListingRepository)
	listings.On("GetByID", mock.Anything, "missing").Return(nil, errors.New(errors.ErrNotFound, "listing not found"))
	svc := service.NewAccessService(new(mocks.MockTokenManager), listings)

	_, err := svc.AuthorizeOwnerOrAdmin(context.Background(), domain.Identity{UserID: "root", Role: domain.RoleAdmin}, "missing")
	assert.True(t, errors.HasCode(err, errors.ErrNotFound))
}

func TestAccessService_Roles(t *testing.T) {
	svc := service.NewAccessService(new(mocks.MockTokenManager), new(mocks.MockListingRepository))
	user := domain.Identity{UserID: "u", Role: domain.RoleUser}
	admin := domain.Identity{UserID: "a", Role: domain.RoleAdmin}

	assert.NoError(t, svc.AuthorizeRoles(user, domain.RoleUser, domain.RoleAdmin))
	assert.True(t, errors.HasCode(svc.AuthorizeRoles(user, domain.RoleAdmin), errors.ErrForbidden))
	assert.True(t, errors.HasCode(svc.RequireAdmin(user), errors.ErrForbidden))
	assert.NoError(t, svc.RequireAdmin(admin))
}
