package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"SubletHubPlatform/internal/domain"
	"SubletHubPlatform/internal/mocks"
	"SubletHubPlatform/internal/pkg/jwt"
	"SubletHubPlatform/internal/service"
	"SubletHubPlatform/pkg/errors"
	"SubletHubPlatform/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testListingID = "5b1c7a52-8d51-4c3e-9d59-0c1e2a20b4f1"

func newAccess() (*service.Access, *mocks.MockTokenManager, *mocks.MockListingRepository) {
	tokens := new(mocks.MockTokenManager)
	listings := new(mocks.MockListingRepository)

	tokens.On("Verify", "owner-token").Return(&jwt.TokenClaims{UserID: "owner", Role: domain.RoleUser}, nil).Maybe()
	tokens.On("Verify", "user-token").Return(&jwt.TokenClaims{UserID: "other", Role: domain.RoleUser}, nil).Maybe()
	tokens.On("Verify", "admin-token").Return(&jwt.TokenClaims{UserID: "root", Role: domain.RoleAdmin}, nil).Maybe()
	tokens.On("Verify", mock.Anything).Return(nil, errors.New(errors.ErrInvalidToken, "invalid token")).Maybe()

	return service.NewAccessService(tokens, listings), tokens, listings
}

func decodeCode(t *testing.T, w *httptest.ResponseRecorder) errors.ErrorCode {
	t.Helper()
	var body errors.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Code
}

func TestExtractBearer(t *testing.T) {
	testCases := []struct {
		name   string
		header string
		token  string
	}{
		{"valid", "Bearer abc.def", "abc.def"},
		{"lowercase scheme", "bearer abc", "abc"},
		{"missing", "", ""},
		{"wrong scheme", "Basic dXNlcjpwYXNz", ""},
		{"empty token", "Bearer   ", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}

			ctx, err := ExtractBearer()(r)
			if tc.token == "" {
				assert.True(t, errors.HasCode(err, errors.ErrUnauthorized))
				return
			}
			require.NoError(t, err)
			token, ok := CredentialFrom(ctx)
			assert.True(t, ok)
			assert.Equal(t, tc.token, token)
		})
	}
}

func TestAuthenticatedPipeline(t *testing.T) {
	access, _, _ := newAccess()
	pipeline := Authenticated(access, logger.NewNop()).Then(RequireRoles(access, domain.RoleAdmin))

	var seen domain.Identity
	handler := pipeline.WrapFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	testCases := []struct {
		name   string
		header string
		status int
		code   errors.ErrorCode
	}{
		{"no header", "", http.StatusUnauthorized, errors.ErrUnauthorized},
		{"bad token", "Bearer garbage", http.StatusUnauthorized, errors.ErrUnauthorized},
		{"wrong role", "Bearer user-token", http.StatusForbidden, errors.ErrForbidden},
		{"admin", "Bearer admin-token", http.StatusOK, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, r)
			assert.Equal(t, tc.status, w.Code)
			if tc.code != "" {
				assert.Equal(t, tc.code, decodeCode(t, w))
				return
			}
			assert.Equal(t, "root", seen.UserID)
		})
	}
}

func TestRequireListingOwner(t *testing.T) {
	access, _, listings := newAccess()
	listing := &domain.Listing{ID: testListingID, OwnerID: "owner"}
	listings.On("GetByID", mock.Anything, testListingID).Return(listing, nil)
	listings.On("GetByID", mock.Anything, "bad-id").Return(nil, errors.New(errors.ErrNotFound, "listing not found"))

	var cached *domain.Listing
	handler := Authenticated(access, logger.NewNop()).
		Then(RequireListingOwner(access, func(r *http.Request) string { return r.URL.Query().Get("id") })).
		WrapFunc(func(w http.ResponseWriter, r *http.Request) {
			cached, _ = ListingFrom(r.Context())
			w.WriteHeader(http.StatusNoContent)
		})

	testCases := []struct {
		name   string
		token  string
		id     string
		status int
	}{
		{"owner", "owner-token", testListingID, http.StatusNoContent},
		{"admin", "admin-token", testListingID, http.StatusNoContent},
		{"stranger", "user-token", testListingID, http.StatusForbidden},
		{"malformed id", "owner-token", "bad-id", http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cached = nil
			r := httptest.NewRequest(http.MethodPut, "/listing?id="+tc.id, nil)
			r.Header.Set("Authorization", "Bearer "+tc.token)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, r)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusNoContent {
				assert.Equal(t, listing, cached)
			} else {
				assert.Nil(t, cached)
			}
		})
	}
}

func TestRequireRolesWithoutIdentity(t *testing.T) {
	access, _, _ := newAccess()
	_, err := RequireRoles(access, domain.RoleUser)(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, errors.HasCode(err, errors.ErrUnauthorized))
}
