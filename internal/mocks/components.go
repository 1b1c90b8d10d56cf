package mocks

import (
	"context"
	"time"

	"SubletHubPlatform/internal/domain"
	"SubletHubPlatform/internal/pkg/jwt"

	"github.com/stretchr/testify/mock"
)

// MockTokenManager мок для jwt.TokenManager
type MockTokenManager struct {
	mock.Mock
}

func (m *MockTokenManager) Issue(userID string, role domain.Role) (string, error) {
	args := m.Called(userID, role)
	return args.String(0), args.Error(1)
}

func (m *MockTokenManager) Verify(token string) (*jwt.TokenClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jwt.TokenClaims), args.Error(1)
}

// MockHasher мок для password.Hasher
type MockHasher struct {
	mock.Mock
}

func (m *MockHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockHasher) Verify(password, hash string) (bool, error) {
	args := m.Called(password, hash)
	return args.Bool(0), args.Error(1)
}

// MockTipEventPublisher мок для публикации событий чаевых
type MockTipEventPublisher struct {
	mock.Mock
}

func (m *MockTipEventPublisher) PublishTipEvent(ctx context.Context, event *domain.TipEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockRateLimiter мок для ratelimit.RateLimiter
type MockRateLimiter struct {
	mock.Mock
}

func (m *MockRateLimiter) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

// FixedClock возвращает часы, всегда показывающие t
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
