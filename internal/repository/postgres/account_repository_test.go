package postgres

import (
	"context"
	"testing"
	"time"

	"SubletHubPlatform/internal/domain"
	"SubletHubPlatform/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository_CreateAndFind(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewAccountRepository(pool, time.Second).(*AccountRepository)

	account := seedAccount(t, repo, "alice", day(1))

	byEmail, err := repo.FindByIdentifier(ctx, "  ALICE@example.com ")
	require.NoError(t, err)
	assert.Equal(t, account.ID, byEmail.ID)
	assert.Equal(t, "$2a$04$hash", byEmail.PasswordHash)

	byName, err := repo.FindByIdentifier(ctx, "Alice")
	require.NoError(t, err)
	assert.Equal(t, account.ID, byName.ID)

	_, err = repo.FindByIdentifier(ctx, "bob")
	assert.True(t, errors.HasCode(err, errors.ErrNotFound))

	_, err = repo.FindByID(ctx, "123")
	assert.True(t, errors.HasCode(err, errors.ErrNotFound))
}

func TestAccountRepository_DuplicateFields(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewAccountRepository(pool, time.Second).(*AccountRepository)

	seedAccount(t, repo, "alice", day(1))

	err := repo.Create(ctx, &domain.Account{
		ID:           uuid.NewString(),
		Username:     "alice",
		Email:        "other@example.com",
		PasswordHash: "hash",
		Role:         domain.RoleUser,
		CreatedAt:    day(2),
		UpdatedAt:    day(2),
	})
	require.Error(t, err)
	appErr, ok := err.(*errors.Error)
	require.True(t, ok)
	assert.Equal(t, errors.ErrValidation, appErr.Code)
	assert.Equal(t, "username", appErr.Details)

	err = repo.Create(ctx, &domain.Account{
		ID:           uuid.NewString(),
		Username:     "alice2",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		Role:         domain.RoleUser,
		CreatedAt:    day(2),
		UpdatedAt:    day(2),
	})
	require.Error(t, err)
	appErr, ok = err.(*errors.Error)
	require.True(t, ok)
	assert.Equal(t, "email", appErr.Details)
}

func TestAccountRepository_CountLatestAndLogin(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()
	repo := NewAccountRepository(pool, time.Second).(*AccountRepository)

	first := seedAccount(t, repo, "first", day(1))
	seedAccount(t, repo, "second", day(2))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	latest, err := repo.FindLatest(ctx, 10)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "second", latest[0].Username)

	loginAt := day(3)
	require.NoError(t, repo.TouchLastLogin(ctx, first.ID, loginAt))
	stored, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)
	assert.True(t, loginAt.Equal(*stored.LastLoginAt))

	assert.True(t, errors.HasCode(repo.TouchLastLogin(ctx, uuid.NewString(), loginAt), errors.ErrNotFound))
}
