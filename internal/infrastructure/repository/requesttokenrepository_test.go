package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signet/internal/domain/identity"
)

func TestRequestTokenRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRequestTokenRepository(db)
	ctx := context.Background()

	row, err := identity.NewRequestToken("req-1", "sec-1", true, []byte(`{"ref":"launch"}`))
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, row))
	assert.NotZero(t, row.ID)

	found, err := repo.GetByToken(ctx, "req-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "sec-1", found.Secret)
	assert.True(t, found.CallbackConfirmed)
	assert.JSONEq(t, `{"ref":"launch"}`, string(found.SignupAttribution))
}

func TestRequestTokenRepository_GetAbsentIsNilNil(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRequestTokenRepository(db)

	found, err := repo.GetByToken(context.Background(), "no-such-token")
	require.NoError(t, err)
	assert.Nil(t, found)
}
