package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"signet/internal/domain/account"
	"signet/internal/domain/identity"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&account.Account{},
		&identity.ExternalIdentity{},
		&identity.AuthenticationEvent{},
		&identity.RequestToken{},
		&identity.ProviderToken{},
	)
	require.NoError(t, err)

	return db
}

func newTestIdentity(t *testing.T, providerUserID string) *identity.ExternalIdentity {
	t.Helper()
	name := "User One"
	handle := "userone"
	ident, err := identity.NewExternalIdentity(identity.Claim{
		Provider:       identity.ProviderTwitter,
		ProviderUserID: providerUserID,
		Email:          "user@example.com",
		DisplayName:    &name,
		Handle:         &handle,
	}, []byte(`{"ref":"launch"}`))
	require.NoError(t, err)
	return ident
}

func TestExternalIdentityRepository_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewExternalIdentityRepository(db)
	ctx := context.Background()

	ident := newTestIdentity(t, "tw-1001")
	require.NoError(t, repo.Create(ctx, ident))
	assert.NotZero(t, ident.ID)

	found, err := repo.FindByProviderUserID(ctx, identity.ProviderTwitter, "tw-1001")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, ident.ID, found.ID)
	assert.Equal(t, "user@example.com", found.Email)
	assert.Equal(t, "User One", found.DisplayName)
	assert.Equal(t, "userone", found.Handle)
	assert.False(t, found.IsAssociated())
}

func TestExternalIdentityRepository_FindAbsentIsNilNil(t *testing.T) {
	db := setupTestDB(t)
	repo := NewExternalIdentityRepository(db)

	found, err := repo.FindByProviderUserID(context.Background(), identity.ProviderApple, "nobody")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestExternalIdentityRepository_DuplicateCreateReturnsSentinel(t *testing.T) {
	db := setupTestDB(t)
	repo := NewExternalIdentityRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestIdentity(t, "tw-1001")))

	err := repo.Create(ctx, newTestIdentity(t, "tw-1001"))
	require.ErrorIs(t, err, identity.ErrIdentityExists)
}

func TestExternalIdentityRepository_SameUserIDAcrossProviders(t *testing.T) {
	db := setupTestDB(t)
	repo := NewExternalIdentityRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestIdentity(t, "shared-id")))

	apple, err := identity.NewExternalIdentity(identity.Claim{
		Provider:       identity.ProviderApple,
		ProviderUserID: "shared-id",
	}, nil)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, apple), "uniqueness is per provider")
}

func TestExternalIdentityRepository_UpdateSnapshot(t *testing.T) {
	db := setupTestDB(t)
	repo := NewExternalIdentityRepository(db)
	ctx := context.Background()

	ident := newTestIdentity(t, "tw-1001")
	require.NoError(t, repo.Create(ctx, ident))

	newName := "Renamed User"
	newHandle := "renamed"
	changed := ident.ApplySnapshot(identity.Claim{
		Provider:       identity.ProviderTwitter,
		ProviderUserID: "tw-1001",
		Email:          "new@example.com",
		DisplayName:    &newName,
		Handle:         &newHandle,
	})
	require.True(t, changed)
	require.NoError(t, repo.UpdateSnapshot(ctx, ident))

	found, err := repo.FindByProviderUserID(ctx, identity.ProviderTwitter, "tw-1001")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", found.Email)
	assert.Equal(t, "Renamed User", found.DisplayName)
	assert.Equal(t, "renamed", found.Handle)
	// Attribution is creation-only and survives snapshot updates.
	assert.JSONEq(t, `{"ref":"launch"}`, string(found.SignupAttribution))
}

func TestExternalIdentityRepository_AssociateOnce(t *testing.T) {
	db := setupTestDB(t)
	repo := NewExternalIdentityRepository(db)
	ctx := context.Background()

	ident := newTestIdentity(t, "tw-1001")
	require.NoError(t, repo.Create(ctx, ident))

	result, err := repo.Associate(ctx, ident.ID, 11, 42, identity.MethodAuto)
	require.NoError(t, err)
	assert.False(t, result.AlreadyAssociated)
	assert.Equal(t, uint(42), result.Identity.AccountID())
	require.NotNil(t, result.Identity.AssociationMethod)
	assert.Equal(t, string(identity.MethodAuto), *result.Identity.AssociationMethod)
	require.NotNil(t, result.Identity.AssociatedAt)

	// The second writer loses and sees the existing association untouched.
	raced, err := repo.Associate(ctx, ident.ID, 12, 99, identity.MethodManual)
	require.NoError(t, err)
	assert.True(t, raced.AlreadyAssociated)
	assert.Equal(t, uint(42), raced.Identity.AccountID())
	assert.Equal(t, string(identity.MethodAuto), *raced.Identity.AssociationMethod)
}

func TestExternalIdentityRepository_FindAssociatedByAccount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewExternalIdentityRepository(db)
	ctx := context.Background()

	ident := newTestIdentity(t, "tw-1001")
	require.NoError(t, repo.Create(ctx, ident))
	_, err := repo.Associate(ctx, ident.ID, 11, 42, identity.MethodAuto)
	require.NoError(t, err)

	found, err := repo.FindAssociatedByAccount(ctx, 42, identity.ProviderTwitter)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, ident.ID, found.ID)

	none, err := repo.FindAssociatedByAccount(ctx, 42, identity.ProviderApple)
	require.NoError(t, err)
	assert.Nil(t, none)
}
