package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"signet/internal/domain/identity"
)

// ProviderTokenRepository implements identity.ProviderTokenRepository using
// GORM. Rows are append-only; the newest row per identity is the live
// credential.
type ProviderTokenRepository struct {
	db *gorm.DB
}

func NewProviderTokenRepository(db *gorm.DB) identity.ProviderTokenRepository {
	return &ProviderTokenRepository{db: db}
}

func (r *ProviderTokenRepository) Append(ctx context.Context, token *identity.ProviderToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return fmt.Errorf("failed to append provider token: %w", err)
	}
	return nil
}

func (r *ProviderTokenRepository) LatestByIdentity(ctx context.Context, identityID uint) (*identity.ProviderToken, error) {
	var token identity.ProviderToken
	err := r.db.WithContext(ctx).
		Where("external_identity_id = ?", identityID).
		Order("id DESC").
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get provider token: %w", err)
	}
	return &token, nil
}

func (r *ProviderTokenRepository) DeleteByIdentity(ctx context.Context, identityID uint) error {
	err := r.db.WithContext(ctx).
		Where("external_identity_id = ?", identityID).
		Delete(&identity.ProviderToken{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete provider tokens: %w", err)
	}
	return nil
}
