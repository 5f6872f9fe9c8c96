package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"signet/internal/domain/identity"
)

// ExternalIdentityRepository implements identity.Repository using GORM.
type ExternalIdentityRepository struct {
	db *gorm.DB
}

func NewExternalIdentityRepository(db *gorm.DB) identity.Repository {
	return &ExternalIdentityRepository{db: db}
}

func (r *ExternalIdentityRepository) FindByProviderUserID(ctx context.Context, provider identity.Provider, providerUserID string) (*identity.ExternalIdentity, error) {
	var ident identity.ExternalIdentity
	err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_user_id = ?", string(provider), providerUserID).
		First(&ident).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get external identity: %w", err)
	}
	return &ident, nil
}

func (r *ExternalIdentityRepository) Create(ctx context.Context, ident *identity.ExternalIdentity) error {
	if err := r.db.WithContext(ctx).Create(ident).Error; err != nil {
		// A losing concurrent create hits the (provider, provider_user_id)
		// unique index; callers re-read and continue.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return identity.ErrIdentityExists
		}
		return fmt.Errorf("failed to create external identity: %w", err)
	}
	return nil
}

func (r *ExternalIdentityRepository) UpdateSnapshot(ctx context.Context, ident *identity.ExternalIdentity) error {
	err := r.db.WithContext(ctx).
		Model(&identity.ExternalIdentity{}).
		Where("id = ?", ident.ID).
		Updates(map[string]interface{}{
			"email":                ident.Email,
			"is_email_private":     ident.IsEmailPrivate,
			"display_name":         ident.DisplayName,
			"handle":               ident.Handle,
			"real_user_confidence": ident.RealUserConfidence,
			"updated_at":           ident.UpdatedAt,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update identity snapshot: %w", err)
	}
	return nil
}

func (r *ExternalIdentityRepository) Associate(ctx context.Context, identityID, eventID, accountID uint, method identity.AssociationMethod) (*identity.AssociationResult, error) {
	now := time.Now().UTC()

	// Guarded write: only an unassociated row is claimed, so a concurrent
	// writer cannot overwrite an existing association.
	res := r.db.WithContext(ctx).
		Model(&identity.ExternalIdentity{}).
		Where("id = ? AND associated_account_id IS NULL", identityID).
		Updates(map[string]interface{}{
			"associated_account_id": accountID,
			"association_method":    string(method),
			"association_event_id":  eventID,
			"associated_at":         now,
			"updated_at":            now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to associate identity: %w", res.Error)
	}

	var ident identity.ExternalIdentity
	if err := r.db.WithContext(ctx).First(&ident, identityID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload identity after association: %w", err)
	}
	return &identity.AssociationResult{
		Identity:          &ident,
		AlreadyAssociated: res.RowsAffected == 0,
	}, nil
}

func (r *ExternalIdentityRepository) FindAssociatedByAccount(ctx context.Context, accountID uint, provider identity.Provider) (*identity.ExternalIdentity, error) {
	var ident identity.ExternalIdentity
	err := r.db.WithContext(ctx).
		Where("associated_account_id = ? AND provider = ?", accountID, string(provider)).
		First(&ident).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get identity by account: %w", err)
	}
	return &ident, nil
}
