package identity

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// ExternalIdentity is one provider account, unique per
// (provider, provider_user_id). It carries the latest snapshot the provider
// reported and, once set, a permanent association to a platform account.
type ExternalIdentity struct {
	ID                 uint    `gorm:"primarykey"`
	Provider           string  `gorm:"not null;size:32;uniqueIndex:uk_identities_provider_user"`
	ProviderUserID     string  `gorm:"not null;size:255;uniqueIndex:uk_identities_provider_user;column:provider_user_id"`
	Email              string  `gorm:"size:255;index:idx_identities_email"`
	IsEmailPrivate     bool    `gorm:"not null;default:false"`
	DisplayName        string  `gorm:"size:255"`
	Handle             string  `gorm:"size:255"`
	RealUserConfidence *string `gorm:"size:32"`
	// SignupAttribution is captured once, at creation, and never rewritten.
	SignupAttribution   datatypes.JSON
	AssociatedAccountID *uint   `gorm:"index:idx_identities_account_provider"`
	AssociationMethod   *string `gorm:"size:32"`
	AssociationEventID  *uint
	AssociatedAt        *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (ExternalIdentity) TableName() string {
	return "external_identities"
}

// NewExternalIdentity builds the row for a first-time authentication.
func NewExternalIdentity(claim Claim, attribution []byte) (*ExternalIdentity, error) {
	if err := claim.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ident := &ExternalIdentity{
		Provider:       string(claim.Provider),
		ProviderUserID: claim.ProviderUserID,
		Email:          claim.Email,
		IsEmailPrivate: claim.IsEmailPrivate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if claim.DisplayName != nil {
		ident.DisplayName = *claim.DisplayName
	}
	if claim.Handle != nil {
		ident.Handle = *claim.Handle
	}
	if claim.RealUserConfidence != nil {
		s := string(*claim.RealUserConfidence)
		ident.RealUserConfidence = &s
	}
	if len(attribution) > 0 {
		ident.SignupAttribution = datatypes.JSON(attribution)
	}
	return ident, nil
}

// ApplySnapshot folds a fresh claim into the stored snapshot and reports
// whether anything changed. Fields the claim does not carry (nil name or
// handle) are left untouched, so an Apple re-auth never clears a Twitter
// handle and vice versa.
func (e *ExternalIdentity) ApplySnapshot(claim Claim) bool {
	changed := false
	if claim.Email != e.Email {
		e.Email = claim.Email
		changed = true
	}
	if claim.IsEmailPrivate != e.IsEmailPrivate {
		e.IsEmailPrivate = claim.IsEmailPrivate
		changed = true
	}
	if claim.DisplayName != nil && *claim.DisplayName != e.DisplayName {
		e.DisplayName = *claim.DisplayName
		changed = true
	}
	if claim.Handle != nil && *claim.Handle != e.Handle {
		e.Handle = *claim.Handle
		changed = true
	}
	if changed {
		e.UpdatedAt = time.Now().UTC()
	}
	return changed
}

// IsAssociated reports whether this identity is already tied to an account.
func (e *ExternalIdentity) IsAssociated() bool {
	return e.AssociatedAccountID != nil
}

// AccountID returns the associated account id, or 0.
func (e *ExternalIdentity) AccountID() uint {
	if e.AssociatedAccountID == nil {
		return 0
	}
	return *e.AssociatedAccountID
}

// ErrIdentityExists is returned by the store when a concurrent create won
// the (provider, provider_user_id) unique constraint. Callers re-read and
// continue; this is not a failure.
var ErrIdentityExists = fmt.Errorf("external identity already exists")

// AssociationResult is the tagged outcome of an association write.
// AlreadyAssociated marks the losing side of a concurrent race (or a repeat
// call); both outcomes carry the identity's final association and are
// treated identically by callers.
type AssociationResult struct {
	Identity          *ExternalIdentity
	AlreadyAssociated bool
}

// Repository is the store contract for external identities.
type Repository interface {
	// FindByProviderUserID returns (nil, nil) when no row exists.
	FindByProviderUserID(ctx context.Context, provider Provider, providerUserID string) (*ExternalIdentity, error)
	// Create persists a new identity; a losing concurrent create returns
	// ErrIdentityExists.
	Create(ctx context.Context, ident *ExternalIdentity) error
	// UpdateSnapshot persists snapshot fields mutated by ApplySnapshot.
	UpdateSnapshot(ctx context.Context, ident *ExternalIdentity) error
	// Associate sets the identity's account exactly once. When the identity
	// is already associated (including by a concurrent writer) the result is
	// tagged AlreadyAssociated and carries the existing association.
	Associate(ctx context.Context, identityID, eventID, accountID uint, method AssociationMethod) (*AssociationResult, error)
	// FindAssociatedByAccount returns the identity of the given provider
	// associated with the account, or (nil, nil).
	FindAssociatedByAccount(ctx context.Context, accountID uint, provider Provider) (*ExternalIdentity, error)
}
