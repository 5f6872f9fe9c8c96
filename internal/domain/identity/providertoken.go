package identity

import (
	"context"
	"fmt"
	"time"
)

// ProviderToken is a credential obtained from a completed handshake, keyed
// to an identity. Rows are appended per handshake, never overwritten; the
// newest row is the live credential. Twitter rows carry a token/secret pair
// tied to the request token that started the flow, Apple rows carry only a
// refresh token.
type ProviderToken struct {
	ID                 uint   `gorm:"primarykey"`
	ExternalIdentityID uint   `gorm:"not null;index:idx_provider_tokens_identity"`
	Provider           string `gorm:"not null;size:32"`
	AccessToken        string `gorm:"size:512"`
	AccessTokenSecret  string `gorm:"size:512"`
	RefreshToken       string `gorm:"size:512"`
	RequestTokenID     *uint
	CreatedAt          time.Time
}

func (ProviderToken) TableName() string {
	return "provider_tokens"
}

// NewTwitterToken builds the token row for a completed OAuth 1.0a exchange.
func NewTwitterToken(identityID uint, token, secret string, requestTokenID *uint) (*ProviderToken, error) {
	if identityID == 0 {
		return nil, fmt.Errorf("identity ID is required")
	}
	if token == "" || secret == "" {
		return nil, fmt.Errorf("access token and secret are required")
	}
	return &ProviderToken{
		ExternalIdentityID: identityID,
		Provider:           string(ProviderTwitter),
		AccessToken:        token,
		AccessTokenSecret:  secret,
		RequestTokenID:     requestTokenID,
		CreatedAt:          time.Now().UTC(),
	}, nil
}

// NewAppleToken builds the token row for a completed code exchange.
func NewAppleToken(identityID uint, refreshToken string) (*ProviderToken, error) {
	if identityID == 0 {
		return nil, fmt.Errorf("identity ID is required")
	}
	if refreshToken == "" {
		return nil, fmt.Errorf("refresh token is required")
	}
	return &ProviderToken{
		ExternalIdentityID: identityID,
		Provider:           string(ProviderApple),
		RefreshToken:       refreshToken,
		CreatedAt:          time.Now().UTC(),
	}, nil
}

// ProviderTokenRepository is the store contract for provider tokens.
type ProviderTokenRepository interface {
	// Append stores a new token row; existing rows are left in place.
	Append(ctx context.Context, token *ProviderToken) error
	// LatestByIdentity returns the newest token for the identity, or
	// (nil, nil) when none is stored.
	LatestByIdentity(ctx context.Context, identityID uint) (*ProviderToken, error)
	// DeleteByIdentity removes all token rows for the identity. Used when
	// the provider reports the credential invalid.
	DeleteByIdentity(ctx context.Context, identityID uint) error
}
