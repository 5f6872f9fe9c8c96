package identity

import (
	"context"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// RequestToken is the server-side record of a Twitter request-token
// handshake. The secret is needed again for the access-token exchange, and
// the attribution blob is recovered from here even if the client never
// re-sends it.
type RequestToken struct {
	ID                uint   `gorm:"primarykey"`
	Token             string `gorm:"not null;size:255;uniqueIndex:uk_request_tokens_token"`
	Secret            string `gorm:"not null;size:255"`
	CallbackConfirmed bool   `gorm:"not null;default:false"`
	SignupAttribution datatypes.JSON
	CreatedAt         time.Time
}

func (RequestToken) TableName() string {
	return "request_tokens"
}

func NewRequestToken(token, secret string, callbackConfirmed bool, attribution []byte) (*RequestToken, error) {
	if token == "" || secret == "" {
		return nil, fmt.Errorf("token and secret are required")
	}
	rt := &RequestToken{
		Token:             token,
		Secret:            secret,
		CallbackConfirmed: callbackConfirmed,
		CreatedAt:         time.Now().UTC(),
	}
	if len(attribution) > 0 {
		rt.SignupAttribution = datatypes.JSON(attribution)
	}
	return rt, nil
}

// RequestTokenRepository is the store contract for request tokens.
type RequestTokenRepository interface {
	Create(ctx context.Context, token *RequestToken) error
	// GetByToken returns (nil, nil) when no row exists.
	GetByToken(ctx context.Context, token string) (*RequestToken, error)
}
