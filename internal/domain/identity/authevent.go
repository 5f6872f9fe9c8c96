package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RedemptionWindow bounds how long an authentication event can back a
// pending-auth token.
const RedemptionWindow = 5 * time.Minute

// AuthenticationEvent records one authentication attempt on an identity.
// Its UUID is the value wrapped by the pending-auth token; the row is never
// mutated, only superseded by newer events for the same identity.
type AuthenticationEvent struct {
	ID                 uint   `gorm:"primarykey"`
	UUID               string `gorm:"not null;size:36;uniqueIndex:uk_auth_events_uuid;column:uuid"`
	ExternalIdentityID uint   `gorm:"not null;index:idx_auth_events_identity"`
	SessionID          string `gorm:"not null;size:255"`
	CreatedAt          time.Time
}

func (AuthenticationEvent) TableName() string {
	return "authentication_events"
}

func NewAuthenticationEvent(identityID uint, sessionID string) (*AuthenticationEvent, error) {
	if identityID == 0 {
		return nil, fmt.Errorf("identity ID is required")
	}
	if sessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}
	return &AuthenticationEvent{
		UUID:               uuid.NewString(),
		ExternalIdentityID: identityID,
		SessionID:          sessionID,
		CreatedAt:          time.Now().UTC(),
	}, nil
}

// IsExpired reports whether the event is too old to redeem at the given
// instant.
func (e *AuthenticationEvent) IsExpired(now time.Time) bool {
	return now.Sub(e.CreatedAt) > RedemptionWindow
}

// MatchesSession reports whether the caller's session is the one this event
// was created under.
func (e *AuthenticationEvent) MatchesSession(sessionID string) bool {
	return sessionID != "" && e.SessionID == sessionID
}

// AuthEventRepository is the store contract for authentication events.
type AuthEventRepository interface {
	Create(ctx context.Context, event *AuthenticationEvent) error
	// GetByUUID returns (nil, nil) when no event exists.
	GetByUUID(ctx context.Context, uuid string) (*AuthenticationEvent, error)
}
