package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAuthenticationEvent(t *testing.T) {
	event, err := NewAuthenticationEvent(7, "sess-1")
	require.NoError(t, err)
	assert.NotEmpty(t, event.UUID)
	assert.Equal(t, uint(7), event.ExternalIdentityID)
	assert.Equal(t, "sess-1", event.SessionID)
	assert.WithinDuration(t, time.Now().UTC(), event.CreatedAt, time.Second)

	other, err := NewAuthenticationEvent(7, "sess-1")
	require.NoError(t, err)
	assert.NotEqual(t, event.UUID, other.UUID)
}

func TestNewAuthenticationEvent_Invalid(t *testing.T) {
	_, err := NewAuthenticationEvent(0, "sess-1")
	assert.Error(t, err)

	_, err = NewAuthenticationEvent(7, "")
	assert.Error(t, err)
}

func TestAuthenticationEvent_IsExpired(t *testing.T) {
	created := time.Now().UTC()
	event := &AuthenticationEvent{CreatedAt: created}

	assert.False(t, event.IsExpired(created.Add(RedemptionWindow)))
	assert.True(t, event.IsExpired(created.Add(RedemptionWindow+time.Second)))
}

func TestAuthenticationEvent_MatchesSession(t *testing.T) {
	event := &AuthenticationEvent{SessionID: "sess-1"}

	assert.True(t, event.MatchesSession("sess-1"))
	assert.False(t, event.MatchesSession("sess-2"))
	assert.False(t, event.MatchesSession(""))

	// A blank stored session never matches, not even a blank caller.
	blank := &AuthenticationEvent{}
	assert.False(t, blank.MatchesSession(""))
}
