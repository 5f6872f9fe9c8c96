package usecases

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"signet/internal/application/identity/dto"
	"signet/internal/domain/identity"
	"signet/internal/infrastructure/auth"
	"signet/internal/shared/errors"
)

func TestGetRequestToken_StoresRowAndBuildsAuthorizeURL(t *testing.T) {
	client := new(mockTwitterClient)
	rows := new(mockRequestTokenRepo)
	uc := NewGetRequestTokenUseCase(client, rows, newNopLogger())

	client.On("GetRequestToken", mock.Anything, "https://example.com/cb").
		Return(&auth.TwitterRequestToken{Token: "req-1", Secret: "sec-1", CallbackConfirmed: true}, nil)

	var stored *identity.RequestToken
	rows.On("Create", mock.Anything, mock.AnythingOfType("*identity.RequestToken")).
		Run(func(args mock.Arguments) {
			stored = args.Get(1).(*identity.RequestToken)
		}).Return(nil)

	result, err := uc.Execute(context.Background(), GetRequestTokenCommand{
		CallbackURL: "https://example.com/cb",
		Attribution: []byte(`{"ref":"launch"}`),
	})
	require.NoError(t, err)

	assert.Equal(t, "req-1", result.Token)
	assert.Equal(t, auth.DefaultTwitterBaseURL+"/oauth/authenticate?oauth_token=req-1", result.AuthorizeURL)

	require.NotNil(t, stored)
	assert.Equal(t, "req-1", stored.Token)
	assert.Equal(t, "sec-1", stored.Secret)
	assert.True(t, stored.CallbackConfirmed)
	assert.Equal(t, []byte(`{"ref":"launch"}`), []byte(stored.SignupAttribution))
}

func TestGetRequestToken_UnconfirmedCallbackIsNotFatal(t *testing.T) {
	client := new(mockTwitterClient)
	rows := new(mockRequestTokenRepo)
	uc := NewGetRequestTokenUseCase(client, rows, newNopLogger())

	client.On("GetRequestToken", mock.Anything, mock.Anything).
		Return(&auth.TwitterRequestToken{Token: "req-1", Secret: "sec-1", CallbackConfirmed: false}, nil)
	rows.On("Create", mock.Anything, mock.Anything).Return(nil)

	result, err := uc.Execute(context.Background(), GetRequestTokenCommand{CallbackURL: "https://example.com/cb"})
	require.NoError(t, err)
	assert.Equal(t, "req-1", result.Token)
}

func TestGetRequestToken_ProviderFailure(t *testing.T) {
	client := new(mockTwitterClient)
	rows := new(mockRequestTokenRepo)
	uc := NewGetRequestTokenUseCase(client, rows, newNopLogger())

	client.On("GetRequestToken", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("request_token failed: status 401"))

	_, err := uc.Execute(context.Background(), GetRequestTokenCommand{CallbackURL: "https://example.com/cb"})
	require.Error(t, err)
	rows.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

type verifyFixture struct {
	client   *mockTwitterClient
	rows     *mockRequestTokenRepo
	resolver *mockResolver
	uc       *VerifyRequestTokenUseCase
}

func newVerifyFixture() *verifyFixture {
	f := &verifyFixture{
		client:   new(mockTwitterClient),
		rows:     new(mockRequestTokenRepo),
		resolver: new(mockResolver),
	}
	f.uc = NewVerifyRequestTokenUseCase(f.client, f.rows, f.resolver, newNopLogger())
	return f
}

func storedRequestToken() *identity.RequestToken {
	return &identity.RequestToken{
		ID:                3,
		Token:             "req-1",
		Secret:            "sec-1",
		CallbackConfirmed: true,
		SignupAttribution: []byte(`{"ref":"launch"}`),
	}
}

func TestVerifyRequestToken_BuildsClaimAndCredential(t *testing.T) {
	f := newVerifyFixture()

	f.rows.On("GetByToken", mock.Anything, "req-1").Return(storedRequestToken(), nil)
	f.client.On("GetAccessToken", mock.Anything, "req-1", "sec-1", "ver-1").
		Return(&auth.TwitterAccessToken{Token: "at", Secret: "as", UserID: "1001", ScreenName: "jack"}, nil)
	f.client.On("VerifyCredentials", mock.Anything, auth.OAuth1Token{Token: "at", Secret: "as"}).
		Return(&auth.TwitterUser{
			IDStr: "1001", Name: "Jack Dorsey", ScreenName: "jack",
			Email: "jack@example.com", Verified: true,
		}, nil)

	var gotCmd ResolveCommand
	f.resolver.On("Execute", mock.Anything, mock.AnythingOfType("usecases.ResolveCommand")).
		Run(func(args mock.Arguments) {
			gotCmd = args.Get(1).(ResolveCommand)
		}).
		Return(&dto.AuthOutcome{Account: &dto.AccountProfile{ID: 42}}, nil)

	outcome, err := f.uc.Execute(context.Background(), VerifyRequestTokenCommand{
		SessionID:    "sess-1",
		RequestToken: "req-1",
		Verifier:     "ver-1",
	})
	require.NoError(t, err)
	require.NotNil(t, outcome.Account)

	assert.Equal(t, identity.ProviderTwitter, gotCmd.Claim.Provider)
	assert.Equal(t, "1001", gotCmd.Claim.ProviderUserID)
	assert.Equal(t, "jack@example.com", gotCmd.Claim.Email)
	require.NotNil(t, gotCmd.Claim.DisplayName)
	assert.Equal(t, "Jack Dorsey", *gotCmd.Claim.DisplayName)
	require.NotNil(t, gotCmd.Claim.Handle)
	assert.Equal(t, "jack", *gotCmd.Claim.Handle)
	require.NotNil(t, gotCmd.Claim.RealUserConfidence)
	assert.Equal(t, identity.ConfidenceVerified, *gotCmd.Claim.RealUserConfidence)

	assert.Equal(t, "sess-1", gotCmd.SessionID)
	assert.Equal(t, []byte(`{"ref":"launch"}`), gotCmd.Attribution)

	cred, ok := gotCmd.Credential.(TwitterCredential)
	require.True(t, ok)
	assert.Equal(t, "at", cred.Token)
	assert.Equal(t, "as", cred.Secret)
	require.NotNil(t, cred.RequestTokenID)
	assert.Equal(t, uint(3), *cred.RequestTokenID)
}

func TestVerifyRequestToken_UnverifiedUserGetsUnknownConfidence(t *testing.T) {
	f := newVerifyFixture()

	f.rows.On("GetByToken", mock.Anything, "req-1").Return(storedRequestToken(), nil)
	f.client.On("GetAccessToken", mock.Anything, "req-1", "sec-1", "ver-1").
		Return(&auth.TwitterAccessToken{Token: "at", Secret: "as", UserID: "1001"}, nil)
	f.client.On("VerifyCredentials", mock.Anything, mock.Anything).
		Return(&auth.TwitterUser{IDStr: "1001", Name: "Someone", ScreenName: "someone", Email: "s@example.com"}, nil)

	var gotCmd ResolveCommand
	f.resolver.On("Execute", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			gotCmd = args.Get(1).(ResolveCommand)
		}).
		Return(&dto.AuthOutcome{PendingAuthToken: "sealed"}, nil)

	_, err := f.uc.Execute(context.Background(), VerifyRequestTokenCommand{
		SessionID:    "sess-1",
		RequestToken: "req-1",
		Verifier:     "ver-1",
	})
	require.NoError(t, err)
	require.NotNil(t, gotCmd.Claim.RealUserConfidence)
	assert.Equal(t, identity.ConfidenceUnknown, *gotCmd.Claim.RealUserConfidence)
}

func TestVerifyRequestToken_BlankSession(t *testing.T) {
	f := newVerifyFixture()

	_, err := f.uc.Execute(context.Background(), VerifyRequestTokenCommand{
		RequestToken: "req-1",
		Verifier:     "ver-1",
	})
	require.Error(t, err)
	assert.True(t, errors.IsAuthErrorType(err, errors.ErrorTypeInvalidSessionID))
}

func TestVerifyRequestToken_UnknownRequestToken(t *testing.T) {
	f := newVerifyFixture()
	f.rows.On("GetByToken", mock.Anything, "req-9").Return(nil, nil)

	_, err := f.uc.Execute(context.Background(), VerifyRequestTokenCommand{
		SessionID:    "sess-1",
		RequestToken: "req-9",
		Verifier:     "ver-1",
	})
	require.Error(t, err)
	assert.True(t, errors.IsAuthErrorType(err, errors.ErrorTypeInvalidAuthToken))
}

func TestVerifyRequestToken_ExchangeRejected(t *testing.T) {
	f := newVerifyFixture()
	f.rows.On("GetByToken", mock.Anything, "req-1").Return(storedRequestToken(), nil)
	f.client.On("GetAccessToken", mock.Anything, "req-1", "sec-1", "bad").
		Return(nil, fmt.Errorf("access_token failed: status 401"))

	_, err := f.uc.Execute(context.Background(), VerifyRequestTokenCommand{
		SessionID:    "sess-1",
		RequestToken: "req-1",
		Verifier:     "bad",
	})
	require.Error(t, err)
	assert.True(t, errors.IsAuthErrorType(err, errors.ErrorTypeInvalidAuthToken))
}

func TestVerifyRequestToken_NoEmailAndNoAccount(t *testing.T) {
	f := newVerifyFixture()

	f.rows.On("GetByToken", mock.Anything, "req-1").Return(storedRequestToken(), nil)
	f.client.On("GetAccessToken", mock.Anything, "req-1", "sec-1", "ver-1").
		Return(&auth.TwitterAccessToken{Token: "at", Secret: "as", UserID: "1001"}, nil)
	f.client.On("VerifyCredentials", mock.Anything, mock.Anything).
		Return(&auth.TwitterUser{IDStr: "1001", Name: "Someone", ScreenName: "someone"}, nil)
	f.resolver.On("Execute", mock.Anything, mock.Anything).
		Return(&dto.AuthOutcome{PendingAuthToken: "sealed", IsNewIdentity: true}, nil)

	_, err := f.uc.Execute(context.Background(), VerifyRequestTokenCommand{
		SessionID:    "sess-1",
		RequestToken: "req-1",
		Verifier:     "ver-1",
	})
	require.Error(t, err)
	assert.True(t, errors.IsAuthErrorType(err, errors.ErrorTypeEmailAddressRequired))
}

func TestVerifyRequestToken_NoEmailButAlreadyAssociated(t *testing.T) {
	f := newVerifyFixture()

	f.rows.On("GetByToken", mock.Anything, "req-1").Return(storedRequestToken(), nil)
	f.client.On("GetAccessToken", mock.Anything, "req-1", "sec-1", "ver-1").
		Return(&auth.TwitterAccessToken{Token: "at", Secret: "as", UserID: "1001"}, nil)
	f.client.On("VerifyCredentials", mock.Anything, mock.Anything).
		Return(&auth.TwitterUser{IDStr: "1001", Name: "Someone", ScreenName: "someone"}, nil)
	f.resolver.On("Execute", mock.Anything, mock.Anything).
		Return(&dto.AuthOutcome{Account: &dto.AccountProfile{ID: 42}}, nil)

	outcome, err := f.uc.Execute(context.Background(), VerifyRequestTokenCommand{
		SessionID:    "sess-1",
		RequestToken: "req-1",
		Verifier:     "ver-1",
	})
	require.NoError(t, err)
	require.NotNil(t, outcome.Account)
}
