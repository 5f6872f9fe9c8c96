package usecases

import (
	"context"

	"github.com/stretchr/testify/mock"

	"signet/internal/application/identity/dto"
	"signet/internal/domain/account"
	"signet/internal/domain/identity"
	"signet/internal/infrastructure/auth"
	"signet/internal/shared/logger"
)

// nopLogger silences logging in tests.
type nopLogger struct{}

func newNopLogger() logger.Interface { return &nopLogger{} }

func (l *nopLogger) Debugw(msg string, keysAndValues ...interface{}) {}
func (l *nopLogger) Infow(msg string, keysAndValues ...interface{})  {}
func (l *nopLogger) Warnw(msg string, keysAndValues ...interface{})  {}
func (l *nopLogger) Errorw(msg string, keysAndValues ...interface{}) {}
func (l *nopLogger) With(args ...any) logger.Interface               { return l }
func (l *nopLogger) Named(name string) logger.Interface              { return l }

type mockIdentityRepo struct {
	mock.Mock
}

func (m *mockIdentityRepo) FindByProviderUserID(ctx context.Context, provider identity.Provider, providerUserID string) (*identity.ExternalIdentity, error) {
	args := m.Called(ctx, provider, providerUserID)
	ident, _ := args.Get(0).(*identity.ExternalIdentity)
	return ident, args.Error(1)
}

func (m *mockIdentityRepo) Create(ctx context.Context, ident *identity.ExternalIdentity) error {
	args := m.Called(ctx, ident)
	return args.Error(0)
}

func (m *mockIdentityRepo) UpdateSnapshot(ctx context.Context, ident *identity.ExternalIdentity) error {
	args := m.Called(ctx, ident)
	return args.Error(0)
}

func (m *mockIdentityRepo) Associate(ctx context.Context, identityID, eventID, accountID uint, method identity.AssociationMethod) (*identity.AssociationResult, error) {
	args := m.Called(ctx, identityID, eventID, accountID, method)
	result, _ := args.Get(0).(*identity.AssociationResult)
	return result, args.Error(1)
}

func (m *mockIdentityRepo) FindAssociatedByAccount(ctx context.Context, accountID uint, provider identity.Provider) (*identity.ExternalIdentity, error) {
	args := m.Called(ctx, accountID, provider)
	ident, _ := args.Get(0).(*identity.ExternalIdentity)
	return ident, args.Error(1)
}

type mockAuthEventRepo struct {
	mock.Mock
}

func (m *mockAuthEventRepo) Create(ctx context.Context, event *identity.AuthenticationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockAuthEventRepo) GetByUUID(ctx context.Context, uuid string) (*identity.AuthenticationEvent, error) {
	args := m.Called(ctx, uuid)
	event, _ := args.Get(0).(*identity.AuthenticationEvent)
	return event, args.Error(1)
}

type mockProviderTokenRepo struct {
	mock.Mock
}

func (m *mockProviderTokenRepo) Append(ctx context.Context, token *identity.ProviderToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *mockProviderTokenRepo) LatestByIdentity(ctx context.Context, identityID uint) (*identity.ProviderToken, error) {
	args := m.Called(ctx, identityID)
	token, _ := args.Get(0).(*identity.ProviderToken)
	return token, args.Error(1)
}

func (m *mockProviderTokenRepo) DeleteByIdentity(ctx context.Context, identityID uint) error {
	args := m.Called(ctx, identityID)
	return args.Error(0)
}

type mockRequestTokenRepo struct {
	mock.Mock
}

func (m *mockRequestTokenRepo) Create(ctx context.Context, token *identity.RequestToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *mockRequestTokenRepo) GetByToken(ctx context.Context, token string) (*identity.RequestToken, error) {
	args := m.Called(ctx, token)
	row, _ := args.Get(0).(*identity.RequestToken)
	return row, args.Error(1)
}

type mockAccountRepo struct {
	mock.Mock
}

func (m *mockAccountRepo) GetByID(ctx context.Context, id uint) (*account.Account, error) {
	args := m.Called(ctx, id)
	acct, _ := args.Get(0).(*account.Account)
	return acct, args.Error(1)
}

func (m *mockAccountRepo) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	args := m.Called(ctx, email)
	acct, _ := args.Get(0).(*account.Account)
	return acct, args.Error(1)
}

type mockSealer struct {
	mock.Mock
}

func (m *mockSealer) EncryptURLSafe(plaintext string) (string, error) {
	args := m.Called(plaintext)
	return args.String(0), args.Error(1)
}

type mockOpener struct {
	mock.Mock
}

func (m *mockOpener) DecryptURLSafe(encoded string) (string, error) {
	args := m.Called(encoded)
	return args.String(0), args.Error(1)
}

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Execute(ctx context.Context, cmd ResolveCommand) (*dto.AuthOutcome, error) {
	args := m.Called(ctx, cmd)
	outcome, _ := args.Get(0).(*dto.AuthOutcome)
	return outcome, args.Error(1)
}

type mockTwitterClient struct {
	mock.Mock
}

func (m *mockTwitterClient) GetRequestToken(ctx context.Context, callbackURL string) (*auth.TwitterRequestToken, error) {
	args := m.Called(ctx, callbackURL)
	token, _ := args.Get(0).(*auth.TwitterRequestToken)
	return token, args.Error(1)
}

func (m *mockTwitterClient) GetAccessToken(ctx context.Context, requestToken, requestSecret, verifier string) (*auth.TwitterAccessToken, error) {
	args := m.Called(ctx, requestToken, requestSecret, verifier)
	token, _ := args.Get(0).(*auth.TwitterAccessToken)
	return token, args.Error(1)
}

func (m *mockTwitterClient) VerifyCredentials(ctx context.Context, token auth.OAuth1Token) (*auth.TwitterUser, error) {
	args := m.Called(ctx, token)
	user, _ := args.Get(0).(*auth.TwitterUser)
	return user, args.Error(1)
}

type mockAppleClient struct {
	mock.Mock
}

func (m *mockAppleClient) ExchangeCode(ctx context.Context, code string, variant auth.AppleClientVariant) (*auth.AppleTokenResponse, error) {
	args := m.Called(ctx, code, variant)
	resp, _ := args.Get(0).(*auth.AppleTokenResponse)
	return resp, args.Error(1)
}

func (m *mockAppleClient) VerifyIDToken(ctx context.Context, rawToken string, variant auth.AppleClientVariant) (*auth.AppleIDClaims, error) {
	args := m.Called(ctx, rawToken, variant)
	claims, _ := args.Get(0).(*auth.AppleIDClaims)
	return claims, args.Error(1)
}

type mockTweetPoster struct {
	mock.Mock
}

func (m *mockTweetPoster) UpdateStatus(ctx context.Context, token auth.OAuth1Token, status string) error {
	args := m.Called(ctx, token, status)
	return args.Error(0)
}
