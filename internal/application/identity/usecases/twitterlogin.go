package usecases

import (
	"context"
	"fmt"

	"signet/internal/application/identity/dto"
	"signet/internal/domain/identity"
	"signet/internal/infrastructure/auth"
	"signet/internal/shared/errors"
	"signet/internal/shared/logger"
)

// TwitterAuthClient is the slice of the Twitter adapter the login flow needs.
type TwitterAuthClient interface {
	GetRequestToken(ctx context.Context, callbackURL string) (*auth.TwitterRequestToken, error)
	GetAccessToken(ctx context.Context, requestToken, requestSecret, verifier string) (*auth.TwitterAccessToken, error)
	VerifyCredentials(ctx context.Context, token auth.OAuth1Token) (*auth.TwitterUser, error)
}

// GetRequestTokenCommand starts the Twitter flow. Attribution is stored with
// the request token so it survives the provider round trip even if the
// client never re-sends it.
type GetRequestTokenCommand struct {
	CallbackURL string
	Attribution []byte
}

type GetRequestTokenUseCase struct {
	client        TwitterAuthClient
	requestTokens identity.RequestTokenRepository
	logger        logger.Interface
}

func NewGetRequestTokenUseCase(client TwitterAuthClient, requestTokens identity.RequestTokenRepository, log logger.Interface) *GetRequestTokenUseCase {
	return &GetRequestTokenUseCase{
		client:        client,
		requestTokens: requestTokens,
		logger:        log.Named("twitter-auth"),
	}
}

func (uc *GetRequestTokenUseCase) Execute(ctx context.Context, cmd GetRequestTokenCommand) (*dto.RequestTokenResult, error) {
	resp, err := uc.client.GetRequestToken(ctx, cmd.CallbackURL)
	if err != nil {
		uc.logger.Errorw("request token acquisition failed", "error", err)
		return nil, fmt.Errorf("failed to obtain request token: %w", err)
	}

	if !resp.CallbackConfirmed {
		// Twitter has accepted unconfirmed callbacks in practice; note it
		// and continue.
		uc.logger.Warnw("provider did not confirm callback", "callback_url", cmd.CallbackURL)
	}

	row, err := identity.NewRequestToken(resp.Token, resp.Secret, resp.CallbackConfirmed, cmd.Attribution)
	if err != nil {
		return nil, err
	}
	if err := uc.requestTokens.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to store request token: %w", err)
	}

	return &dto.RequestTokenResult{
		Token:        resp.Token,
		AuthorizeURL: auth.DefaultTwitterBaseURL + "/oauth/authenticate?oauth_token=" + resp.Token,
	}, nil
}

// VerifyRequestTokenCommand completes the flow after the user returns from
// Twitter with a verifier.
type VerifyRequestTokenCommand struct {
	SessionID    string
	RequestToken string
	Verifier     string
}

type VerifyRequestTokenUseCase struct {
	client        TwitterAuthClient
	requestTokens identity.RequestTokenRepository
	resolver      claimResolver
	logger        logger.Interface
}

func NewVerifyRequestTokenUseCase(
	client TwitterAuthClient,
	requestTokens identity.RequestTokenRepository,
	resolver claimResolver,
	log logger.Interface,
) *VerifyRequestTokenUseCase {
	return &VerifyRequestTokenUseCase{
		client:        client,
		requestTokens: requestTokens,
		resolver:      resolver,
		logger:        log.Named("twitter-auth"),
	}
}

func (uc *VerifyRequestTokenUseCase) Execute(ctx context.Context, cmd VerifyRequestTokenCommand) (*dto.AuthOutcome, error) {
	if cmd.SessionID == "" {
		return nil, errors.NewInvalidSessionIDError()
	}

	row, err := uc.requestTokens.GetByToken(ctx, cmd.RequestToken)
	if err != nil {
		return nil, fmt.Errorf("failed to look up request token: %w", err)
	}
	if row == nil {
		return nil, errors.NewInvalidAuthTokenError("unknown request token")
	}

	access, err := uc.client.GetAccessToken(ctx, row.Token, row.Secret, cmd.Verifier)
	if err != nil {
		uc.logger.Errorw("access token exchange rejected", "error", err)
		return nil, errors.NewInvalidAuthTokenError()
	}

	user, err := uc.client.VerifyCredentials(ctx, auth.OAuth1Token{Token: access.Token, Secret: access.Secret})
	if err != nil {
		uc.logger.Errorw("profile fetch failed after token exchange", "error", err)
		return nil, errors.NewInvalidAuthTokenError("profile fetch failed")
	}

	providerUserID := user.IDStr
	if providerUserID == "" {
		providerUserID = access.UserID
	}

	confidence := identity.ConfidenceUnknown
	if user.Verified {
		confidence = identity.ConfidenceVerified
	}

	claim := identity.Claim{
		Provider:           identity.ProviderTwitter,
		ProviderUserID:     providerUserID,
		Email:              user.Email,
		DisplayName:        &user.Name,
		Handle:             &user.ScreenName,
		RealUserConfidence: &confidence,
	}

	outcome, err := uc.resolver.Execute(ctx, ResolveCommand{
		Claim:       claim,
		SessionID:   cmd.SessionID,
		Attribution: []byte(row.SignupAttribution),
		Credential: TwitterCredential{
			Token:          access.Token,
			Secret:         access.Secret,
			RequestTokenID: &row.ID,
		},
	})
	if err != nil {
		return nil, err
	}

	// Without an email there is nothing to sign up with: signup needs an
	// address, and auto-association was impossible. An identity already tied
	// to an account is unaffected.
	if outcome.Account == nil && user.Email == "" {
		return nil, errors.NewEmailAddressRequiredError()
	}
	return outcome, nil
}
