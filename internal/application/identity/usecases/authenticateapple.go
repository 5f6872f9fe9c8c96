package usecases

import (
	"context"

	"signet/internal/application/identity/dto"
	"signet/internal/domain/identity"
	"signet/internal/infrastructure/auth"
	"signet/internal/shared/errors"
	"signet/internal/shared/logger"
)

// AppleAuthClient is the slice of the Apple adapter this use case needs.
type AppleAuthClient interface {
	ExchangeCode(ctx context.Context, code string, variant auth.AppleClientVariant) (*auth.AppleTokenResponse, error)
	VerifyIDToken(ctx context.Context, rawToken string, variant auth.AppleClientVariant) (*auth.AppleIDClaims, error)
}

// AuthenticateAppleCommand carries the client-supplied Sign in with Apple
// material. Email, when set, overrides the token claim: Apple only includes
// the email on the first authorization, so returning clients re-send it.
type AuthenticateAppleCommand struct {
	SessionID      string
	RawIDToken     string
	AuthCode       string
	Email          string
	RealUserRating string
	Attribution    []byte
	Variant        auth.AppleClientVariant
}

type AuthenticateAppleUseCase struct {
	client   AppleAuthClient
	resolver claimResolver
	logger   logger.Interface
}

func NewAuthenticateAppleUseCase(client AppleAuthClient, resolver claimResolver, log logger.Interface) *AuthenticateAppleUseCase {
	return &AuthenticateAppleUseCase{
		client:   client,
		resolver: resolver,
		logger:   log.Named("apple-auth"),
	}
}

func (uc *AuthenticateAppleUseCase) Execute(ctx context.Context, cmd AuthenticateAppleCommand) (*dto.AuthOutcome, error) {
	if cmd.SessionID == "" {
		return nil, errors.NewInvalidSessionIDError()
	}

	subject := auth.PeekSubject(cmd.RawIDToken)

	// The code exchange proves the credential was just issued to us; the
	// provider rejects reused or foreign codes.
	tokenResp, err := uc.client.ExchangeCode(ctx, cmd.AuthCode, cmd.Variant)
	if err != nil {
		uc.logger.Errorw("apple code exchange rejected",
			"error", err, "subject", subject, "variant", cmd.Variant)
		return nil, errors.NewInvalidIDTokenError("authorization code rejected")
	}

	claims, err := uc.client.VerifyIDToken(ctx, cmd.RawIDToken, cmd.Variant)
	if err != nil {
		uc.logger.Errorw("apple ID token failed verification",
			"error", err, "subject", subject, "variant", cmd.Variant)
		return nil, errors.NewInvalidIDTokenError()
	}

	email := claims.Email
	if cmd.Email != "" {
		email = cmd.Email
	}

	claim := identity.Claim{
		Provider:           identity.ProviderApple,
		ProviderUserID:     claims.Subject,
		Email:              email,
		IsEmailPrivate:     claims.IsPrivateEmail,
		RealUserConfidence: mapAppleRealUserRating(cmd.RealUserRating),
	}

	return uc.resolver.Execute(ctx, ResolveCommand{
		Claim:       claim,
		SessionID:   cmd.SessionID,
		Attribution: cmd.Attribution,
		Credential:  AppleCredential{RefreshToken: tokenResp.RefreshToken},
	})
}

// mapAppleRealUserRating passes the known ratings through and drops
// anything else.
func mapAppleRealUserRating(rating string) *identity.RealUserConfidence {
	var c identity.RealUserConfidence
	switch rating {
	case "likely_real":
		c = identity.ConfidenceLikelyReal
	case "unknown":
		c = identity.ConfidenceUnknown
	case "unsupported":
		c = identity.ConfidenceUnsupported
	default:
		return nil
	}
	return &c
}
