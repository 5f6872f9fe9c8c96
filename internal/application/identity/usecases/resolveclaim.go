// Package usecases implements the sign-in flows: provider adapters feed
// verified claims into a shared resolution engine that maps external
// identities onto platform accounts.
package usecases

import (
	"context"
	"errors"
	"fmt"

	"signet/internal/application/identity/dto"
	"signet/internal/domain/account"
	"signet/internal/domain/identity"
	"signet/internal/shared/logger"
)

// TokenSealer seals the pending-auth token. Satisfied by *auth.TokenCipher.
type TokenSealer interface {
	EncryptURLSafe(plaintext string) (string, error)
}

// Credential carries the provider tokens obtained during the handshake,
// before the identity row (and so its id) exists.
type Credential interface {
	providerToken(identityID uint) (*identity.ProviderToken, error)
}

// TwitterCredential is the access token/secret pair from a completed
// OAuth 1.0a exchange, tied to the request token that started the flow.
type TwitterCredential struct {
	Token          string
	Secret         string
	RequestTokenID *uint
}

func (c TwitterCredential) providerToken(identityID uint) (*identity.ProviderToken, error) {
	return identity.NewTwitterToken(identityID, c.Token, c.Secret, c.RequestTokenID)
}

// AppleCredential is the refresh token from a completed code exchange.
type AppleCredential struct {
	RefreshToken string
}

func (c AppleCredential) providerToken(identityID uint) (*identity.ProviderToken, error) {
	return identity.NewAppleToken(identityID, c.RefreshToken)
}

// ResolveCommand is the engine's input: one verified claim plus the session
// and handshake context it arrived with.
type ResolveCommand struct {
	Claim       identity.Claim
	SessionID   string
	Attribution []byte
	Credential  Credential
}

// claimResolver lets the adapter use cases be tested against a fake engine.
type claimResolver interface {
	Execute(ctx context.Context, cmd ResolveCommand) (*dto.AuthOutcome, error)
}

// ResolveClaimUseCase is the provider-agnostic resolution engine. It never
// branches on provider identity; everything provider-specific is already
// folded into the claim and credential it receives.
type ResolveClaimUseCase struct {
	identities identity.Repository
	events     identity.AuthEventRepository
	tokens     identity.ProviderTokenRepository
	accounts   account.Repository
	sealer     TokenSealer
	logger     logger.Interface
}

func NewResolveClaimUseCase(
	identities identity.Repository,
	events identity.AuthEventRepository,
	tokens identity.ProviderTokenRepository,
	accounts account.Repository,
	sealer TokenSealer,
	log logger.Interface,
) *ResolveClaimUseCase {
	return &ResolveClaimUseCase{
		identities: identities,
		events:     events,
		tokens:     tokens,
		accounts:   accounts,
		sealer:     sealer,
		logger:     log.Named("resolve-claim"),
	}
}

func (uc *ResolveClaimUseCase) Execute(ctx context.Context, cmd ResolveCommand) (*dto.AuthOutcome, error) {
	if err := cmd.Claim.Validate(); err != nil {
		return nil, fmt.Errorf("invalid claim: %w", err)
	}

	ident, isNew, err := uc.findOrCreate(ctx, cmd)
	if err != nil {
		return nil, err
	}

	event, err := identity.NewAuthenticationEvent(ident.ID, cmd.SessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to build authentication event: %w", err)
	}
	if err := uc.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to record authentication event: %w", err)
	}

	if cmd.Credential != nil {
		token, err := cmd.Credential.providerToken(ident.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to build provider token: %w", err)
		}
		if err := uc.tokens.Append(ctx, token); err != nil {
			return nil, fmt.Errorf("failed to store provider token: %w", err)
		}
	}

	// An identity that already belongs to an account signs straight in; the
	// event above is simply a fresh login record.
	if ident.IsAssociated() {
		profile, err := buildAccountProfile(ctx, uc.accounts, uc.identities, uc.tokens, ident.AccountID())
		if err != nil {
			return nil, err
		}
		return &dto.AuthOutcome{Account: profile, IsNewIdentity: isNew}, nil
	}

	if cmd.Claim.HasUsableEmail() {
		acct, err := uc.accounts.GetByEmail(ctx, cmd.Claim.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to look up account by email: %w", err)
		}
		if acct != nil {
			result, err := uc.identities.Associate(ctx, ident.ID, event.ID, acct.ID, identity.MethodAuto)
			if err != nil {
				return nil, fmt.Errorf("failed to associate identity: %w", err)
			}
			if result.AlreadyAssociated {
				uc.logger.Debugw("identity associated concurrently, using existing association",
					"identity_id", ident.ID)
			}
			profile, err := buildAccountProfile(ctx, uc.accounts, uc.identities, uc.tokens, result.Identity.AccountID())
			if err != nil {
				return nil, err
			}
			uc.logger.Infow("identity auto-associated by email match",
				"identity_id", ident.ID, "account_id", result.Identity.AccountID())
			return &dto.AuthOutcome{Account: profile, IsNewIdentity: isNew}, nil
		}
	}

	pending, err := uc.sealer.EncryptURLSafe(event.UUID)
	if err != nil {
		return nil, fmt.Errorf("failed to seal pending-auth token: %w", err)
	}
	return &dto.AuthOutcome{PendingAuthToken: pending, IsNewIdentity: isNew}, nil
}

// findOrCreate loads the identity, refreshing its snapshot, or creates it.
// A lost create race is converged by re-reading the winner's row.
func (uc *ResolveClaimUseCase) findOrCreate(ctx context.Context, cmd ResolveCommand) (*identity.ExternalIdentity, bool, error) {
	ident, err := uc.identities.FindByProviderUserID(ctx, cmd.Claim.Provider, cmd.Claim.ProviderUserID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up identity: %w", err)
	}

	if ident != nil {
		if ident.ApplySnapshot(cmd.Claim) {
			if err := uc.identities.UpdateSnapshot(ctx, ident); err != nil {
				return nil, false, fmt.Errorf("failed to update identity snapshot: %w", err)
			}
		}
		return ident, false, nil
	}

	ident, err = identity.NewExternalIdentity(cmd.Claim, cmd.Attribution)
	if err != nil {
		return nil, false, err
	}
	err = uc.identities.Create(ctx, ident)
	if err == nil {
		uc.logger.Infow("external identity created",
			"provider", cmd.Claim.Provider, "provider_user_id", cmd.Claim.ProviderUserID)
		return ident, true, nil
	}
	if !errors.Is(err, identity.ErrIdentityExists) {
		return nil, false, fmt.Errorf("failed to create identity: %w", err)
	}

	// Lost a concurrent first authentication; the winner's row is ours too.
	ident, err = uc.identities.FindByProviderUserID(ctx, cmd.Claim.Provider, cmd.Claim.ProviderUserID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to re-read identity after create race: %w", err)
	}
	if ident == nil {
		return nil, false, fmt.Errorf("identity vanished after create race")
	}
	return ident, false, nil
}

// buildAccountProfile loads the account and derives the linked-Twitter flag
// from the presence of an associated Twitter identity with a live token.
func buildAccountProfile(
	ctx context.Context,
	accounts account.Repository,
	identities identity.Repository,
	tokens identity.ProviderTokenRepository,
	accountID uint,
) (*dto.AccountProfile, error) {
	acct, err := accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account %d: %w", accountID, err)
	}
	if acct == nil {
		return nil, fmt.Errorf("associated account %d not found", accountID)
	}

	profile := &dto.AccountProfile{
		ID:    acct.ID,
		Email: acct.Email,
		Name:  acct.Name,
	}

	twitterIdent, err := identities.FindAssociatedByAccount(ctx, accountID, identity.ProviderTwitter)
	if err != nil {
		return nil, fmt.Errorf("failed to check twitter link: %w", err)
	}
	if twitterIdent != nil {
		token, err := tokens.LatestByIdentity(ctx, twitterIdent.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check twitter token: %w", err)
		}
		profile.HasLinkedTwitterAccount = token != nil
	}
	return profile, nil
}
