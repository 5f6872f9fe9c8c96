package usecases

import (
	"context"
	"fmt"
	"time"

	"signet/internal/application/identity/dto"
	"signet/internal/domain/account"
	"signet/internal/domain/identity"
	"signet/internal/shared/errors"
	"signet/internal/shared/logger"
)

// TokenOpener opens a sealed pending-auth token. Satisfied by
// *auth.TokenCipher.
type TokenOpener interface {
	DecryptURLSafe(encoded string) (string, error)
}

// RedeemPendingAuthCommand redeems a pending-auth token against a chosen
// account. Intent distinguishes a signup redemption (MethodManual) from an
// explicit link added to a signed-in account (MethodLink).
type RedeemPendingAuthCommand struct {
	SessionID    string
	PendingToken string
	AccountID    uint
	Intent       identity.AssociationMethod
}

type RedeemPendingAuthUseCase struct {
	identities identity.Repository
	events     identity.AuthEventRepository
	tokens     identity.ProviderTokenRepository
	accounts   account.Repository
	opener     TokenOpener
	logger     logger.Interface
	now        func() time.Time
}

func NewRedeemPendingAuthUseCase(
	identities identity.Repository,
	events identity.AuthEventRepository,
	tokens identity.ProviderTokenRepository,
	accounts account.Repository,
	opener TokenOpener,
	log logger.Interface,
) *RedeemPendingAuthUseCase {
	return &RedeemPendingAuthUseCase{
		identities: identities,
		events:     events,
		tokens:     tokens,
		accounts:   accounts,
		opener:     opener,
		logger:     log.Named("redeem-pending"),
		now:        time.Now,
	}
}

func (uc *RedeemPendingAuthUseCase) Execute(ctx context.Context, cmd RedeemPendingAuthCommand) (*dto.AuthOutcome, error) {
	if cmd.SessionID == "" {
		return nil, errors.NewInvalidSessionIDError()
	}
	if cmd.AccountID == 0 {
		return nil, errors.NewValidationError("account id is required")
	}

	eventUUID, err := uc.opener.DecryptURLSafe(cmd.PendingToken)
	if err != nil {
		uc.logger.Warnw("pending token failed to decrypt", "error", err)
		return nil, errors.NewInvalidAuthTokenError("pending token unreadable")
	}

	event, err := uc.events.GetByUUID(ctx, eventUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up authentication event: %w", err)
	}
	if event == nil {
		return nil, errors.NewInvalidAuthTokenError("unknown authentication event")
	}

	// The pending token is bound to the session that produced it; a token
	// replayed from another session is rejected before the age check.
	if !event.MatchesSession(cmd.SessionID) {
		return nil, errors.NewInvalidSessionIDError()
	}
	if event.IsExpired(uc.now().UTC()) {
		return nil, errors.NewAuthenticationExpiredError()
	}

	// Association is written exactly once, so the target account must exist
	// before the write. Skipping this check would brick the identity: the row
	// would point at a missing account and every retry would come back
	// AlreadyAssociated.
	acct, err := uc.accounts.GetByID(ctx, cmd.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account %d: %w", cmd.AccountID, err)
	}
	if acct == nil {
		return nil, errors.NewNotFoundError("account not found")
	}

	method := cmd.Intent
	if method != identity.MethodLink {
		method = identity.MethodManual
	}

	result, err := uc.identities.Associate(ctx, event.ExternalIdentityID, event.ID, cmd.AccountID, method)
	if err != nil {
		return nil, fmt.Errorf("failed to associate identity: %w", err)
	}
	if result.AlreadyAssociated {
		uc.logger.Debugw("identity already associated, returning existing account",
			"identity_id", event.ExternalIdentityID)
	}

	profile, err := buildAccountProfile(ctx, uc.accounts, uc.identities, uc.tokens, result.Identity.AccountID())
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("pending authentication redeemed",
		"identity_id", event.ExternalIdentityID,
		"account_id", result.Identity.AccountID(),
		"method", method)
	return &dto.AuthOutcome{Account: profile}, nil
}
