// Package dto defines the results the identity use cases hand back to the
// transport collaborator.
package dto

// AccountProfile is the signed-in account view returned on a successful
// authentication.
type AccountProfile struct {
	ID                      uint   `json:"id"`
	Email                   string `json:"email"`
	Name                    string `json:"name"`
	HasLinkedTwitterAccount bool   `json:"has_linked_twitter_account"`
}

// AuthOutcome is the terminal result of an authentication attempt: either a
// resolved account to sign in, or a pending-auth token the caller must
// redeem after signup/account selection. Exactly one of the two is set.
type AuthOutcome struct {
	Account          *AccountProfile `json:"account,omitempty"`
	PendingAuthToken string          `json:"pending_auth_token,omitempty"`
	// IsNewIdentity is true when this authentication created the external
	// identity record.
	IsNewIdentity bool `json:"is_new_identity"`
}

// RequestTokenResult starts the Twitter redirect leg.
type RequestTokenResult struct {
	Token        string `json:"token"`
	AuthorizeURL string `json:"authorize_url"`
}
