// Package identity models external identities: provider accounts (Apple,
// Twitter) that authenticate a person before any platform account exists.
package identity

import "fmt"

// Provider identifies a supported identity provider.
type Provider string

const (
	ProviderApple   Provider = "apple"
	ProviderTwitter Provider = "twitter"
)

// RealUserConfidence is a provider-supplied signal about how likely the
// authenticating party is a real person. Metadata only, never a security
// boundary.
type RealUserConfidence string

const (
	ConfidenceUnsupported RealUserConfidence = "unsupported"
	ConfidenceUnknown     RealUserConfidence = "unknown"
	ConfidenceLikelyReal  RealUserConfidence = "likely_real"
	ConfidenceVerified    RealUserConfidence = "verified"
)

// AssociationMethod records how an identity became tied to an account.
type AssociationMethod string

const (
	// MethodAuto marks an association made by exact email match during
	// authentication.
	MethodAuto AssociationMethod = "auto"
	// MethodManual marks an association made by redeeming a pending-auth
	// token during signup.
	MethodManual AssociationMethod = "manual"
	// MethodLink marks an explicit link added to an already signed-in
	// account.
	MethodLink AssociationMethod = "link"
)

// Claim is the verified, normalized output of a provider adapter. It is
// consumed once by the resolution engine and never persisted directly.
//
// DisplayName and Handle are nil when the provider does not supply them;
// the snapshot update only touches fields the claim carries.
type Claim struct {
	Provider           Provider
	ProviderUserID     string
	Email              string
	IsEmailPrivate     bool
	DisplayName        *string
	Handle             *string
	RealUserConfidence *RealUserConfidence
}

// Validate checks the fields every claim must carry.
func (c *Claim) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if c.ProviderUserID == "" {
		return fmt.Errorf("provider user ID is required")
	}
	return nil
}

// HasUsableEmail reports whether the claim's email can drive an automatic
// account match. Private relay addresses never participate in matching.
func (c *Claim) HasUsableEmail() bool {
	return c.Email != "" && !c.IsEmailPrivate
}
