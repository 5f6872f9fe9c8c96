package auth

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"signet/internal/shared/config"
	"signet/internal/shared/logger"
)

const (
	// httpClientTimeout bounds every HTTP request to a provider.
	httpClientTimeout = 30 * time.Second

	// appleIssuer is the fixed issuer of Apple ID tokens and the audience of
	// client-secret assertions.
	appleIssuer = "https://appleid.apple.com"

	// DefaultAppleTokenURL is Apple's code/refresh-token exchange endpoint.
	DefaultAppleTokenURL = "https://appleid.apple.com/auth/token"

	// clientSecretValidity stays under Apple's six-month cap.
	clientSecretValidity = 5
)

// AppleClientVariant selects which registered client is authenticating. The
// native app and the web service carry different client ids, and an ID token
// minted for one never verifies against the other's audience.
type AppleClientVariant string

const (
	AppleVariantApp AppleClientVariant = "app"
	AppleVariantWeb AppleClientVariant = "web"
)

// AppleTokenResponse is the outcome of a successful code exchange.
type AppleTokenResponse struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
}

// AppleIDClaims is the verified content of an Apple ID token.
type AppleIDClaims struct {
	Subject        string
	Email          string
	IsPrivateEmail bool
}

type appleIDClaims struct {
	Email          string      `json:"email"`
	IsPrivateEmail interface{} `json:"is_private_email"`
	jwt.RegisteredClaims
}

// AppleClient mints client-secret assertions, exchanges authorization codes
// and verifies ID tokens against Apple's rotating key set.
type AppleClient struct {
	cfg        config.AppleConfig
	signingKey *ecdsa.PrivateKey
	keys       *AppleKeyCache
	tokenURL   string
	httpClient *http.Client
	logger     logger.Interface
	now        func() time.Time
}

func NewAppleClient(cfg config.AppleConfig, keys *AppleKeyCache, log logger.Interface) (*AppleClient, error) {
	signingKey, err := jwt.ParseECPrivateKeyFromPEM([]byte(cfg.SigningKey))
	if err != nil {
		return nil, fmt.Errorf("failed to parse Apple signing key: %w", err)
	}
	return &AppleClient{
		cfg:        cfg,
		signingKey: signingKey,
		keys:       keys,
		tokenURL:   DefaultAppleTokenURL,
		httpClient: &http.Client{Timeout: httpClientTimeout},
		logger:     log.Named("apple"),
		now:        time.Now,
	}, nil
}

// clientID returns the registered client id for the variant: the bundle id
// for the native app flow, the service id for the web flow.
func (c *AppleClient) clientID(variant AppleClientVariant) string {
	if variant == AppleVariantWeb {
		return c.cfg.ServiceID
	}
	return c.cfg.AppID
}

// ClientSecret mints the ES256 client-secret assertion Apple's token
// endpoint requires: header {alg, kid} with no typ, claims
// {iss: teamID, sub: clientID, aud: appleIssuer, iat: now, exp: now+5 months}.
func (c *AppleClient) ClientSecret(variant AppleClientVariant) (string, error) {
	now := c.now().UTC()
	claims := jwt.RegisteredClaims{
		Issuer:    c.cfg.TeamID,
		Subject:   c.clientID(variant),
		Audience:  jwt.ClaimStrings{appleIssuer},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.AddDate(0, clientSecretValidity, 0)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = c.cfg.SigningKeyID
	delete(token.Header, "typ")

	signed, err := token.SignedString(c.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign client secret: %w", err)
	}
	return signed, nil
}

// ExchangeCode trades an authorization code for Apple's token set.
func (c *AppleClient) ExchangeCode(ctx context.Context, code string, variant AppleClientVariant) (*AppleTokenResponse, error) {
	secret, err := c.ClientSecret(variant)
	if err != nil {
		return nil, err
	}

	conf := &oauth2.Config{
		ClientID:     c.clientID(variant),
		ClientSecret: secret,
		RedirectURL:  c.cfg.RedirectURL,
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	idToken, _ := token.Extra("id_token").(string)
	return &AppleTokenResponse{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		IDToken:      idToken,
	}, nil
}

// VerifyIDToken checks the token's signature against Apple's key set and
// its audience and issuer for the given client variant. Any failure
// invalidates the whole token; there is no partial trust.
func (c *AppleClient) VerifyIDToken(ctx context.Context, rawToken string, variant AppleClientVariant) (*AppleIDClaims, error) {
	claims := &appleIDClaims{}
	_, err := jwt.ParseWithClaims(rawToken, claims,
		func(token *jwt.Token) (interface{}, error) {
			kid, _ := token.Header["kid"].(string)
			if kid == "" {
				return nil, fmt.Errorf("token header missing kid")
			}
			return c.keys.Get(ctx, kid)
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithAudience(c.clientID(variant)),
		jwt.WithIssuer(appleIssuer),
	)
	if err != nil {
		return nil, fmt.Errorf("ID token verification failed: %w", err)
	}

	return &AppleIDClaims{
		Subject:        claims.Subject,
		Email:          claims.Email,
		IsPrivateEmail: isPrivateEmail(claims.IsPrivateEmail),
	}, nil
}

// isPrivateEmail interprets the is_private_email claim, which Apple has
// shipped both as the string "true" and as a bare boolean.
func isPrivateEmail(v interface{}) bool {
	switch val := v.(type) {
	case string:
		return val == "true"
	case bool:
		return val
	default:
		return false
	}
}

// PeekSubject parses the token without verifying it, for log context only.
func PeekSubject(rawToken string) string {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(rawToken, claims); err != nil {
		return ""
	}
	sub, _ := claims["sub"].(string)
	return sub
}
