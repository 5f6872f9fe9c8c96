package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"signet/internal/shared/config"
	"signet/internal/shared/logger"
)

// DefaultTwitterBaseURL is Twitter's API host.
const DefaultTwitterBaseURL = "https://api.twitter.com"

// twitterErrCodeInvalidToken is Twitter's error code for an invalid or
// expired user token.
const twitterErrCodeInvalidToken = 89

// ErrTwitterTokenInvalid marks a stored user token the provider no longer
// accepts. Callers remove the token link instead of retrying.
var ErrTwitterTokenInvalid = errors.New("twitter token invalid or expired")

// TwitterRequestToken is the outcome of the request-token handshake.
type TwitterRequestToken struct {
	Token             string
	Secret            string
	CallbackConfirmed bool
}

// TwitterAccessToken is the outcome of the verifier exchange.
type TwitterAccessToken struct {
	Token      string
	Secret     string
	UserID     string
	ScreenName string
}

// TwitterUser is a user record from the REST API.
type TwitterUser struct {
	IDStr      string `json:"id_str"`
	Name       string `json:"name"`
	ScreenName string `json:"screen_name"`
	Email      string `json:"email"`
	Verified   bool   `json:"verified"`
}

// TwitterClient speaks Twitter's OAuth 1.0a handshake and the signed REST
// calls built on the same signer: profile fetch, user search and posting.
type TwitterClient struct {
	signer     *OAuth1Signer
	appToken   OAuth1Token
	baseURL    string
	httpClient *http.Client
	logger     logger.Interface
}

func NewTwitterClient(cfg config.TwitterConfig, log logger.Interface) *TwitterClient {
	return &TwitterClient{
		signer:     NewOAuth1Signer(cfg.ConsumerKey, cfg.ConsumerSecret),
		appToken:   OAuth1Token{Token: cfg.AppToken, Secret: cfg.AppTokenSecret},
		baseURL:    DefaultTwitterBaseURL,
		httpClient: &http.Client{Timeout: httpClientTimeout},
		logger:     log.Named("twitter"),
	}
}

// signedRequest builds, signs and sends one request. Query and form params
// both participate in the signature; only form params travel in the body.
func (c *TwitterClient) signedRequest(ctx context.Context, method, path string, query, form url.Values, token *OAuth1Token, extraOAuth map[string]string) (*http.Response, error) {
	endpoint := c.baseURL + path

	all := url.Values{}
	for k, vs := range query {
		for _, v := range vs {
			all.Add(k, v)
		}
	}
	for k, vs := range form {
		for _, v := range vs {
			all.Add(k, v)
		}
	}

	header, err := c.signer.AuthorizationHeader(method, endpoint, all, token, extraOAuth)
	if err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}

	var body io.Reader
	if len(form) > 0 {
		body = strings.NewReader(form.Encode())
	}
	requestURL := endpoint
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", header)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	return resp, nil
}

// GetRequestToken starts the OAuth 1.0a flow. The caller's callback URL is
// echoed back by Twitter with a confirmation flag; absence of the flag is
// reported, not fatal.
func (c *TwitterClient) GetRequestToken(ctx context.Context, callbackURL string) (*TwitterRequestToken, error) {
	resp, err := c.signedRequest(ctx, http.MethodPost, "/oauth/request_token", nil, nil, nil,
		map[string]string{"oauth_callback": callbackURL})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	values, err := c.readFormBody(resp, "request_token")
	if err != nil {
		return nil, err
	}

	return &TwitterRequestToken{
		Token:             values.Get("oauth_token"),
		Secret:            values.Get("oauth_token_secret"),
		CallbackConfirmed: values.Get("oauth_callback_confirmed") == "true",
	}, nil
}

// GetAccessToken exchanges an authorized request token plus verifier for the
// user's access token.
func (c *TwitterClient) GetAccessToken(ctx context.Context, requestToken, requestSecret, verifier string) (*TwitterAccessToken, error) {
	token := &OAuth1Token{Token: requestToken, Secret: requestSecret}
	resp, err := c.signedRequest(ctx, http.MethodPost, "/oauth/access_token", nil, nil, token,
		map[string]string{"oauth_verifier": verifier})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	values, err := c.readFormBody(resp, "access_token")
	if err != nil {
		return nil, err
	}

	return &TwitterAccessToken{
		Token:      values.Get("oauth_token"),
		Secret:     values.Get("oauth_token_secret"),
		UserID:     values.Get("user_id"),
		ScreenName: values.Get("screen_name"),
	}, nil
}

// VerifyCredentials fetches the authenticated user's profile, including the
// email address when the consumer app is whitelisted for it.
func (c *TwitterClient) VerifyCredentials(ctx context.Context, token OAuth1Token) (*TwitterUser, error) {
	query := url.Values{}
	query.Set("include_email", "true")
	query.Set("skip_status", "true")

	resp, err := c.signedRequest(ctx, http.MethodGet, "/1.1/account/verify_credentials.json", query, nil, &token, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var user TwitterUser
	if err := c.readJSONBody(resp, "verify_credentials", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SearchUsers runs a name search signed with the application-owned token.
func (c *TwitterClient) SearchUsers(ctx context.Context, q string, count int) ([]TwitterUser, error) {
	query := url.Values{}
	query.Set("q", q)
	query.Set("count", fmt.Sprintf("%d", count))

	resp, err := c.signedRequest(ctx, http.MethodGet, "/1.1/users/search.json", query, nil, &c.appToken, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var users []TwitterUser
	if err := c.readJSONBody(resp, "users_search", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateStatus posts a tweet on behalf of the token's user. A provider
// response naming error code 89 surfaces as ErrTwitterTokenInvalid.
func (c *TwitterClient) UpdateStatus(ctx context.Context, token OAuth1Token, status string) error {
	form := url.Values{}
	form.Set("status", status)

	resp, err := c.signedRequest(ctx, http.MethodPost, "/1.1/statuses/update.json", nil, form, &token, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	if code := twitterErrorCode(body); code == twitterErrCodeInvalidToken {
		return ErrTwitterTokenInvalid
	}
	return fmt.Errorf("statuses/update failed: status %d, body: %s", resp.StatusCode, string(body))
}

// readFormBody decodes the form-encoded token-endpoint responses.
func (c *TwitterClient) readFormBody(resp *http.Response, call string) (url.Values, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", call, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s failed: status %d, body: %s", call, resp.StatusCode, string(body))
	}
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s response: %w", call, err)
	}
	return values, nil
}

// readJSONBody decodes the JSON REST responses.
func (c *TwitterClient) readJSONBody(resp *http.Response, call string, out interface{}) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", call, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s failed: status %d, body: %s", call, resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s response: %w", call, err)
	}
	return nil
}

// twitterErrorCode extracts the first error code from Twitter's JSON error
// body, or 0.
func twitterErrorCode(body []byte) int {
	var payload struct {
		Errors []struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return 0
	}
	if len(payload.Errors) == 0 {
		return 0
	}
	return payload.Errors[0].Code
}
