package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// OAuth1Token is a token/secret pair: a request token, a user's access
// token, or the application-owned token, depending on the call.
type OAuth1Token struct {
	Token  string
	Secret string
}

// OAuth1Signer signs requests per OAuth 1.0a with HMAC-SHA1. Signing is a
// pure function of (method, URL, params, secrets); nonce and timestamp enter
// as ordinary parameters, so the generators are injectable for tests.
type OAuth1Signer struct {
	ConsumerKey    string
	ConsumerSecret string

	nonce func() (string, error)
	now   func() time.Time
}

func NewOAuth1Signer(consumerKey, consumerSecret string) *OAuth1Signer {
	return &OAuth1Signer{
		ConsumerKey:    consumerKey,
		ConsumerSecret: consumerSecret,
		nonce:          generateNonce,
		now:            time.Now,
	}
}

// generateNonce returns 32 random bytes, base64 encoded, stripped of
// non-alphanumeric characters.
func generateNonce() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)
	var b strings.Builder
	for _, r := range encoded {
		if (r >= '0' && r <= '9') || (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

// percentEncode implements RFC 3986 encoding with the unreserved set
// A-Z a-z 0-9 - . _ ~ and uppercase hex digits, as OAuth 1.0a requires.
func percentEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9',
			c == '-', c == '.', c == '_', c == '~':
			b.WriteByte(c)
		default:
			b.WriteString(fmt.Sprintf("%%%02X", c))
		}
	}
	return b.String()
}

type encodedPair struct {
	key   string
	value string
}

// encodeAndSort percent-encodes every key/value pair and orders them by
// encoded key, then encoded value.
func encodeAndSort(params url.Values) []encodedPair {
	pairs := make([]encodedPair, 0, len(params))
	for key, values := range params {
		for _, value := range values {
			pairs = append(pairs, encodedPair{key: percentEncode(key), value: percentEncode(value)})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].key != pairs[j].key {
			return pairs[i].key < pairs[j].key
		}
		return pairs[i].value < pairs[j].value
	})
	return pairs
}

// SignatureBase builds the OAuth 1.0a signature base string for the given
// method, URL and complete parameter set (query + body + oauth_* params,
// excluding oauth_signature).
func SignatureBase(method, rawURL string, params url.Values) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}

	baseURL := fmt.Sprintf("%s://%s%s", u.Scheme, u.Host, u.Path)

	pairs := encodeAndSort(params)
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p.key+"="+p.value)
	}
	paramString := strings.Join(parts, "&")

	return strings.ToUpper(method) + "&" + percentEncode(baseURL) + "&" + percentEncode(paramString), nil
}

// Signature computes the base64 HMAC-SHA1 signature over the base string,
// keyed by enc(consumerSecret) & enc(tokenSecret-or-empty).
func (s *OAuth1Signer) Signature(method, rawURL string, params url.Values, tokenSecret string) (string, error) {
	base, err := SignatureBase(method, rawURL, params)
	if err != nil {
		return "", err
	}
	key := percentEncode(s.ConsumerSecret) + "&" + percentEncode(tokenSecret)
	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// AuthorizationHeader signs the request and renders the OAuth header value.
// requestParams is the union of query and body parameters; token may be nil
// for the request-token call; extra carries call-specific oauth_* params
// such as oauth_callback or oauth_verifier.
func (s *OAuth1Signer) AuthorizationHeader(method, rawURL string, requestParams url.Values, token *OAuth1Token, extra map[string]string) (string, error) {
	nonce, err := s.nonce()
	if err != nil {
		return "", err
	}

	oauthParams := map[string]string{
		"oauth_consumer_key":     s.ConsumerKey,
		"oauth_nonce":            nonce,
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        strconv.FormatInt(s.now().Unix(), 10),
		"oauth_version":          "1.0",
	}
	tokenSecret := ""
	if token != nil {
		oauthParams["oauth_token"] = token.Token
		tokenSecret = token.Secret
	}
	for k, v := range extra {
		oauthParams[k] = v
	}

	all := url.Values{}
	for key, values := range requestParams {
		for _, value := range values {
			all.Add(key, value)
		}
	}
	for k, v := range oauthParams {
		all.Set(k, v)
	}

	signature, err := s.Signature(method, rawURL, all, tokenSecret)
	if err != nil {
		return "", err
	}
	oauthParams["oauth_signature"] = signature

	// The header carries only the oauth_* parameters, percent-encoded and
	// ordered the same way as the base string.
	header := url.Values{}
	for k, v := range oauthParams {
		header.Set(k, v)
	}
	pairs := encodeAndSort(header)
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, fmt.Sprintf("%s=%q", p.key, p.value))
	}
	return "OAuth " + strings.Join(parts, ", "), nil
}
