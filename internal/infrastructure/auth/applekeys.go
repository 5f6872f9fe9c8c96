package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/lestrrat-go/jwx/v3/jwk"

	"signet/internal/shared/logger"
)

// DefaultAppleKeysURL is Apple's published signing-key set.
const DefaultAppleKeysURL = "https://appleid.apple.com/auth/keys"

// AppleKeyCache holds Apple's rotating public signing keys in process
// memory. Fetching is lazy: the first lookup, and any lookup for a key id
// missing from the cached set, trigger one refetch. A refetch replaces the
// whole set, so retired keys age out with the next rotation. Concurrent
// misses may refetch twice; the fetch is idempotent so that is tolerated
// rather than deduplicated. The cache's lifetime is owned by the Apple
// client that holds it, not by the process.
type AppleKeyCache struct {
	url        string
	httpClient *http.Client
	logger     logger.Interface

	mu  sync.RWMutex
	set jwk.Set
}

func NewAppleKeyCache(url string, httpClient *http.Client, log logger.Interface) *AppleKeyCache {
	if url == "" {
		url = DefaultAppleKeysURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: httpClientTimeout}
	}
	return &AppleKeyCache{
		url:        url,
		httpClient: httpClient,
		logger:     log.Named("apple-keys"),
	}
}

func (c *AppleKeyCache) lookup(kid string) (interface{}, bool) {
	c.mu.RLock()
	set := c.set
	c.mu.RUnlock()
	if set == nil {
		return nil, false
	}
	key, found := set.LookupKeyID(kid)
	if !found {
		return nil, false
	}
	var raw interface{}
	if err := jwk.Export(key, &raw); err != nil {
		c.logger.Warnw("failed to export signing key", "kid", kid, "error", err)
		return nil, false
	}
	return raw, true
}

// Get returns the public key for kid, refetching the key set once when the
// kid is unknown.
func (c *AppleKeyCache) Get(ctx context.Context, kid string) (interface{}, error) {
	if key, ok := c.lookup(kid); ok {
		return key, nil
	}

	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}

	key, ok := c.lookup(kid)
	if !ok {
		return nil, fmt.Errorf("signing key %q not present in key set", kid)
	}
	return key, nil
}

// Refresh fetches the provider's key set and swaps it in.
func (c *AppleKeyCache) Refresh(ctx context.Context) error {
	set, err := jwk.Fetch(ctx, c.url, jwk.WithHTTPClient(c.httpClient))
	if err != nil {
		return fmt.Errorf("failed to fetch key set: %w", err)
	}

	c.mu.Lock()
	c.set = set
	c.mu.Unlock()

	c.logger.Debugw("signing key set refreshed", "keys", set.Len())
	return nil
}
